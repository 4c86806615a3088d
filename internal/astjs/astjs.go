// Package astjs implements a real AST pass for the
// JS/TypeScript family: top-level symbol extraction, intra-file call edges,
// and export/import descriptors. Every other language gets the whole-file
// fallback symbol built by internal/structure instead — this package is
// JS/TS-only by design.
//
// The tree-walking style (manual recursive descent over *sitter.Node
// children, switching on node.Type()) generalizes a single-declaration
// grammar walk into a whole-program walk.
package astjs

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/phobologic/codemap/internal/codemodel"
)

// MaxFileBytes is the AST pass's size cutoff (256 KiB); files larger than
// this get no symbols, no calls, no export/import descriptors.
const MaxFileBytes = 256 * 1024

// MaxSnippetBytes caps a symbol's captured source text (128 KiB).
const MaxSnippetBytes = 128 * 1024

// IsJSFamily reports whether ext belongs to the JS/TypeScript family that
// gets real AST treatment.
func IsJSFamily(ext string) bool {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return true
	default:
		return false
	}
}

func grammarFor(ext string) *sitter.Language {
	switch ext {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Call is one intra-file call site: caller and callee are both top-level
// function-like symbol names in the same file.
type Call struct {
	Caller string
	Callee string
}

// Extract parses source with the appropriate JS/TS grammar and returns the
// file's top-level symbols, intra-file calls, and export/import descriptors.
// A parse failure returns ok=false so the caller falls back to the
// whole-file symbol; a parser failure is never treated as an error worth
// raising on its own.
func Extract(path, language string, ext string, source []byte) (codemodel.FileSyntax, []Call, bool) {
	if len(source) > MaxFileBytes {
		return codemodel.FileSyntax{}, nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(ext))

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil || tree.RootNode() == nil {
		return codemodel.FileSyntax{}, nil, false
	}
	defer tree.Close()

	w := &walker{source: source, path: path, language: language, exports: map[string]bool{}}
	w.walkProgram(tree.RootNode())

	fs := codemodel.FileSyntax{
		Path:          path,
		Symbols:       w.symbols,
		Exports:       w.exports,
		Imports:       w.imports,
		IncomingCalls: nil,
	}
	return fs, w.calls, true
}

type walker struct {
	source   []byte
	path     string
	language string

	symbols []codemodel.Symbol
	byName  map[string]int // top-level function-like symbol name -> index in symbols
	calls   []Call
	exports map[string]bool
	imports []codemodel.ImportDescriptor
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.source[n.StartByte():n.EndByte()])
}

func (w *walker) snippet(n *sitter.Node) string {
	t := w.text(n)
	if len(t) > MaxSnippetBytes {
		return t[:MaxSnippetBytes]
	}
	return t
}

func (w *walker) addSymbol(name string, kind codemodel.SymbolKind, node *sitter.Node) {
	if kind == codemodel.SymbolFunction && startsUpper(name) {
		kind = codemodel.SymbolComponent
	}

	id := "file:" + w.path + "#__file__"
	switch kind {
	case codemodel.SymbolClass:
		id = "class:" + w.path + "#" + name
	case codemodel.SymbolFunction:
		id = "function:" + w.path + "#" + name
	case codemodel.SymbolComponent:
		id = "component:" + w.path + "#" + name
	case codemodel.SymbolValue:
		id = "value:" + w.path + "#" + name
	}

	sym := codemodel.Symbol{
		ID: id, FileID: "file:" + w.path, Name: name, Kind: kind, Path: w.path, Language: w.language,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Text:      w.snippet(node),
	}

	if w.byName == nil {
		w.byName = make(map[string]int)
	}
	if existingIdx, ok := findSymbolByID(w.symbols, id); ok {
		// De-duplicate by retaining the longer text.
		if len(sym.Text) > len(w.symbols[existingIdx].Text) {
			w.symbols[existingIdx] = sym
		}
		if kind.IsFunctionLike() {
			w.byName[name] = existingIdx
		}
		return
	}

	w.symbols = append(w.symbols, sym)
	if kind.IsFunctionLike() {
		w.byName[name] = len(w.symbols) - 1
	}
}

func findSymbolByID(symbols []codemodel.Symbol, id string) (int, bool) {
	for i, s := range symbols {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

func startsUpper(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

// walkProgram iterates the direct children of the program node, dispatching
// each program-level statement. Only program-scope declarations qualify as
// top-level symbols.
func (w *walker) walkProgram(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		w.walkTopLevelStatement(root.Child(i))
	}
	// Second pass: intra-file calls, now that every top-level symbol name is
	// known. Each top-level function-like symbol's body is scanned
	// independently so a call is always attributed to the symbol whose span
	// contains it.
	for _, sym := range w.symbols {
		if !sym.Kind.IsFunctionLike() {
			continue
		}
		if node := w.findNodeForSymbol(root, sym); node != nil {
			w.collectCalls(node, sym.Name)
		}
	}
}

// findNodeForSymbol re-locates the AST node for a top-level symbol by exact
// line span. Cheaper alternatives exist, but this keeps call collection
// decoupled from symbol extraction without threading node pointers through
// the Symbol struct (which must stay a plain, JSON-clean value).
func (w *walker) findNodeForSymbol(root *sitter.Node, sym codemodel.Symbol) *sitter.Node {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		start := int(child.StartPoint().Row) + 1
		end := int(child.EndPoint().Row) + 1
		if start == sym.StartLine && end == sym.EndLine {
			return child
		}
	}
	return nil
}

func (w *walker) walkTopLevelStatement(node *sitter.Node) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := childIdentifierText(node, w.source); name != "" {
			w.addSymbol(name, codemodel.SymbolFunction, node)
		}
	case "class_declaration":
		if name := childIdentifierText(node, w.source); name != "" {
			w.addSymbol(name, codemodel.SymbolClass, node)
		}
	case "lexical_declaration", "variable_declaration":
		w.walkVariableDeclaration(node)
	case "export_statement":
		w.walkExportStatement(node)
	case "import_statement":
		w.walkImportStatement(node)
	}
}

func (w *walker) walkVariableDeclaration(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name, valueNode := declaratorNameAndValue(child, w.source)
		if name == "" || valueNode == nil {
			continue
		}
		if isFunctionLikeExpr(valueNode) {
			w.addSymbol(name, codemodel.SymbolFunction, node)
		}
	}
}

func (w *walker) walkExportStatement(node *sitter.Node) {
	isDefault := false
	var decl *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "default":
			isDefault = true
		case "function_declaration", "generator_function_declaration", "class_declaration",
			"lexical_declaration", "variable_declaration", "arrow_function", "function":
			decl = child
		case "export_clause":
			w.collectExportClauseNames(child, node)
		}
	}

	hasFrom := hasStringChild(node)

	if decl == nil {
		return
	}

	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		name := childIdentifierText(decl, w.source)
		if name == "" && isDefault {
			name = "default"
		}
		if name == "" {
			return
		}
		w.addSymbol(name, codemodel.SymbolFunction, decl)
		w.exports[name] = true
		if isDefault && name != "default" {
			w.exports["default"] = true
		}
	case "class_declaration":
		name := childIdentifierText(decl, w.source)
		if name == "" && isDefault {
			name = "default"
		}
		if name != "" {
			w.exports[name] = true
			if isDefault && name != "default" {
				w.exports["default"] = true
			}
		}
	case "lexical_declaration", "variable_declaration":
		w.walkVariableDeclaration(decl)
		for i := 0; i < int(decl.ChildCount()); i++ {
			d := decl.Child(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if name, _ := declaratorNameAndValue(d, w.source); name != "" {
				w.exports[name] = true
			}
		}
	case "arrow_function", "function":
		// export default <anonymous function/arrow>
		if isDefault {
			w.addSymbol("default", codemodel.SymbolFunction, decl)
			w.exports["default"] = true
		}
	}

	if !hasFrom {
		return
	}
	// `export ... from` is a re-export and is intentionally NOT attributed
	// to this file's ExportSet.
}

func (w *walker) collectExportClauseNames(clause *sitter.Node, exportStmt *sitter.Node) {
	if hasStringChild(exportStmt) {
		// `export { a } from './x'` — re-export, not attributed here.
		return
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		spec := clause.Child(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		var local, exported string
		idx := 0
		for j := 0; j < int(spec.ChildCount()); j++ {
			c := spec.Child(j)
			if c.Type() == "identifier" {
				if idx == 0 {
					local = w.text(c)
				} else {
					exported = w.text(c)
				}
				idx++
			}
		}
		name := local
		if exported != "" {
			name = exported
		}
		if name != "" {
			w.exports[name] = true
		}
	}
}

func (w *walker) walkImportStatement(node *sitter.Node) {
	var specifier string
	desc := codemodel.ImportDescriptor{Names: map[string]bool{}}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string":
			specifier = stripQuotes(w.text(child))
		case "import_clause":
			w.walkImportClause(child, &desc)
		}
	}

	if specifier == "" {
		return
	}
	desc.Specifier = specifier
	w.imports = append(w.imports, desc)
}

func (w *walker) walkImportClause(clause *sitter.Node, desc *codemodel.ImportDescriptor) {
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			desc.Names["default"] = true
		case "namespace_import":
			desc.HasNamespace = true
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				names := childIdentifiers(spec, w.source)
				if len(names) > 0 {
					// import { a as b } -> the imported binding's original name is names[0]
					desc.Names[names[0]] = true
				}
			}
		}
	}
}

// collectCalls scans scope for call_expression nodes whose callee is a bare
// identifier resolving to a known top-level function-like symbol, excluding
// self-calls.
func (w *walker) collectCalls(scope *sitter.Node, callerName string) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.Child(0)
			if fn != nil && fn.Type() == "identifier" {
				callee := w.text(fn)
				if callee != callerName {
					if _, ok := w.byName[callee]; ok {
						w.calls = append(w.calls, Call{Caller: callerName, Callee: callee})
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(scope)
}

func childIdentifierText(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" || child.Type() == "type_identifier" {
			return string(source[child.StartByte():child.EndByte()])
		}
	}
	return ""
}

func childIdentifiers(node *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			out = append(out, string(source[child.StartByte():child.EndByte()]))
		}
	}
	return out
}

func declaratorNameAndValue(declarator *sitter.Node, source []byte) (string, *sitter.Node) {
	var name string
	var value *sitter.Node
	for i := 0; i < int(declarator.ChildCount()); i++ {
		child := declarator.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = string(source[child.StartByte():child.EndByte()])
			}
		case "arrow_function", "function":
			value = child
		}
	}
	return name, value
}

func isFunctionLikeExpr(node *sitter.Node) bool {
	switch node.Type() {
	case "arrow_function", "function", "generator_function":
		return true
	default:
		return false
	}
}

func hasStringChild(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "string" {
			return true
		}
	}
	return false
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
