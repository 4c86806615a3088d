// Package structure builds the cross-file structure graph: package/file/
// symbol nodes, contains/defines/import edges, and export-usage counts.
// It runs the real AST pass (internal/astjs) for the JS/TS family and
// falls back to a whole-file symbol for everything else.
package structure

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/codemap/internal/astjs"
	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/depgraph"
)

// Result is the structure graph. Symbols still carry their Text, which
// clone detection and smell detection need (codemodel.Symbol.Text is
// stripped before the report is emitted, but these passes run first).
type Result struct {
	Nodes         []codemodel.StructureNode
	Edges         []codemodel.Edge
	Symbols       []codemodel.Symbol
	Exports       map[string][]string          // file path -> sorted export names
	IncomingCalls map[string]int                // symbolID -> number of distinct calling symbols
	ExportUsage   map[string]int                // "file#name" -> distinct importer count
}

// Config controls the AST pass's size cutoff.
type Config struct {
	MaxFileSize int64
}

// Build runs the AST pass over every file, assembles the node/edge set, and
// computes export usage from the resolved local dependency edges.
func Build(rootPath string, files []codemodel.File, languageFor func(ext string) string, depEdges []depgraph.Edge, cfg Config) Result {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = astjs.MaxFileBytes
	}

	res := Result{
		Exports:       make(map[string][]string),
		IncomingCalls: make(map[string]int),
		ExportUsage:   make(map[string]int),
	}

	packages := make(map[string]bool)
	fileExportSets := make(map[string]map[string]bool)
	fileImports := make(map[string][]codemodel.ImportDescriptor)

	for _, f := range files {
		res.Nodes = append(res.Nodes, codemodel.StructureNode{Kind: codemodel.NodeFile, ID: "file:" + f.Path, Name: f.Path})

		if pkg := packageOf(f.Path); pkg != "" {
			if !packages[pkg] {
				packages[pkg] = true
				res.Nodes = append(res.Nodes, codemodel.StructureNode{Kind: codemodel.NodePackage, ID: "package:" + pkg, Name: pkg})
			}
			res.Edges = append(res.Edges, codemodel.Edge{Source: "package:" + pkg, Target: "file:" + f.Path, Type: codemodel.EdgeContains})
		}

		lang := languageFor(f.Ext)
		var symbols []codemodel.Symbol
		var exports map[string]bool
		var imports []codemodel.ImportDescriptor
		var calls []astjs.Call

		if astjs.IsJSFamily(f.Ext) && f.Size <= maxSize {
			data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(f.Path)))
			if err == nil {
				var fs codemodel.FileSyntax
				var ok bool
				fs, calls, ok = astjs.Extract(f.Path, lang, f.Ext, data)
				if ok {
					symbols = fs.Symbols
					exports = fs.Exports
					imports = fs.Imports
				}
			}
		}

		if symbols == nil {
			symbols = []codemodel.Symbol{fallbackSymbol(rootPath, f, lang)}
		}

		for _, sym := range symbols {
			res.Symbols = append(res.Symbols, sym)
			res.Nodes = append(res.Nodes, codemodel.StructureNode{Kind: codemodel.NodeSymbol, ID: sym.ID, Name: sym.Name})
			res.Edges = append(res.Edges, codemodel.Edge{Source: "file:" + f.Path, Target: sym.ID, Type: codemodel.EdgeDefines})
		}

		if len(exports) > 0 {
			fileExportSets[f.Path] = exports
			names := make([]string, 0, len(exports))
			for name := range exports {
				names = append(names, name)
			}
			sort.Strings(names)
			res.Exports[f.Path] = names
		}
		if len(imports) > 0 {
			fileImports[f.Path] = imports
		}

		symbolIDByName := make(map[string]string, len(symbols))
		for _, sym := range symbols {
			if sym.Kind.IsFunctionLike() {
				symbolIDByName[sym.Name] = sym.ID
			}
		}
		seenCallers := make(map[string]map[string]bool)
		for _, call := range calls {
			calleeID, ok := symbolIDByName[call.Callee]
			if !ok {
				continue
			}
			callers, ok := seenCallers[calleeID]
			if !ok {
				callers = make(map[string]bool)
				seenCallers[calleeID] = callers
			}
			if callers[call.Caller] {
				continue
			}
			callers[call.Caller] = true
			res.IncomingCalls[calleeID]++
		}
	}

	resolvedBySpec := make(map[[2]string]string, len(depEdges))
	for _, e := range depEdges {
		if e.Kind != "local" || e.Target == "" {
			continue
		}
		res.Edges = append(res.Edges, codemodel.Edge{Source: "file:" + e.Source, Target: "file:" + e.Target, Type: codemodel.EdgeImport})
		resolvedBySpec[[2]string{e.Source, e.Specifier}] = e.Target
	}

	res.ExportUsage = ComputeExportUsage(fileImports, fileExportSets, resolvedBySpec)

	return res
}

// fallbackSymbol produces the whole-file symbol for languages outside the
// JS/TS family, or for JS/TS files whose AST pass failed or was skipped for
// size.
func fallbackSymbol(rootPath string, f codemodel.File, language string) codemodel.Symbol {
	endLine := 1
	var text string
	if data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(f.Path))); err == nil {
		endLine = countLines(data)
		if len(data) > astjs.MaxSnippetBytes {
			data = data[:astjs.MaxSnippetBytes]
		}
		text = string(data)
	}
	return codemodel.Symbol{
		ID: "file:" + f.Path + "#__file__", FileID: "file:" + f.Path, Name: "__file__",
		Kind: codemodel.SymbolFile, Path: f.Path, Language: language, StartLine: 1, EndLine: maxInt(endLine, 1),
		Text: text,
	}
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 1
	}
	n := 1
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func packageOf(path string) string {
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	top := path[:idx]
	if top == "" || top == "." || strings.HasPrefix(top, ".") {
		return ""
	}
	return top
}

// ComputeExportUsage counts how many distinct importing files reference
// each exported symbol. For each file's import descriptors, it resolves
// the specifier to a target file via resolvedBySpec (built by the caller
// from local dependency edges), then credits each imported name — or,
// for namespace imports, every export of the target — against a
// per-importer set so repeated imports from the same file count once.
func ComputeExportUsage(
	fileImports map[string][]codemodel.ImportDescriptor,
	fileExportSets map[string]map[string]bool,
	resolvedBySpec map[[2]string]string, // (importerFile, specifier) -> targetFile
) map[string]int {
	// target#name -> set of importer files
	importers := make(map[string]map[string]bool)

	for importer, descriptors := range fileImports {
		for _, desc := range descriptors {
			target, ok := resolvedBySpec[[2]string{importer, desc.Specifier}]
			if !ok {
				continue
			}
			exportSet := fileExportSets[target]
			if exportSet == nil {
				continue
			}

			credit := func(name string) {
				key := target + "#" + name
				if importers[key] == nil {
					importers[key] = make(map[string]bool)
				}
				importers[key][importer] = true
			}

			if desc.HasNamespace {
				for name := range exportSet {
					credit(name)
				}
				continue
			}
			for name := range desc.Names {
				if exportSet[name] {
					credit(name)
				}
			}
		}
	}

	out := make(map[string]int, len(importers))
	for key, set := range importers {
		out[key] = len(set)
	}
	return out
}
