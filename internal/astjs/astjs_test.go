package astjs

import (
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
)

func TestExtractFunctionDeclarationAndExport(t *testing.T) {
	t.Parallel()

	src := []byte("export function foo(x) {\n  return x + 1;\n}\n")
	fs, calls, ok := Extract("a.js", "javascript", ".js", src)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if len(calls) != 0 {
		t.Fatalf("expected no calls, got %+v", calls)
	}
	if !fs.Exports["foo"] {
		t.Fatalf("expected foo to be exported, got %+v", fs.Exports)
	}

	var found bool
	for _, s := range fs.Symbols {
		if s.Name == "foo" && s.Kind == codemodel.SymbolFunction {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected symbol foo, got %+v", fs.Symbols)
	}
}

func TestExtractComponentCapitalization(t *testing.T) {
	t.Parallel()

	src := []byte("function Widget() {\n  return 1;\n}\n")
	fs, _, ok := Extract("w.jsx", "javascript", ".jsx", src)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if len(fs.Symbols) != 1 || fs.Symbols[0].Kind != codemodel.SymbolComponent {
		t.Fatalf("expected single component symbol, got %+v", fs.Symbols)
	}
}

func TestExtractNamedImport(t *testing.T) {
	t.Parallel()

	src := []byte("import {foo} from './a.js';\nfoo();\n")
	fs, _, ok := Extract("b.js", "javascript", ".js", src)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if len(fs.Imports) != 1 || fs.Imports[0].Specifier != "./a.js" || !fs.Imports[0].Names["foo"] {
		t.Fatalf("unexpected imports: %+v", fs.Imports)
	}
}

func TestExtractClassStaysClassEvenIfCapitalized(t *testing.T) {
	t.Parallel()

	src := []byte("class Widget {\n  render() { return 1; }\n}\n")
	fs, _, ok := Extract("w.js", "javascript", ".js", src)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if len(fs.Symbols) != 1 || fs.Symbols[0].Kind != codemodel.SymbolClass {
		t.Fatalf("expected class symbol, got %+v", fs.Symbols)
	}
}
