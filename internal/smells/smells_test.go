package smells

import (
	"strconv"
	"strings"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
)

func TestDetectLongFunction(t *testing.T) {
	t.Parallel()

	body := "function big() {\n" + strings.Repeat("  doWork();\n", 60) + "}\n"
	sym := Symbol{ID: "file:a.js#big", Path: "a.js", Kind: codemodel.SymbolFunction, StartLine: 1, EndLine: 62, Text: body}

	issues := Detect([]Symbol{sym})

	var found bool
	for _, i := range issues {
		if i.Type == "long-function" {
			found = true
			if i.Severity != codemodel.SeverityWarning {
				t.Fatalf("expected warning severity at 62 lines, got %s", i.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected long-function issue, got %+v", issues)
	}
}

func TestDetectManyParametersError(t *testing.T) {
	t.Parallel()

	sym := Symbol{
		ID: "file:a.js#f", Path: "a.js", Kind: codemodel.SymbolFunction, StartLine: 1, EndLine: 3,
		Text: "function f(a, b, c, d, e, f, g, h) {\n  return a;\n}\n",
	}

	issues := Detect([]Symbol{sym})

	var found bool
	for _, i := range issues {
		if i.Type == "many-parameters" {
			found = true
			if i.Severity != codemodel.SeverityError {
				t.Fatalf("expected error severity at 8 params, got %s", i.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected many-parameters issue, got %+v", issues)
	}
}

func TestDetectBranchHeavy(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("function tangled(x) {\n")
	for i := 0; i < 16; i++ {
		b.WriteString("  if (x) { x++; }\n")
	}
	b.WriteString("}\n")

	sym := Symbol{ID: "file:a.js#tangled", Path: "a.js", Kind: codemodel.SymbolFunction, StartLine: 1, EndLine: 18, Text: b.String()}
	issues := Detect([]Symbol{sym})

	var found bool
	for _, i := range issues {
		if i.Type == "branch-heavy" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected branch-heavy issue, got %+v", issues)
	}
}

func TestDetectLargeClassAndManyMethods(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("class Widget {\n")
	for i := 0; i < 16; i++ {
		b.WriteString("  method" + strconv.Itoa(i) + "() {\n    return 1;\n  }\n")
	}
	b.WriteString("}\n")

	sym := Symbol{ID: "file:a.js#Widget", Path: "a.js", Kind: codemodel.SymbolClass, StartLine: 1, EndLine: 200, Text: b.String()}
	issues := Detect([]Symbol{sym})

	types := make(map[string]bool)
	for _, i := range issues {
		types[i.Type] = true
	}
	if !types["large-class"] {
		t.Fatalf("expected large-class issue, got %+v", issues)
	}
	if !types["many-methods"] {
		t.Fatalf("expected many-methods issue, got %+v", issues)
	}
}

func TestDetectIgnoresSmallFunctions(t *testing.T) {
	t.Parallel()

	sym := Symbol{ID: "file:a.js#tiny", Path: "a.js", Kind: codemodel.SymbolFunction, StartLine: 1, EndLine: 3, Text: "function tiny(a) {\n  return a;\n}\n"}
	issues := Detect([]Symbol{sym})
	if len(issues) != 0 {
		t.Fatalf("expected no issues for a small function, got %+v", issues)
	}
}
