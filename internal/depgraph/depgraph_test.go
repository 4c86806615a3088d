package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
)

func langFor(ext string) string {
	switch ext {
	case ".js":
		return "javascript"
	case ".py":
		return "python"
	default:
		return ""
	}
}

func TestAnalyzeResolvesLocalImport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "a.js", "export function foo() {}\n")
	mustWrite(t, dir, "b.js", "import {foo} from './a.js';\nfoo();\n")

	files := []codemodel.File{
		{Path: "a.js", Ext: ".js", Size: 30},
		{Path: "b.js", Ext: ".js", Size: 40},
	}

	res := Analyze(dir, files, langFor, Config{})

	var found bool
	for _, e := range res.Edges {
		if e.Source == "b.js" && e.Target == "a.js" && e.Kind == "local" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected local edge b.js -> a.js, got %+v", res.Edges)
	}
}

func TestAnalyzePythonExternalImportNotUnresolved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "m.py", "from pkg.sub import x\n")

	files := []codemodel.File{{Path: "m.py", Ext: ".py", Size: 30}}
	res := Analyze(dir, files, langFor, Config{})

	if len(res.Unresolved) != 0 {
		t.Fatalf("expected no unresolved entries, got %+v", res.Unresolved)
	}

	var found bool
	for _, e := range res.Edges {
		if e.Kind == "external" && e.Specifier == "pkg.sub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected external edge for pkg.sub, got %+v", res.Edges)
	}
}

func TestResolveRelativePrefersExactPath(t *testing.T) {
	t.Parallel()

	fileSet := map[string]struct{}{
		"lib/x.ts":       {},
		"lib/x/index.ts": {},
	}

	target, ok := resolveRelative("lib/main.ts", "./x.ts", fileSet)
	if !ok || target != "lib/x.ts" {
		t.Fatalf("expected lib/x.ts, got %q (ok=%v)", target, ok)
	}
}

func TestComputeInsightsFanInOut(t *testing.T) {
	t.Parallel()

	edges := []Edge{
		{Source: "a.js", Target: "b.js", Kind: "local"},
		{Source: "a.js", Target: "c.js", Kind: "local"},
		{Source: "d.js", Target: "b.js", Kind: "local"},
		{Source: "a.js", Specifier: "react", Kind: "external"},
	}

	insights := ComputeInsights(edges)

	if len(insights.FanOut) == 0 || insights.FanOut[0].Name != "a.js" || insights.FanOut[0].Count != 2 {
		t.Fatalf("unexpected fanOut: %+v", insights.FanOut)
	}
	if len(insights.FanIn) == 0 || insights.FanIn[0].Name != "b.js" || insights.FanIn[0].Count != 2 {
		t.Fatalf("unexpected fanIn: %+v", insights.FanIn)
	}
	if len(insights.ExternalPackages) == 0 || insights.ExternalPackages[0].Name != "react" {
		t.Fatalf("unexpected externalPackages: %+v", insights.ExternalPackages)
	}
}

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}
