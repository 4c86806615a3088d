package structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
	"github.com/phobologic/codemap/internal/depgraph"
)

func langFor(ext string) string {
	switch ext {
	case ".js":
		return "javascript"
	case ".go":
		return "go"
	default:
		return ""
	}
}

func TestBuildCrossFileExportUsage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "a.js", "export function foo() {\n  return 1;\n}\n")
	mustWrite(t, dir, "b.js", "import {foo} from './a.js';\nfoo();\n")

	files := []codemodel.File{
		{Path: "a.js", Ext: ".js", Size: 40},
		{Path: "b.js", Ext: ".js", Size: 40},
	}
	depEdges := []depgraph.Edge{{Source: "b.js", Target: "a.js", Specifier: "./a.js", Kind: "local"}}

	res := Build(dir, files, langFor, depEdges, Config{})

	if res.ExportUsage["a.js#foo"] != 1 {
		t.Fatalf("expected a.js#foo usage=1, got %d", res.ExportUsage["a.js#foo"])
	}
}

func TestBuildFallbackSymbolForNonJSFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	files := []codemodel.File{{Path: "main.go", Ext: ".go", Size: 30}}
	res := Build(dir, files, langFor, nil, Config{})

	if len(res.Symbols) != 1 || res.Symbols[0].Kind != codemodel.SymbolFile {
		t.Fatalf("expected single fallback file symbol, got %+v", res.Symbols)
	}
}

func TestBuildEdgesReferenceExistingNodes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "pkg/a.js", "export function foo() {}\n")

	files := []codemodel.File{{Path: "pkg/a.js", Ext: ".js", Size: 30}}
	res := Build(dir, files, langFor, nil, Config{})

	nodeIDs := make(map[string]bool, len(res.Nodes))
	for _, n := range res.Nodes {
		nodeIDs[n.ID] = true
	}
	for _, e := range res.Edges {
		if !nodeIDs[e.Source] {
			t.Fatalf("edge source %q has no node", e.Source)
		}
		if !nodeIDs[e.Target] {
			t.Fatalf("edge target %q has no node", e.Target)
		}
	}
}

func TestBuildIncomingCallsDeduplicatedByCaller(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, dir, "a.js", `function helper() {
  return 1;
}
function caller() {
  helper();
  helper();
  helper();
}
`)

	files := []codemodel.File{{Path: "a.js", Ext: ".js", Size: 120}}
	res := Build(dir, files, langFor, nil, Config{})

	if res.IncomingCalls["function:a.js#helper"] != 1 {
		t.Fatalf("expected a.js#helper incoming-call count deduplicated to 1 distinct caller, got %d", res.IncomingCalls["function:a.js#helper"])
	}
}

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
