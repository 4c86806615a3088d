package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
)

func langFor(ext string) string {
	switch ext {
	case ".go":
		return "go"
	case ".js":
		return "javascript"
	default:
		return ""
	}
}

func TestAnalyzeComplexityAndLongFunction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("package util\n\nfunc big() {\n")
	for i := 0; i < 120; i++ {
		if i%4 == 0 {
			b.WriteString("\tif x {\n\t}\n")
		} else {
			b.WriteString("\t_ = 1\n")
		}
	}
	b.WriteString("}\n")
	content := b.String()

	if err := os.WriteFile(filepath.Join(dir, "util.go"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lineCount := len(strings.Split(content, "\n"))
	files := []codemodel.File{{Path: "util.go", Ext: ".go", Size: int64(len(content))}}

	res := Analyze(dir, files, langFor, Config{})

	fm, ok := res.Files["util.go"]
	if !ok {
		t.Fatal("missing metrics for util.go")
	}
	if fm.LineCount == nil || *fm.LineCount != lineCount {
		t.Fatalf("lineCount = %v, want %d", fm.LineCount, lineCount)
	}
	if fm.ComplexityScore == nil || *fm.ComplexityScore <= 0 {
		t.Fatalf("expected positive complexity, got %v", fm.ComplexityScore)
	}
}

func TestAnalyzeSkipsOversizeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "huge.go")
	if err := os.WriteFile(path, []byte("package huge"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files := []codemodel.File{{Path: "huge.go", Ext: ".go", Size: DefaultMaxFileSize + 1}}
	res := Analyze(dir, files, langFor, Config{})

	fm := res.Files["huge.go"]
	if !fm.Skipped {
		t.Fatal("expected file to be skipped")
	}

	found := false
	for _, issue := range res.Issues {
		if issue.Type == "file-too-large" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a file-too-large issue")
	}
}

func TestAnalyzeTodoComments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "package x\n// TODO: fix this\nfunc y() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files := []codemodel.File{{Path: "x.go", Ext: ".go", Size: int64(len(content))}}
	res := Analyze(dir, files, langFor, Config{})

	if res.Files["x.go"].TODOCount != 1 {
		t.Fatalf("TODOCount = %d, want 1", res.Files["x.go"].TODOCount)
	}
}
