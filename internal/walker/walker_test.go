package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phobologic/codemap/internal/codemodel"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWalkSkipsIgnoredDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = {}")
	writeFile(t, dir, "vendor/lib.go", "package lib")

	res, err := Walk(dir, Config{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(res.Files) != 1 || res.Files[0].Path != "main.go" {
		t.Fatalf("expected only main.go, got %+v", res.Files)
	}
}

func TestWalkTruncatesAtMaxEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, dir, filepath.Join("pkg", itoa(i)+".go"), "package pkg")
	}

	res, err := Walk(dir, Config{MaxEntries: 3})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if !res.Truncated {
		t.Fatal("expected truncated=true")
	}
	if len(res.Files)+len(res.Directories) != 3 {
		t.Fatalf("expected exactly 3 entries, got %d files + %d dirs", len(res.Files), len(res.Directories))
	}

	foundLimit := false
	for _, w := range res.Warnings {
		if w.Type == codemodel.WarningLimitReached {
			foundLimit = true
		}
	}
	if !foundLimit {
		t.Fatal("expected a limit-reached warning")
	}
}

func TestWalkRootMustBeDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "file.txt", "x")

	_, err := Walk(filepath.Join(dir, "file.txt"), Config{})
	if err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestBuildTreeSortsDirsBeforeFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "z.go", "package main")
	writeFile(t, dir, "a/b.go", "package a")

	res, err := Walk(dir, Config{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	tree := BuildTree(res)
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if !tree.Children[0].IsDir || tree.Children[0].Name != "a" {
		t.Fatalf("expected directory 'a' first, got %+v", tree.Children[0])
	}
	if tree.Children[1].IsDir || tree.Children[1].Name != "z.go" {
		t.Fatalf("expected file 'z.go' second, got %+v", tree.Children[1])
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}
