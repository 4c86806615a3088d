package snippet

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadReturnsFullSmallFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "package main\n\nfunc main() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Read(dir, "main.go", 4096)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Content != content || s.Truncated {
		t.Fatalf("unexpected snippet: %+v", s)
	}
}

func TestReadTruncatesAtMaxBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := make([]byte, 5000)
	for i := range content {
		content[i] = 'a'
	}
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Read(dir, "big.txt", minMaxBytes)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !s.Truncated || len(s.Content) != minMaxBytes {
		t.Fatalf("expected truncation at %d bytes, got len=%d truncated=%v", minMaxBytes, len(s.Content), s.Truncated)
	}
}

func TestReadRejectsPathEscapingRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Read(dir, "../../etc/passwd", 4096); err == nil {
		t.Fatal("expected an error for a path escaping root")
	}
}

func TestReadClampsMaxBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Read(dir, "f.txt", 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Content != "hello" {
		t.Fatalf("expected maxBytes clamped up to minimum, got %+v", s)
	}
}
