package watchrun

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherTriggersOnChangeAfterDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var calls int32
	w, err := New(dir, 50*time.Millisecond, nil, func() {
		atomic.AddInt32(&calls, 1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	go w.Run()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&calls) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected onChange to fire after a file write")
}

func TestWatcherSkipsExcludedDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	excluded := filepath.Join(dir, "node_modules")
	if err := os.MkdirAll(excluded, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var calls int32
	w, err := New(dir, 50*time.Millisecond, []string{"node_modules"}, func() {
		atomic.AddInt32(&calls, 1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	go w.Run()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(excluded, "pkg.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no onChange for a write under an excluded directory, got %d calls", calls)
	}
}
