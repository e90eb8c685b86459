package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modlink/internal/shared/util"
)

func jsFilter(t *testing.T) *util.PathFilter {
	t.Helper()
	f, err := util.NewPathFilter([]string{"node_modules", "dist"}, []string{"*.d.ts"}, []string{".js", ".ts", ".tsx", ".jsx", ".json"})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func waitFor(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, jsFilter(t), nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
	if _, err := NewWatcher(100*time.Millisecond, nil, func([]string) {}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid for nil filter, got %v", err)
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "index.js")
	if err := os.WriteFile(testFile, []byte("require('./a')"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	for _, name := range []string{"style.css", "types.d.ts"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if base := filepath.Base(p); base == "style.css" || base == "types.d.ts" {
				t.Errorf("excluded file %s triggered a change", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	// New directories are watched and their existing files reported.
	subdir := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "view.tsx")
	if err := os.WriteFile(subFile, []byte("export {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_SkipsExcludedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	modules := filepath.Join(tmpDir, "node_modules", "react")
	if err := os.MkdirAll(modules, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(modules, "index.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("unexpected change inside node_modules: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.js")
	newPath := filepath.Join(tmpDir, "new.js")
	if err := os.WriteFile(oldPath, []byte("module.exports = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, newPath, 2*time.Second)
}

func TestWatcher_DebounceBatchesSorted(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(time.Hour, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	b := filepath.Join(tmpDir, "b.js")
	a := filepath.Join(tmpDir, "a.js")
	w.scheduleChange(b)
	w.scheduleChange(a)
	w.scheduleChange(b)
	w.flushChanges()

	select {
	case paths := <-changedFiles:
		if len(paths) != 2 || paths[0] != a || paths[1] != b {
			t.Fatalf("expected sorted batch [%s %s], got %v", a, b, paths)
		}
	default:
		t.Fatal("expected a batch after flush")
	}
}
