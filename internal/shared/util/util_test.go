package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"/b.js": 2, "/a.js": 1, "/node_modules/x/index.js": 3}
	keys := SortedStringKeys(m)
	expected := []string{"/a.js", "/b.js", "/node_modules/x/index.js"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
	if got := SortedStringKeys(map[string]bool{}); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dist", "src", "index.js")

	for _, content := range []string{"module.exports = 1;\n", "module.exports = 2;\n"} {
		if err := WriteFileWithDirs(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(got) != content {
			t.Fatalf("expected %q, got %q", content, string(got))
		}
	}
}
