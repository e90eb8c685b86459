package util

import (
	"path/filepath"
	"testing"
)

func TestPathFilter(t *testing.T) {
	f, err := NewPathFilter([]string{"node_modules", ".*"}, []string{"*.d.ts", "*.min.js"}, []string{".js", "ts", ".TSX"})
	if err != nil {
		t.Fatal(err)
	}

	dirs := map[string]bool{
		"/p/node_modules": true,
		"/p/.git":         true,
		"/p/src":          false,
	}
	for path, want := range dirs {
		if got := f.ExcludeDir(path); got != want {
			t.Errorf("ExcludeDir(%q) = %v, want %v", path, got, want)
		}
	}

	files := map[string]bool{
		"/p/a.js":         true,
		"/p/b.ts":         true,
		"/p/View.tsx":     true,
		"/p/UPPER.JS":     true,
		"/p/types.d.ts":   false,
		"/p/vendor.min.js": false,
		"/p/style.css":    false,
		"/p/README":       false,
	}
	for path, want := range files {
		if got := f.Include(path); got != want {
			t.Errorf("Include(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPathFilter_InExcludedDir(t *testing.T) {
	f, err := NewPathFilter([]string{"node_modules", "dist"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.FromSlash("/p")
	cases := map[string]bool{
		"/p/a.js":                       false,
		"/p/src/a.js":                   false,
		"/p/dist/a.js":                  true,
		"/p/src/node_modules/x/index.js": true,
		"/other/a.js":                   false,
	}
	for path, want := range cases {
		if got := f.InExcludedDir(root, filepath.FromSlash(path)); got != want {
			t.Errorf("InExcludedDir(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPathFilter_EmptyExtensionsAcceptAll(t *testing.T) {
	f, err := NewPathFilter(nil, []string{"*.tmp"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Include("notes.txt") || f.Include("x.tmp") {
		t.Error("unexpected filter result")
	}
}

func TestPathFilter_BadPattern(t *testing.T) {
	if _, err := NewPathFilter([]string{"[unclosed"}, nil, nil); err == nil {
		t.Fatal("expected glob compile error")
	}
}
