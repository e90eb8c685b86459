package config

import (
	"path/filepath"
	"testing"
)

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.ProjectRoot = "web"
	cfg.Resolve.GlobalModulesDir = "/opt/node_modules"

	paths, err := ResolvePaths(cfg, base)
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(base, "web")
	if paths.ProjectRoot != root {
		t.Errorf("project root = %q, want %q", paths.ProjectRoot, root)
	}
	if paths.OutDir != filepath.Join(root, "dist") {
		t.Errorf("out dir = %q", paths.OutDir)
	}
	if paths.DBPath != filepath.Join(root, "data", "modlink.db") {
		t.Errorf("db path = %q", paths.DBPath)
	}
	if paths.GlobalDir != "/opt/node_modules" {
		t.Errorf("global dir = %q", paths.GlobalDir)
	}
}

func TestResolvePaths_RejectsOutDirAtRoot(t *testing.T) {
	cfg := Default()
	cfg.OutDir = "."
	if _, err := ResolvePaths(cfg, t.TempDir()); err == nil {
		t.Fatal("expected out_dir equal to the project root to be rejected")
	}
}

func TestResolveRelative(t *testing.T) {
	cases := []struct {
		base, value, want string
	}{
		{"/proj", "", "/proj"},
		{"/proj", "dist", "/proj/dist"},
		{"/proj", "../shared", "/shared"},
		{"/proj", "/abs/out", "/abs/out"},
	}
	for _, c := range cases {
		if got := ResolveRelative(c.base, c.value); got != filepath.FromSlash(c.want) {
			t.Errorf("ResolveRelative(%q, %q) = %q, want %q", c.base, c.value, got, c.want)
		}
	}
}
