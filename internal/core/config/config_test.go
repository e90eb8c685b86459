package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"modlink/internal/core/errors"
)

func TestLoad(t *testing.T) {
	content := `
project_root = "./app"
out_dir = "build"

[resolve]
externals = ["react", "@mtfe/msc-rlist"]
global_modules_dir = "/usr/lib/node_modules"
builtins_external = false

[transform]
shadow_policy = "params"

[exclude]
dirs = ["vendor"]
files = ["*.spec.js"]

[build]
workers = 2
write_output = false
minify = true

[watch]
debounce = "1s"

[db]
enabled = false

[log]
level = "debug"
`
	path := filepath.Join(t.TempDir(), "modlink.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ProjectRoot != "./app" || cfg.OutDir != "build" {
		t.Errorf("unexpected paths %q %q", cfg.ProjectRoot, cfg.OutDir)
	}
	if !reflect.DeepEqual(cfg.Resolve.Externals, []string{"react", "@mtfe/msc-rlist"}) {
		t.Errorf("unexpected externals %v", cfg.Resolve.Externals)
	}
	if cfg.Resolve.BuiltinsAreExternal() {
		t.Error("expected builtins_external = false")
	}
	if cfg.Transform.ShadowPolicy != "params" {
		t.Errorf("expected params policy, got %q", cfg.Transform.ShadowPolicy)
	}
	if !reflect.DeepEqual(cfg.Exclude.Dirs, []string{"vendor"}) {
		t.Errorf("explicit exclude dirs must replace defaults, got %v", cfg.Exclude.Dirs)
	}
	if cfg.Build.Workers != 2 || cfg.Build.WritesOutput() || !cfg.Build.Minify {
		t.Errorf("unexpected build section %+v", cfg.Build)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.DB.IsEnabled() {
		t.Error("expected db to be disabled")
	}
	// Untouched sections keep their defaults.
	if !reflect.DeepEqual(cfg.Resolve.MainFields, []string{"main"}) {
		t.Errorf("expected default main fields, got %v", cfg.Resolve.MainFields)
	}
	if cfg.Watch.Rate != 5 || cfg.Watch.Burst != 10 {
		t.Errorf("unexpected watch defaults %+v", cfg.Watch)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 || cfg.ProjectRoot != "." || cfg.OutDir != "dist" {
		t.Fatalf("unexpected top-level defaults %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Resolve.Extensions, []string{".js", ".ts", ".tsx", ".jsx", ".json"}) {
		t.Errorf("unexpected extensions %v", cfg.Resolve.Extensions)
	}
	if !cfg.Resolve.BuiltinsAreExternal() {
		t.Error("expected builtins to be external by default")
	}
	if cfg.Transform.ShadowPolicy != "bindings" {
		t.Errorf("expected bindings policy, got %q", cfg.Transform.ShadowPolicy)
	}
	if !reflect.DeepEqual(cfg.Transform.TrackedNames, []string{"require"}) {
		t.Errorf("unexpected tracked names %v", cfg.Transform.TrackedNames)
	}
	if !reflect.DeepEqual(cfg.Exclude.Dirs, []string{"node_modules", ".git", "dist"}) {
		t.Errorf("unexpected exclude dirs %v", cfg.Exclude.Dirs)
	}
	if cfg.Build.Workers != 4 || !cfg.Build.WritesOutput() || cfg.Build.JSX != "transform" {
		t.Errorf("unexpected build defaults %+v", cfg.Build)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if !cfg.DB.IsEnabled() || cfg.DB.Path != "data/modlink.db" || cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("unexpected db defaults %+v", cfg.DB)
	}
	if cfg.Observability.ServiceName != "modlink" || cfg.Log.Level != "info" {
		t.Errorf("unexpected observability/log defaults")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "version = ["},
		{"unknown key", "unknown_key = 1"},
		{"unsupported version", "version = 3"},
		{"bad policy", "[transform]\nshadow_policy = \"everything\""},
		{"bad tracked name", "[transform]\ntracked_names = [\"re-quire\"]"},
		{"bad extension", "[resolve]\nextensions = [\"js\"]"},
		{"relative external", "[resolve]\nexternals = [\"./local\"]"},
		{"bad glob", "[exclude]\ndirs = [\"[\"]"},
		{"bad jsx", "[build]\njsx = \"react\""},
		{"automatic jsx runtime", "[build]\njsx = \"automatic\""},
		{"too many workers", "[build]\nworkers = 1000"},
		{"bad log level", "[log]\nlevel = \"trace\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MODLINK_BUILD_WORKERS", "7")
	t.Setenv("MODLINK_RESOLVE_EXTERNALS", "react, vue ,")
	t.Setenv("MODLINK_WATCH_DEBOUNCE", "250ms")
	t.Setenv("MODLINK_BUILD_MINIFY", "TRUE")
	t.Setenv("MODLINK_DB_BUSY_TIMEOUT", "not-a-duration")

	cfg, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Build.Workers != 7 {
		t.Errorf("expected 7 workers, got %d", cfg.Build.Workers)
	}
	if !reflect.DeepEqual(cfg.Resolve.Externals, []string{"react", "vue"}) {
		t.Errorf("unexpected externals %v", cfg.Resolve.Externals)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if !cfg.Build.Minify {
		t.Error("expected minify override")
	}
	if cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("invalid override must be ignored, got %v", cfg.DB.BusyTimeout)
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modlink.toml")
	if err := os.WriteFile(path, []byte("out_dir = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	w.debounce = 10 * time.Millisecond
	if err := w.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("out_dir = \"b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.OutDir != "b" {
			t.Fatalf("expected reloaded out_dir b, got %q", cfg.OutDir)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
