// Package app wires configuration, the transform pipeline, the module
// graph and the manifest store into full builds, single-file transforms
// and watch mode.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"modlink/internal/core/config"
	"modlink/internal/data/manifest"
	"modlink/internal/engine/graph"
	"modlink/internal/shared/util"
)

type App struct {
	Paths config.ResolvedPaths
	Graph *graph.Graph

	base string

	pipe      atomic.Pointer[pipeline]
	manifests *manifest.Store
	limiter   *util.Limiter

	// buildMu serialises builds and incremental rebuilds.
	buildMu sync.Mutex

	mu     sync.Mutex
	failed map[string]error  // absolute source path -> last failure
	hashes map[string]string // module path -> content hash of its source
}

// New prepares an App. Relative paths in cfg are taken from base, normally
// the directory holding the config file.
func New(cfg *config.Config, base string) (*App, error) {
	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, err
	}
	pipe, err := newPipeline(cfg, paths)
	if err != nil {
		return nil, err
	}

	a := &App{
		Paths:   paths,
		base:    base,
		Graph:   graph.New(),
		limiter: util.NewLimiter(cfg.Watch.Rate, cfg.Watch.Burst),
		failed:  make(map[string]error),
		hashes:  make(map[string]string),
	}
	a.pipe.Store(pipe)

	if cfg.DB.IsEnabled() {
		store, err := manifest.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open manifest store: %w", err)
		}
		a.manifests = store
	}

	slog.Debug("app ready",
		"root", paths.ProjectRoot,
		"out_dir", paths.OutDir,
		"manifests", a.manifests != nil)
	return a, nil
}

// Config returns the configuration currently in effect.
func (a *App) Config() *config.Config {
	return a.pipe.Load().cfg
}

// Reconfigure swaps in a new configuration. The project root and output
// directory cannot change while running.
func (a *App) Reconfigure(cfg *config.Config) error {
	paths, err := config.ResolvePaths(cfg, a.base)
	if err != nil {
		return err
	}
	if paths.ProjectRoot != a.Paths.ProjectRoot || paths.OutDir != a.Paths.OutDir {
		return fmt.Errorf("project_root and out_dir cannot change without a restart")
	}

	pipe, err := newPipeline(cfg, paths)
	if err != nil {
		return err
	}
	a.pipe.Store(pipe)
	a.limiter.SetRate(cfg.Watch.Rate, cfg.Watch.Burst)
	slog.Info("configuration reloaded")
	return nil
}

// Failures returns the sources that failed in the most recent build or
// rebuild, keyed by absolute path.
func (a *App) Failures() map[string]error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]error, len(a.failed))
	for k, v := range a.failed {
		out[k] = v
	}
	return out
}

func (a *App) Close() error {
	if a.manifests != nil {
		return a.manifests.Close()
	}
	return nil
}
