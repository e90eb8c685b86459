package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modlink/internal/core/config"
	"modlink/internal/core/watcher"
	"modlink/internal/engine/fs"
	"modlink/internal/engine/resolver"
	"modlink/internal/shared/observability"
)

// Watch builds the project, then rebuilds changed files and their
// dependents until ctx is done. When configPath is set the configuration
// is reloaded on change and a full build follows.
func (a *App) Watch(ctx context.Context, configPath string) error {
	if _, err := a.Build(ctx); err != nil {
		slog.Warn("initial build has failures", "error", err)
	}

	cfg := a.Config()
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, a.pipe.Load().filter, func(paths []string) {
		if _, err := a.HandleChanges(ctx, paths); err != nil {
			slog.Warn("rebuild has failures", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch([]string{a.Paths.ProjectRoot}); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", a.Paths.ProjectRoot)

	if configPath != "" {
		cw := config.NewWatcher(configPath, func(next *config.Config) {
			if err := a.Reconfigure(next); err != nil {
				slog.Error("config reload rejected", "error", err)
				return
			}
			w.SetDebounce(next.Watch.Debounce)
			w.SetFilter(a.pipe.Load().filter)
			if _, err := a.Build(ctx); err != nil {
				slog.Warn("rebuild after config change has failures", "error", err)
			}
		})
		if err := cw.Start(ctx); err != nil {
			return err
		}
		defer cw.Stop()
	}

	<-ctx.Done()
	return nil
}

// HandleChanges rebuilds the given absolute paths, every module that
// requires them, and every file that failed before. Removed files are
// dropped from the graph and the output directory.
func (a *App) HandleChanges(ctx context.Context, paths []string) (*BuildResult, error) {
	if err := a.limiter.Wait(ctx, 1); err != nil {
		return nil, err
	}
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "app.HandleChanges",
		trace.WithAttributes(attribute.Int("changed", len(paths))))
	defer span.End()

	started := time.Now()
	pipe := a.pipe.Load()
	result := &BuildResult{ID: uuid.NewString()}

	queue := make(map[string]bool)
	for _, abs := range paths {
		pipe.fsys.Invalidate(fs.ToSlash(abs))

		rel, err := a.relative(abs)
		if err != nil || pipe.filter.InExcludedDir(a.Paths.ProjectRoot, abs) || !pipe.filter.Include(abs) {
			continue
		}
		modulePath := resolver.CanonicalPath(rel)

		info, err := os.Stat(abs)
		switch {
		case err != nil || info.IsDir():
			if n, ok := a.Graph.Node(modulePath); ok && n.Source == rel {
				slog.Info("module removed", "path", modulePath)
				a.forget(modulePath)
			}
			a.mu.Lock()
			delete(a.failed, abs)
			a.mu.Unlock()
		case a.unchanged(modulePath, abs):
			continue
		default:
			queue[abs] = true
		}

		// Dependents re-resolve: the file they found may have moved.
		for _, dep := range a.Graph.Dependents(modulePath) {
			if n, ok := a.Graph.Node(dep); ok {
				queue[a.absolute(n.Source)] = true
			}
		}
	}

	// A new or fixed file may be what an earlier failure was missing.
	a.mu.Lock()
	for abs := range a.failed {
		if _, err := os.Stat(abs); err == nil {
			queue[abs] = true
		} else {
			delete(a.failed, abs)
		}
	}
	a.mu.Unlock()

	files := make([]string, 0, len(queue))
	for abs := range queue {
		files = append(files, abs)
	}
	sort.Strings(files)
	if len(files) == 0 && len(paths) > 0 {
		slog.Debug("no rebuild needed", "changed", len(paths))
	}

	if err := a.process(ctx, files, result); err != nil {
		return nil, err
	}
	a.finish(ctx, result, started, "incremental")
	return result, result.Err()
}

// unchanged reports whether abs still has the content last built.
func (a *App) unchanged(modulePath, abs string) bool {
	a.mu.Lock()
	prev, ok := a.hashes[modulePath]
	_, failed := a.failed[abs]
	a.mu.Unlock()
	if !ok || failed {
		return false
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return false
	}
	return contentHash(src) == prev
}

func (a *App) absolute(rel string) string {
	return filepath.Join(a.Paths.ProjectRoot, filepath.FromSlash(rel))
}
