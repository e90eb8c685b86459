package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modlink/internal/core/errors"
	"modlink/internal/data/manifest"
	"modlink/internal/engine/resolver"
	"modlink/internal/engine/transform"
	"modlink/internal/shared/observability"
	"modlink/internal/shared/util"
)

// ManifestFile is written to the output directory after every build.
const ManifestFile = "modlink.manifest.json"

// FileResult is one transformed and emitted source file.
type FileResult struct {
	// Source is the root-relative source name, e.g. "src/view.tsx".
	Source string
	// Path is the canonical module path, e.g. "/src/view.js".
	Path   string
	Output transform.Output
	// Code is the emitted JavaScript.
	Code []byte
	Hash string
}

// FileError is a source that failed to build.
type FileError struct {
	Source string
	Err    error
}

func (e FileError) Error() string { return e.Source + ": " + e.Err.Error() }
func (e FileError) Unwrap() error { return e.Err }

type BuildResult struct {
	ID       string
	Files    int
	Written  int
	Failures []FileError
	Cycles   [][]string
	Duration time.Duration
}

// Err joins the failures, or returns nil.
func (r *BuildResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return stderrors.Join(errs...)
}

// TransformFile rewrites and emits one source file. abs must lie inside the
// project root.
func (a *App) TransformFile(ctx context.Context, abs string) (FileResult, error) {
	pipe := a.pipe.Load()
	rel, err := a.relative(abs)
	if err != nil {
		return FileResult{}, err
	}

	_, span := observability.Tracer.Start(ctx, "app.TransformFile",
		trace.WithAttributes(attribute.String("path", rel)))
	defer span.End()

	src, err := os.ReadFile(abs)
	if err != nil {
		return FileResult{}, errors.AddContext(errors.Wrap(err, errors.CodeFileNotFound, "read source"), errors.CtxPath, rel)
	}
	res := FileResult{
		Source: rel,
		Path:   resolver.CanonicalPath(rel),
		Hash:   contentHash(src),
	}

	if pipe.assets[strings.ToLower(path.Ext(rel))] {
		res.Output = transform.Output{Code: string(src), Metadata: transform.Metadata{Requires: []string{}}}
		res.Code = src
		return res, nil
	}

	language := pipe.parser.GetLanguage(rel)
	started := time.Now()
	out, err := pipe.transformer.Transform(rel, src)
	observability.TransformDuration.WithLabelValues(language).Observe(time.Since(started).Seconds())
	if err != nil {
		observability.TransformFailuresTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		span.RecordError(err)
		return FileResult{}, err
	}
	recordStats(out)

	started = time.Now()
	code, err := pipe.emitter.Emit(rel, out.Code, out.Stats.LocalExports > 0)
	observability.EmitDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		observability.TransformFailuresTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		span.RecordError(err)
		return FileResult{}, err
	}

	res.Output = out
	res.Code = code
	span.SetAttributes(attribute.Int("requires", len(out.Metadata.Requires)))
	return res, nil
}

func recordStats(out transform.Output) {
	s := out.Stats
	for kind, n := range map[string]int{
		"file":      s.Files,
		"package":   s.Packages,
		"external":  s.Externals,
		"style":     s.Styles,
		"type_only": s.TypeOnly,
		"shadowed":  s.Shadowed,
	} {
		if n > 0 {
			observability.ResolutionsTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
	observability.RequiresPerFile.Observe(float64(len(out.Metadata.Requires)))
}

// Scan lists every buildable source under the project root, sorted.
func (a *App) Scan() ([]string, error) {
	pipe := a.pipe.Load()
	root := a.Paths.ProjectRoot
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (p == a.Paths.OutDir || pipe.filter.ExcludeDir(p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if pipe.filter.Include(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Build transforms every source under the project root. Failing files do not
// stop the build; they are listed in the result and joined into the error.
func (a *App) Build(ctx context.Context) (*BuildResult, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "app.Build")
	defer span.End()

	started := time.Now()
	a.pipe.Load().fsys.Purge()

	files, err := a.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", a.Paths.ProjectRoot, err)
	}

	result := &BuildResult{ID: uuid.NewString()}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if rel, err := a.relative(f); err == nil {
			seen[resolver.CanonicalPath(rel)] = true
		}
	}
	for _, p := range a.Graph.Files() {
		if !seen[p] {
			a.forget(p)
		}
	}

	a.mu.Lock()
	a.failed = make(map[string]error)
	a.mu.Unlock()

	if err := a.process(ctx, files, result); err != nil {
		return nil, err
	}

	a.finish(ctx, result, started, "full")
	span.SetAttributes(attribute.Int("files", result.Files), attribute.Int("failures", len(result.Failures)))
	return result, result.Err()
}

// process runs files through a worker pool and records the results.
func (a *App) process(ctx context.Context, files []string, result *BuildResult) error {
	workers := a.Config().Build.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	type outcome struct {
		abs string
		res FileResult
		err error
	}

	jobs := make(chan string)
	outcomes := make(chan outcome)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for abs := range jobs {
				res, err := a.TransformFile(ctx, abs)
				outcomes <- outcome{abs: abs, res: res, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var entries []manifest.Entry
	for o := range outcomes {
		if o.err != nil {
			rel, _ := a.relative(o.abs)
			result.Failures = append(result.Failures, FileError{Source: rel, Err: o.err})
			a.mu.Lock()
			a.failed[o.abs] = o.err
			a.mu.Unlock()
			slog.Warn("transform failed", "path", rel, "error", o.err)
			continue
		}

		a.mu.Lock()
		delete(a.failed, o.abs)
		a.hashes[o.res.Path] = o.res.Hash
		a.mu.Unlock()

		result.Files++
		a.Graph.AddFile(o.res.Path, o.res.Source, o.res.Output.Metadata.Requires)
		if a.Config().Build.WritesOutput() {
			if err := a.writeOutput(o.res); err != nil {
				result.Failures = append(result.Failures, FileError{Source: o.res.Source, Err: err})
				continue
			}
			result.Written++
		}
		entries = append(entries, manifest.Entry{
			Path:        o.res.Path,
			Source:      o.res.Source,
			Requires:    o.res.Output.Metadata.Requires,
			ContentHash: o.res.Hash,
			BuildID:     result.ID,
			BuiltAt:     time.Now(),
		})
	}
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Source < result.Failures[j].Source })

	if a.manifests != nil && len(entries) > 0 {
		if err := a.manifests.Save(a.Paths.ProjectRoot, entries); err != nil {
			slog.Warn("failed to persist manifests", "error", err)
		}
	}
	return ctx.Err()
}

// finish runs cycle detection and records the build summary.
func (a *App) finish(ctx context.Context, result *BuildResult, started time.Time, mode string) {
	_, span := observability.Tracer.Start(ctx, "app.DetectCycles")
	result.Cycles = a.Graph.DetectCycles()
	span.End()
	for _, cycle := range result.Cycles {
		slog.Warn("require cycle", "modules", strings.Join(cycle, " -> "))
	}

	result.Duration = time.Since(started)
	observability.BuildDuration.WithLabelValues(mode).Observe(result.Duration.Seconds())
	observability.ProbeCacheEntries.Set(float64(a.pipe.Load().fsys.Len()))

	if a.Config().Build.WritesOutput() {
		if err := a.writeManifestFile(); err != nil {
			slog.Warn("failed to write manifest file", "error", err)
		}
	}
	if a.manifests != nil {
		if err := a.manifests.SaveBuild(a.Paths.ProjectRoot, manifest.Build{
			ID:        result.ID,
			StartedAt: started,
			Duration:  result.Duration,
			Files:     result.Files,
			Failures:  len(result.Failures),
			Cycles:    len(result.Cycles),
		}); err != nil {
			slog.Warn("failed to record build", "error", err)
		}
	}

	slog.Info("build finished",
		"mode", mode,
		"id", result.ID,
		"files", result.Files,
		"written", result.Written,
		"failures", len(result.Failures),
		"cycles", len(result.Cycles),
		"duration", result.Duration)
}

func (a *App) writeOutput(res FileResult) error {
	return util.WriteFileWithDirs(a.outputPath(res.Path), res.Code, 0o644)
}

func (a *App) outputPath(modulePath string) string {
	return filepath.Join(a.Paths.OutDir, filepath.FromSlash(strings.TrimPrefix(modulePath, "/")))
}

// writeManifestFile dumps every module's requires as JSON next to the
// emitted code.
func (a *App) writeManifestFile() error {
	modules := make(map[string][]string)
	for _, p := range a.Graph.Files() {
		reqs := a.Graph.Requires(p)
		if reqs == nil {
			reqs = []string{}
		}
		modules[p] = reqs
	}
	data, err := json.MarshalIndent(struct {
		Modules map[string][]string `json:"modules"`
	}{modules}, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(filepath.Join(a.Paths.OutDir, ManifestFile), append(data, '\n'), 0o644)
}

// forget drops a module from the graph, the output directory and the store.
func (a *App) forget(modulePath string) {
	a.Graph.RemoveFile(modulePath)
	a.mu.Lock()
	delete(a.hashes, modulePath)
	a.mu.Unlock()
	if a.Config().Build.WritesOutput() {
		if err := os.Remove(a.outputPath(modulePath)); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove stale output", "path", modulePath, "error", err)
		}
	}
	if a.manifests != nil {
		if err := a.manifests.Delete(a.Paths.ProjectRoot, modulePath); err != nil {
			slog.Warn("failed to delete manifest", "path", modulePath, "error", err)
		}
	}
}

// relative returns abs as a slash-separated path relative to the root.
func (a *App) relative(abs string) (string, error) {
	rel, err := filepath.Rel(a.Paths.ProjectRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "file is outside the project root"), errors.CtxPath, abs)
	}
	return filepath.ToSlash(rel), nil
}

func contentHash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}
