// Package cli implements the modlink command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"modlink/internal/core/app"
	"modlink/internal/core/config"
	"modlink/internal/shared/observability"
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "modlink v%s\n", versionString)
		return 0
	}
	if err := validateCommand(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	configureLogging(stderr, cfg.Log.Level, opts.verbose)

	base := cwd
	if cfgPath != "" {
		base = filepath.Dir(cfgPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := app.New(cfg, base)
	if err != nil {
		slog.Error("failed to initialise app", "error", err)
		return 1
	}
	defer a.Close()

	switch opts.command {
	case "file":
		return runFile(ctx, a, opts.args[0], stdout)
	case "build":
		return runBuild(ctx, a, stdout)
	case "graph":
		return runGraph(ctx, a, opts, stdout)
	case "watch":
		return runWatch(ctx, a, cfgPath)
	}
	return 2
}

func runFile(ctx context.Context, a *app.App, path string, stdout io.Writer) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		slog.Error("invalid path", "path", path, "error", err)
		return 1
	}
	res, err := a.TransformFile(ctx, abs)
	if err != nil {
		slog.Error("transform failed", "path", path, "error", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Output); err != nil {
		slog.Error("failed to write output", "error", err)
		return 1
	}
	return 0
}

func runBuild(ctx context.Context, a *app.App, stdout io.Writer) int {
	result, err := a.Build(ctx)
	if result == nil {
		slog.Error("build failed", "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "%d modules built, %d written, %d failed, %d cycles in %s\n",
		result.Files, result.Written, len(result.Failures), len(result.Cycles),
		result.Duration.Round(time.Millisecond))
	for _, f := range result.Failures {
		fmt.Fprintf(stdout, "  %s: %v\n", f.Source, f.Err)
	}
	if err != nil {
		return 1
	}
	return 0
}

func runGraph(ctx context.Context, a *app.App, opts cliOptions, stdout io.Writer) int {
	result, err := a.Build(ctx)
	if result == nil {
		slog.Error("build failed", "error", err)
		return 1
	}
	if err != nil {
		slog.Warn("graph is incomplete", "failed", len(result.Failures))
	}

	if opts.trace {
		chain, ok := a.Graph.FindImportChain(opts.args[0], opts.args[1])
		if !ok {
			fmt.Fprintf(stdout, "no require chain from %s to %s\n", opts.args[0], opts.args[1])
			return 1
		}
		fmt.Fprintln(stdout, strings.Join(chain, " -> "))
		return 0
	}

	cycles := a.Graph.DetectCycles()
	if opts.format == "dot" {
		fmt.Fprint(stdout, a.Graph.DOT(cycles))
		return 0
	}
	for _, path := range a.Graph.Files() {
		reqs := a.Graph.Requires(path)
		if len(reqs) == 0 {
			fmt.Fprintln(stdout, path)
			continue
		}
		fmt.Fprintf(stdout, "%s -> %s\n", path, strings.Join(reqs, ", "))
	}
	for _, cycle := range cycles {
		fmt.Fprintf(stdout, "cycle: %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
	}
	return 0
}

func runWatch(ctx context.Context, a *app.App, cfgPath string) int {
	cfg := a.Config()
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		srv := observability.NewServer(addr, app.NewHealthService(a))
		bound, err := srv.Start()
		if err != nil {
			slog.Error("failed to start observability server", "addr", addr, "error", err)
			return 1
		}
		slog.Info("observability server listening", "addr", bound)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	if err := a.Watch(ctx, cfgPath); err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig reads path. A missing default config file falls back to the
// built-in defaults; the returned path is then empty.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if errors.Is(err, fs.ErrNotExist) && filepath.Base(path) == config.DefaultFile {
		slog.Debug("no config file found, using defaults", "path", path)
		return config.Default(), "", nil
	}
	return nil, "", err
}

func configureLogging(output io.Writer, level string, verbose bool) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
