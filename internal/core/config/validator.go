package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateResolve(cfg *Config) error {
	for _, ext := range cfg.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("resolve.extensions: %q must start with a dot", ext)
		}
	}
	for _, ext := range cfg.Resolve.StyleExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("resolve.style_extensions: %q must start with a dot", ext)
		}
	}
	for _, field := range cfg.Resolve.MainFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("resolve.main_fields must not contain empty names")
		}
	}
	for _, name := range cfg.Resolve.Externals {
		if strings.TrimSpace(name) == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/") {
			return fmt.Errorf("resolve.externals: %q is not a package name", name)
		}
	}
	return nil
}

func validateTransform(cfg *Config) error {
	switch cfg.Transform.ShadowPolicy {
	case "bindings", "params":
	default:
		return fmt.Errorf("transform.shadow_policy must be one of: bindings, params")
	}
	for _, name := range cfg.Transform.TrackedNames {
		if !isIdentifier(name) {
			return fmt.Errorf("transform.tracked_names: %q is not an identifier", name)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, pattern := range append(append([]string(nil), cfg.Exclude.Dirs...), cfg.Exclude.Files...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.Workers > 256 {
		return fmt.Errorf("build.workers must be <= 256, got %d", cfg.Build.Workers)
	}
	switch cfg.Build.JSX {
	case "transform", "preserve":
	default:
		return fmt.Errorf("build.jsx must be one of: transform, preserve")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1")
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.IsEnabled() && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateLog(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be one of: debug, info, warn, error")
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
