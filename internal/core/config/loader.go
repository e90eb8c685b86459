package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"modlink/internal/core/errors"
)

// DefaultFile is looked up in the working directory when no -config is given.
const DefaultFile = "modlink.toml"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes TOML, applies defaults and environment overrides, and
// validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, errors.New(errors.CodeValidationError, "unknown config keys: "+strings.Join(keys, ", "))
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	validators := []func(*Config) error{
		validateVersion,
		validateResolve,
		validateTransform,
		validateExclude,
		validateBuild,
		validateWatch,
		validateDatabase,
		validateLog,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		cfg.OutDir = "dist"
	}

	if len(cfg.Resolve.Extensions) == 0 {
		cfg.Resolve.Extensions = []string{".js", ".ts", ".tsx", ".jsx", ".json"}
	}
	if len(cfg.Resolve.MainFields) == 0 {
		cfg.Resolve.MainFields = []string{"main"}
	}
	if cfg.Resolve.StyleExtensions == nil {
		cfg.Resolve.StyleExtensions = []string{".css", ".scss", ".sass", ".less"}
	}

	if strings.TrimSpace(cfg.Transform.ShadowPolicy) == "" {
		cfg.Transform.ShadowPolicy = "bindings"
	}
	if len(cfg.Transform.TrackedNames) == 0 {
		cfg.Transform.TrackedNames = []string{"require"}
	}

	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{"node_modules", ".git", filepath.Base(filepath.Clean(cfg.OutDir))}
	}
	if cfg.Exclude.Files == nil {
		cfg.Exclude.Files = []string{"*.d.ts", "*.min.js"}
	}

	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = 4
	}
	if strings.TrimSpace(cfg.Build.JSX) == "" {
		cfg.Build.JSX = "transform"
	}
	if strings.TrimSpace(cfg.Build.Target) == "" {
		cfg.Build.Target = "esnext"
	}
	if cfg.Build.CacheEntries <= 0 {
		cfg.Build.CacheEntries = 8192
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 5
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 10
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "data/modlink.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "modlink"
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}
