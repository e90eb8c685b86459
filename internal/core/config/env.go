package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MODLINK_[SECTION]_[KEY] (e.g., MODLINK_BUILD_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectRoot, "MODLINK_PROJECT_ROOT")
	setEnvString(&cfg.OutDir, "MODLINK_OUT_DIR")

	// Resolve
	setEnvString(&cfg.Resolve.GlobalModulesDir, "MODLINK_RESOLVE_GLOBAL_MODULES_DIR")
	setEnvList(&cfg.Resolve.Externals, "MODLINK_RESOLVE_EXTERNALS")

	// Transform
	setEnvString(&cfg.Transform.ShadowPolicy, "MODLINK_TRANSFORM_SHADOW_POLICY")

	// Build
	setEnvInt(&cfg.Build.Workers, "MODLINK_BUILD_WORKERS")
	setEnvBool(&cfg.Build.Minify, "MODLINK_BUILD_MINIFY")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "MODLINK_WATCH_DEBOUNCE")

	// Database
	setEnvString(&cfg.DB.Path, "MODLINK_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "MODLINK_DB_BUSY_TIMEOUT")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "MODLINK_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MODLINK_OBSERVABILITY_OTLP_ENDPOINT")

	setEnvString(&cfg.Log.Level, "MODLINK_LOG_LEVEL")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
