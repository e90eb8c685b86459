package config

import (
	"time"
)

type Config struct {
	Version       int                 `toml:"version"`
	ProjectRoot   string              `toml:"project_root"`
	OutDir        string              `toml:"out_dir"`
	Resolve       Resolve             `toml:"resolve"`
	Transform     Transform           `toml:"transform"`
	Languages     map[string]Language `toml:"languages"`
	Exclude       Exclude             `toml:"exclude"`
	Build         Build               `toml:"build"`
	Watch         Watch               `toml:"watch"`
	DB            Database            `toml:"db"`
	Observability Observability       `toml:"observability"`
	Log           Log                 `toml:"log"`
}

type Resolve struct {
	Extensions       []string `toml:"extensions"`
	MainFields       []string `toml:"main_fields"`
	GlobalModulesDir string   `toml:"global_modules_dir"`
	Externals        []string `toml:"externals"`
	BuiltinsExternal *bool    `toml:"builtins_external"`
	StyleExtensions  []string `toml:"style_extensions"`
}

type Transform struct {
	ShadowPolicy string   `toml:"shadow_policy"`
	TrackedNames []string `toml:"tracked_names"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Build struct {
	Workers     int    `toml:"workers"`
	WriteOutput *bool  `toml:"write_output"`
	JSX         string `toml:"jsx"`
	Minify      bool   `toml:"minify"`
	Target      string `toml:"target"`
	// CacheEntries bounds the file-system probe cache.
	CacheEntries int `toml:"cache_entries"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"`
	Burst    int           `toml:"burst"`
}

type Database struct {
	Enabled     *bool         `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

type Log struct {
	Level string `toml:"level"`
}

func (r Resolve) BuiltinsAreExternal() bool {
	return r.BuiltinsExternal == nil || *r.BuiltinsExternal
}

func (b Build) WritesOutput() bool {
	return b.WriteOutput == nil || *b.WriteOutput
}

func (d Database) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}
