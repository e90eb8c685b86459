package resolver

import (
	"path"
	"strings"
)

// Class decides what the collector does with a specifier before resolution.
type Class uint8

const (
	// ClassModule specifiers are resolved, collected and rewritten.
	ClassModule Class = iota
	// ClassExternal specifiers are provided by the runtime and left as written.
	ClassExternal
	// ClassStyle specifiers name stylesheets handled outside the JS graph.
	ClassStyle
)

func (c Class) String() string {
	switch c {
	case ClassExternal:
		return "external"
	case ClassStyle:
		return "style"
	}
	return "module"
}

type Classifier struct {
	externals map[string]bool
	builtins  bool
	styles    map[string]bool
}

func NewClassifier(externals []string, builtinsExternal bool, styleExtensions []string) *Classifier {
	c := &Classifier{
		externals: make(map[string]bool, len(externals)),
		builtins:  builtinsExternal,
		styles:    make(map[string]bool, len(styleExtensions)),
	}
	for _, name := range externals {
		if name = strings.TrimSpace(name); name != "" {
			c.externals[name] = true
		}
	}
	for _, ext := range styleExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.styles[ext] = true
	}
	return c
}

func (c *Classifier) Classify(specifier string) Class {
	clean := specifier
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	if c.styles[strings.ToLower(path.Ext(clean))] {
		return ClassStyle
	}
	if strings.HasPrefix(specifier, "/") || IsRelative(specifier) {
		return ClassModule
	}
	if strings.HasPrefix(specifier, "node:") {
		return ClassExternal
	}
	if c.externals[specifier] {
		return ClassExternal
	}
	if name, _ := SplitPackage(specifier); c.externals[name] {
		return ClassExternal
	}
	if c.builtins && isNodeBuiltin(specifier) {
		return ClassExternal
	}
	return ClassModule
}

// nodeBuiltinModules are the top-level Node.js core modules.
var nodeBuiltinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// isNodeBuiltin accepts subpaths such as "fs/promises".
func isNodeBuiltin(specifier string) bool {
	name, _, _ := strings.Cut(specifier, "/")
	return nodeBuiltinModules[name]
}
