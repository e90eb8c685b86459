// Package transform rewrites the module references of one source file into
// project-rooted CommonJS require calls and reports the files it depends on.
package transform

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"modlink/internal/core/errors"
	"modlink/internal/engine/parser"
	"modlink/internal/engine/resolver"
	"modlink/internal/engine/scope"
)

// SourceParser turns source text into a syntax tree.
type SourceParser interface {
	Parse(filename string, source []byte) (*parser.Tree, error)
}

// ModuleResolver classifies and resolves specifiers.
type ModuleResolver interface {
	Classify(specifier string) resolver.Class
	Resolve(specifier string, from resolver.Importer) (resolver.Module, error)
}

type Options struct {
	// Root is the absolute project root. File names are relative to it.
	Root string
	// Policy decides which local declarations shadow the loader.
	Policy scope.Policy
	// TrackedNames are the loader identifiers recognised as require.
	TrackedNames []string
}

// Metadata is the dependency information attached to a transform result.
type Metadata struct {
	// Requires lists canonical module paths once each, in first-seen order.
	Requires []string `json:"requires"`
}

type Output struct {
	Code     string   `json:"code"`
	Metadata Metadata `json:"metadata"`
	Stats    Stats    `json:"-"`
}

// Stats counts module references by how they were handled.
type Stats struct {
	Files     int
	Packages  int
	Externals int
	Styles    int
	TypeOnly  int
	Shadowed  int

	// LocalExports counts export statements left in ES syntax, e.g.
	// `export const x = 1`. The emit stage converts them to CommonJS.
	LocalExports int
}

// Transformer is safe for concurrent use when its parser and resolver are.
type Transformer struct {
	parser   SourceParser
	resolver ModuleResolver
	opts     Options
}

func New(p SourceParser, r ModuleResolver, opts Options) *Transformer {
	if opts.Policy == "" {
		opts.Policy = scope.PolicyBindings
	}
	if len(opts.TrackedNames) == 0 {
		opts.TrackedNames = []string{"require"}
	}
	opts.Root = path.Clean(filepath.ToSlash(opts.Root))
	return &Transformer{parser: p, resolver: r, opts: opts}
}

// Transform parses and rewrites one file. Any resolution failure fails the
// whole file and no code is returned.
func (t *Transformer) Transform(filename string, source []byte) (Output, error) {
	tree, err := t.parser.Parse(filename, source)
	if err != nil {
		return Output{}, err
	}
	defer tree.Close()
	return t.TransformTree(tree, filename)
}

// TransformTree rewrites an already parsed file.
func (t *Transformer) TransformTree(tree *parser.Tree, filename string) (Output, error) {
	rel := RelativeName(filename)
	from := resolver.Importer{
		Dir:  path.Dir(path.Join(t.opts.Root, rel)),
		Root: t.opts.Root,
	}

	src := tree.Source
	sites, shadowed, exports := collectSites(tree.Root(), src, t.opts.Policy, t.opts.TrackedNames)

	rw := newRewriter(src)
	requires := newOrderedSet()
	resolved := make(map[string]resolver.Module)
	stats := Stats{Shadowed: shadowed, LocalExports: exports}

	for _, site := range sites {
		if site.TypeOnly {
			stats.TypeOnly++
			rw.remove(site.node)
			continue
		}

		switch t.resolver.Classify(site.Specifier) {
		case resolver.ClassStyle:
			stats.Styles++
			if site.Kind.Statement() {
				rw.remove(site.node)
			}
			continue
		case resolver.ClassExternal:
			stats.Externals++
			if site.Kind.Statement() {
				rw.lower(site, site.Specifier)
			}
			continue
		}

		mod, ok := resolved[site.Specifier]
		if !ok {
			var err error
			mod, err = t.resolver.Resolve(site.Specifier, from)
			if err != nil {
				err = errors.AddContext(err, errors.CtxPath, "/"+rel)
				return Output{}, errors.AddContext(err, errors.CtxLine, site.Line)
			}
			resolved[site.Specifier] = mod
		}
		if mod.Kind == resolver.KindPackage {
			stats.Packages++
		} else {
			stats.Files++
		}

		requires.add(mod.Path)
		if site.Kind == SiteRequire {
			rw.replace(site.source, quote(mod.Path))
		} else {
			rw.lower(site, mod.Path)
		}
	}

	slog.Debug("transformed module",
		"path", "/"+rel,
		"sites", len(sites),
		"requires", requires.len(),
		"shadowed", shadowed)

	return Output{
		Code:     rw.apply(),
		Metadata: Metadata{Requires: requires.values()},
		Stats:    stats,
	}, nil
}

// RelativeName normalises a root-relative file name: slashes, no leading
// "/", no "." or ".." segments above the root.
func RelativeName(filename string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(filename)), "/")
}

// lower replaces an ES module statement with its CommonJS form.
func (r *rewriter) lower(site Site, specifier string) {
	call := requireCall("require", specifier)
	var text string
	switch site.Kind {
	case SiteImport:
		text = r.lowerImport(site.node, call)
	case SiteImportEquals:
		text = r.lowerImportEquals(site.node, call)
	case SiteExportFrom:
		text = r.lowerExportFrom(site.node, call)
	case SiteExportStar:
		text = r.lowerExportStar(site.node, call)
	default:
		return
	}
	r.replace(site.node, text)
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
