package resolver

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"modlink/internal/core/errors"
	"modlink/internal/engine/fs"
)

// Kind tells how a specifier was resolved.
type Kind uint8

const (
	// KindFile covers relative (./, ../) and root-anchored (/) specifiers.
	KindFile Kind = iota
	// KindPackage covers bare and scoped package specifiers.
	KindPackage
)

func (k Kind) String() string {
	if k == KindPackage {
		return "package"
	}
	return "file"
}

// Importer locates the file that contains a specifier.
type Importer struct {
	Dir  string // absolute directory of the importing file
	Root string // absolute project root, an ancestor of Dir
}

// Module is a resolved specifier.
type Module struct {
	// Path is root-relative with a leading "/" and a ".js" extension for
	// TypeScript and JSX sources.
	Path string
	// Abs is the absolute path of the file that was found.
	Abs  string
	Kind Kind
}

type Options struct {
	Extensions       []string
	MainFields       []string
	GlobalModulesDir string
	Externals        []string
	BuiltinsExternal bool
	StyleExtensions  []string
}

func DefaultOptions() Options {
	return Options{
		Extensions:       []string{".js", ".ts", ".tsx", ".jsx", ".json"},
		MainFields:       []string{"main"},
		BuiltinsExternal: true,
		StyleExtensions:  []string{".css", ".scss", ".sass", ".less"},
	}
}

// compiledExtensions are emitted as their ".js" sibling.
var compiledExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".jsx": true,
	".mts": true,
	".cts": true,
}

// Resolver maps specifiers to canonical module paths. It keeps no state
// between calls; wrap the FS in fs.CachedFS to memoise probing.
type Resolver struct {
	fs         fs.FS
	opts       Options
	classifier *Classifier
}

func New(fsys fs.FS, opts Options) *Resolver {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	if len(opts.MainFields) == 0 {
		opts.MainFields = DefaultOptions().MainFields
	}
	if opts.GlobalModulesDir != "" {
		opts.GlobalModulesDir = path.Clean(opts.GlobalModulesDir)
	}
	return &Resolver{
		fs:         fsys,
		opts:       opts,
		classifier: NewClassifier(opts.Externals, opts.BuiltinsExternal, opts.StyleExtensions),
	}
}

// Classify reports whether a specifier should be resolved at all.
func (r *Resolver) Classify(specifier string) Class {
	return r.classifier.Classify(specifier)
}

// Resolve implements root-anchored, relative and node_modules resolution.
// Failures are FILE_NOT_FOUND for relative and absolute specifiers and
// PACKAGE_NOT_FOUND for bare ones.
func (r *Resolver) Resolve(specifier string, from Importer) (Module, error) {
	from.Root = path.Clean(from.Root)
	from.Dir = path.Clean(from.Dir)

	var (
		mod Module
		err error
	)
	switch {
	case specifier == "":
		err = notFound(errors.CodeFileNotFound, "empty module specifier", specifier, from)
	case strings.HasPrefix(specifier, "/"):
		mod, err = r.resolveFile(specifier, path.Join(from.Root, specifier), from)
	case IsRelative(specifier):
		mod, err = r.resolveFile(specifier, path.Join(from.Dir, specifier), from)
	default:
		mod, err = r.resolvePackage(specifier, from)
	}
	if err != nil {
		return Module{}, err
	}
	slog.Debug("resolved module", "specifier", specifier, "importer", from.Dir, "path", mod.Path)
	return mod, nil
}

// IsRelative reports whether specifier starts with ./ or ../ (or is . or ..).
func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func (r *Resolver) resolveFile(specifier, target string, from Importer) (Module, error) {
	var (
		abs string
		ok  bool
	)
	if namesDirectory(specifier) {
		abs, ok = r.loadAsDirectory(target)
	} else {
		abs, ok = r.loadAsFileOrDirectory(target)
	}
	if !ok {
		return Module{}, notFound(errors.CodeFileNotFound, fmt.Sprintf("cannot find module %q", specifier), specifier, from)
	}
	rel, ok := relativeTo(from.Root, abs)
	if !ok {
		return Module{}, notFound(errors.CodeFileNotFound, fmt.Sprintf("module %q resolves outside the project root", specifier), specifier, from)
	}
	return Module{Path: canonical(rel), Abs: abs, Kind: KindFile}, nil
}

func (r *Resolver) resolvePackage(specifier string, from Importer) (Module, error) {
	name, subpath := SplitPackage(specifier)

	for _, modulesDir := range r.modulesDirs(from) {
		pkgDir := path.Join(modulesDir, name)

		var (
			abs   string
			found bool
		)
		switch {
		case fs.IsDir(r.fs, pkgDir):
			switch {
			case subpath != "" && namesDirectory(specifier):
				abs, found = r.loadAsDirectory(path.Join(pkgDir, subpath))
			case subpath != "":
				abs, found = r.loadAsFileOrDirectory(path.Join(pkgDir, subpath))
			default:
				abs, found = r.loadPackageEntry(pkgDir)
			}
			if !found {
				return Module{}, notFound(errors.CodePackageNotFound,
					fmt.Sprintf("package %q found in %s but %q does not resolve to a file", name, modulesDir, specifier),
					specifier, from)
			}
		case subpath == "":
			// node_modules/name.js is a valid single-file package.
			abs, found = r.loadAsFile(pkgDir)
		}
		if !found {
			continue
		}

		base := from.Root
		prefix := ""
		if r.opts.GlobalModulesDir != "" && modulesDir == r.opts.GlobalModulesDir {
			base = modulesDir
			prefix = "node_modules/"
		}
		rel, ok := relativeTo(base, abs)
		if !ok {
			return Module{}, notFound(errors.CodePackageNotFound,
				fmt.Sprintf("package %q resolves outside the project root", name), specifier, from)
		}
		return Module{Path: canonical(prefix + rel), Abs: abs, Kind: KindPackage}, nil
	}

	return Module{}, notFound(errors.CodePackageNotFound,
		fmt.Sprintf("cannot find package %q in any node_modules directory", name), specifier, from)
}

// modulesDirs lists node_modules candidates from the importer up to the
// root, then the configured global directory.
func (r *Resolver) modulesDirs(from Importer) []string {
	var dirs []string
	for dir := from.Dir; ; {
		if path.Base(dir) != "node_modules" {
			dirs = append(dirs, path.Join(dir, "node_modules"))
		}
		if dir == from.Root {
			break
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if r.opts.GlobalModulesDir != "" {
		dirs = append(dirs, r.opts.GlobalModulesDir)
	}
	return dirs
}

func (r *Resolver) loadPackageEntry(pkgDir string) (string, bool) {
	for _, field := range r.opts.MainFields {
		main, ok := readPackageField(r.fs, path.Join(pkgDir, "package.json"), field)
		if !ok || main == "" {
			continue
		}
		if abs, ok := r.loadAsFileOrDirectory(path.Join(pkgDir, main)); ok {
			return abs, true
		}
		slog.Debug("package main field does not resolve", "package", pkgDir, "field", field, "value", main)
	}
	return r.loadAsIndex(pkgDir)
}

func (r *Resolver) loadAsFileOrDirectory(p string) (string, bool) {
	if abs, ok := r.loadAsFile(p); ok {
		return abs, true
	}
	if fs.IsDir(r.fs, p) {
		return r.loadAsIndex(p)
	}
	return "", false
}

func (r *Resolver) loadAsDirectory(p string) (string, bool) {
	if !fs.IsDir(r.fs, p) {
		return "", false
	}
	return r.loadAsIndex(p)
}

// namesDirectory reports whether specifier can only name a directory:
// "./lib/", ".", "..", "../..".
func namesDirectory(specifier string) bool {
	if strings.HasSuffix(specifier, "/") {
		return true
	}
	base := path.Base(specifier)
	return base == "." || base == ".."
}

func (r *Resolver) loadAsFile(p string) (string, bool) {
	if fs.IsFile(r.fs, p) {
		return p, true
	}
	for _, ext := range r.opts.Extensions {
		if fs.IsFile(r.fs, p+ext) {
			return p + ext, true
		}
	}

	// "./a.js" may name a file that only exists as "./a.ts" before compilation.
	ext := path.Ext(p)
	if !r.knownExtension(ext) {
		return "", false
	}
	base := strings.TrimSuffix(p, ext)
	for _, other := range r.opts.Extensions {
		if other != ext && fs.IsFile(r.fs, base+other) {
			return base + other, true
		}
	}
	return "", false
}

func (r *Resolver) loadAsIndex(dir string) (string, bool) {
	index := path.Join(dir, "index")
	for _, ext := range r.opts.Extensions {
		if fs.IsFile(r.fs, index+ext) {
			return index + ext, true
		}
	}
	return "", false
}

func (r *Resolver) knownExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for _, known := range r.opts.Extensions {
		if known == ext {
			return true
		}
	}
	return false
}

// SplitPackage splits a bare specifier into its package name and subpath.
// Scoped names keep both segments: "@scope/pkg/sub" -> ("@scope/pkg", "sub").
func SplitPackage(specifier string) (name, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, strings.Trim(subpath, "/")
	}
	name, subpath, _ = strings.Cut(specifier, "/")
	return name, strings.Trim(subpath, "/")
}

func relativeTo(base, target string) (string, bool) {
	if base == "/" {
		return strings.TrimPrefix(target, "/"), strings.HasPrefix(target, "/")
	}
	if !strings.HasPrefix(target, base+"/") {
		return "", false
	}
	return target[len(base)+1:], true
}

// CanonicalPath returns the module path under which a root-relative source
// file is required once emitted.
func CanonicalPath(rel string) string {
	return canonical(strings.TrimPrefix(path.Clean("/"+rel), "/"))
}

func canonical(rel string) string {
	ext := path.Ext(rel)
	if compiledExtensions[strings.ToLower(ext)] {
		rel = strings.TrimSuffix(rel, ext) + ".js"
	}
	return "/" + rel
}

func notFound(code errors.ErrorCode, msg, specifier string, from Importer) error {
	err := errors.New(code, msg)
	err = errors.AddContext(err, errors.CtxSpecifier, specifier)
	return errors.AddContext(err, errors.CtxImporter, from.Dir)
}
