package util

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PathFilter decides which directories are walked and which files are
// picked up. Glob patterns match base names only.
type PathFilter struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   map[string]bool
}

// NewPathFilter compiles the exclude patterns. An empty extensions list
// accepts every file that is not excluded.
func NewPathFilter(excludeDirs, excludeFiles, extensions []string) (*PathFilter, error) {
	f := &PathFilter{extensions: make(map[string]bool, len(extensions))}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.excludeDirs = append(f.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.excludeFiles = append(f.excludeFiles, g)
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = true
	}
	return f, nil
}

func (f *PathFilter) ExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range f.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Include reports whether a file should be processed.
func (f *PathFilter) Include(path string) bool {
	base := filepath.Base(path)
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	for _, g := range f.excludeFiles {
		if g.Match(base) {
			return false
		}
	}
	return true
}

// InExcludedDir reports whether any directory between root and path is
// excluded. path must be inside root.
func (f *PathFilter) InExcludedDir(root, path string) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".." {
			return false
		}
		for _, g := range f.excludeDirs {
			if g.Match(part) {
				return true
			}
		}
	}
	return false
}
