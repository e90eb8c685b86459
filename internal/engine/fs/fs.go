// Package fs is the file-system capability the resolver probes. Paths are
// slash-separated and absolute; implementations translate them as needed.
package fs

import (
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type EntryKind uint8

const (
	NoEntry EntryKind = iota
	FileEntry
	DirEntry
)

func (k EntryKind) String() string {
	switch k {
	case FileEntry:
		return "file"
	case DirEntry:
		return "dir"
	}
	return "none"
}

type FS interface {
	// Stat reports what lives at path, following symlinks.
	Stat(path string) EntryKind
	// ReadDirectory lists the entries of a directory. The returned map must
	// not be mutated.
	ReadDirectory(path string) (map[string]EntryKind, error)
	ReadFile(path string) ([]byte, error)
}

// IsFile is a convenience over Stat.
func IsFile(fsys FS, p string) bool { return fsys.Stat(p) == FileEntry }

// IsDir is a convenience over Stat.
func IsDir(fsys FS, p string) bool { return fsys.Stat(p) == DirEntry }

// ToSlash converts an OS path into the slash form every FS accepts.
func ToSlash(p string) string {
	p = filepath.ToSlash(p)
	if p == "" {
		return p
	}
	return path.Clean(p)
}

////////////////////////////////////////////////////////////////////////////////

type realFS struct{}

// RealFS reads from the operating system.
func RealFS() FS { return realFS{} }

func (realFS) Stat(p string) EntryKind {
	info, err := os.Stat(filepath.FromSlash(p))
	if err != nil {
		return NoEntry
	}
	if info.IsDir() {
		return DirEntry
	}
	return FileEntry
}

func (realFS) ReadDirectory(p string) (map[string]EntryKind, error) {
	dir := filepath.FromSlash(p)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]EntryKind, len(entries))
	for _, entry := range entries {
		kind := FileEntry
		if entry.IsDir() {
			kind = DirEntry
		} else if entry.Type()&iofs.ModeSymlink != 0 {
			// Use "stat", not "lstat", so links to directories count as directories.
			if info, err := os.Stat(filepath.Join(dir, entry.Name())); err == nil && info.IsDir() {
				kind = DirEntry
			} else if err != nil {
				continue
			}
		}
		out[entry.Name()] = kind
	}
	return out, nil
}

func (realFS) ReadFile(p string) ([]byte, error) {
	return os.ReadFile(filepath.FromSlash(p))
}

////////////////////////////////////////////////////////////////////////////////

// This is a mock implementation of FS for use with tests. It does not touch
// the disk; it reads from a pre-specified map of absolute paths to contents.
type mockFS struct {
	dirs  map[string]map[string]EntryKind
	files map[string][]byte
}

func MockFS(input map[string]string) FS {
	dirs := make(map[string]map[string]EntryKind)
	files := make(map[string][]byte)

	for k, v := range input {
		k = path.Clean("/" + strings.TrimPrefix(k, "/"))
		files[k] = []byte(v)
		original := k

		// Build the directory map
		for {
			kDir := path.Dir(k)
			dir, ok := dirs[kDir]
			if !ok {
				dir = make(map[string]EntryKind)
				dirs[kDir] = dir
			}
			if kDir == k {
				break
			}
			if k == original {
				dir[path.Base(k)] = FileEntry
			} else {
				dir[path.Base(k)] = DirEntry
			}
			k = kDir
		}
	}

	return &mockFS{dirs: dirs, files: files}
}

func (m *mockFS) Stat(p string) EntryKind {
	p = path.Clean(p)
	if _, ok := m.files[p]; ok {
		return FileEntry
	}
	if _, ok := m.dirs[p]; ok {
		return DirEntry
	}
	return NoEntry
}

func (m *mockFS) ReadDirectory(p string) (map[string]EntryKind, error) {
	dir, ok := m.dirs[path.Clean(p)]
	if !ok {
		return nil, &iofs.PathError{Op: "readdir", Path: p, Err: iofs.ErrNotExist}
	}
	return dir, nil
}

func (m *mockFS) ReadFile(p string) ([]byte, error) {
	contents, ok := m.files[path.Clean(p)]
	if !ok {
		return nil, &iofs.PathError{Op: "open", Path: p, Err: iofs.ErrNotExist}
	}
	return contents, nil
}
