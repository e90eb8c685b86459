package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	OutDir      string
	DBPath      string
	GlobalDir   string
}

// ResolvePaths makes every configured path absolute. Relative paths are
// taken from base, normally the directory holding the config file.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return ResolvedPaths{}, err
	}

	projectRoot := ResolveRelative(base, cfg.ProjectRoot)
	resolved := ResolvedPaths{
		ProjectRoot: projectRoot,
		OutDir:      ResolveRelative(projectRoot, cfg.OutDir),
		DBPath:      ResolveRelative(projectRoot, cfg.DB.Path),
	}
	if dir := strings.TrimSpace(cfg.Resolve.GlobalModulesDir); dir != "" {
		resolved.GlobalDir = ResolveRelative(projectRoot, dir)
	}
	if resolved.OutDir == projectRoot {
		return ResolvedPaths{}, fmt.Errorf("out_dir must not be the project root")
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for a project marker
// and falls back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"package.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
