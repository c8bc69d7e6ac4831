// Package dotdir locates the .wikiart/ directory that holds config.toml, the
// persisted search index and local transcripts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName = ".wikiart"

	// HomeEnv overrides the directory when no explicit one is given.
	HomeEnv = "WIKIART_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .wikiart/ directory to use,
// creating it when missing. The first of these wins:
//  1. overrideDir
//  2. $WIKIART_HOME
//  3. ./.wikiart/ when it already exists
//  4. ~/.wikiart/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.locate(overrideDir)
	if err != nil {
		return "", err
	}

	dir, err = expandHome(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating wikiart directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func (m *Manager) locate(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(cwd, dirName)); err == nil && info.IsDir() {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Resolve places a relative path inside the target directory. Absolute and
// ~/ paths are used as given. Parent directories are created either way.
func (m *Manager) Resolve(overrideDir, path string) (string, error) {
	full, err := expandHome(path)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(full) {
		target, err := m.Target(overrideDir)
		if err != nil {
			return "", err
		}
		full = filepath.Join(target, full)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", full, err)
	}
	return full, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
