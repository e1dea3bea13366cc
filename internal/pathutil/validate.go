// Package pathutil confines file reads requested by remote callers to a set
// of allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/randosim/internal/config"
)

// ErrOutsideAllowed is returned by Check for paths outside every allowed
// directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/.randosim/config.yaml" becomes ".../.randosim/config.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// Allowlist holds directories resolved to absolute, symlink-free form.
// A nil Allowlist allows every path.
type Allowlist struct {
	dirs []string
}

// NewAllowlist resolves dirs once. Directories that do not exist yet are
// resolved through their deepest existing ancestor.
func NewAllowlist(dirs ...string) (*Allowlist, error) {
	if len(dirs) == 0 {
		return nil, errors.New("no allowed directories configured")
	}
	a := &Allowlist{dirs: make([]string, 0, len(dirs))}
	for _, d := range dirs {
		resolved, err := resolve(d)
		if err != nil {
			return nil, fmt.Errorf("allowed directory %s: %w", RedactPath(d), err)
		}
		a.dirs = append(a.dirs, resolved)
	}
	return a, nil
}

// Dirs returns the resolved allowed directories.
func (a *Allowlist) Dirs() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.dirs...)
}

// Check reports whether path, after cleaning and symlink resolution, lies
// inside one of the allowed directories.
func (a *Allowlist) Check(path string) error {
	if a == nil {
		return nil
	}
	if path == "" {
		return errors.New("path is empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return errors.New("path contains null byte")
	}

	resolved, err := resolve(path)
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", RedactPath(path), err)
	}
	for _, dir := range a.dirs {
		if isSubpath(resolved, dir) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOutsideAllowed, RedactPath(resolved))
}

// resolve returns the absolute form of path with every existing component's
// symlinks evaluated; a missing tail is re-appended as is.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return "", fmt.Errorf("no existing ancestor of %s", RedactPath(path))
	}
	realParent, err := resolve(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(realParent, filepath.Base(abs)), nil
}

// isSubpath checks whether path is equal to or below base.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	// "/tmp/foo" must not match "/tmp/foobar"
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// DefaultDirs returns the directories an MCP client may read documents
// from: workDir and ~/.randosim.
func DefaultDirs(workDir string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{workDir, filepath.Join(homeDir, config.Dir)}, nil
}
