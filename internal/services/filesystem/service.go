// Package filesystem provides file system operations as a service layer.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Service implements FileService using standard library os operations plus
// gobwas/glob pattern matching.
type Service struct{}

// New creates a new file system service.
func New() *Service {
	return &Service{}
}

// FileExists checks if a file exists at the specified path.
func (s *Service) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stat returns file info for the specified path.
func (s *Service) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir lists the entries of a directory.
func (s *Service) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// RemoveAll removes the path and all children.
func (s *Service) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// MkdirAll creates a directory and all parent directories.
func (s *Service) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFile writes data to a file, creating it if necessary.
func (s *Service) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Matches returns the paths under base whose base-relative, slash-normalized
// form matches the glob pattern. Matched directories are not descended into.
func (s *Service) Matches(base, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}

	var matches []string
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == base {
			return nil
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return nil
		}
		if g.Match(filepath.ToSlash(rel)) {
			matches = append(matches, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return matches, walkErr
	}
	return matches, nil
}

// RemoveMatches recursively and forcibly deletes every match of pattern
// under base. Missing matches are not an error.
func (s *Service) RemoveMatches(base, pattern string) (removed, failed []string, err error) {
	matches, err := s.Matches(base, pattern)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range matches {
		if rmErr := os.RemoveAll(m); rmErr != nil {
			failed = append(failed, m)
			continue
		}
		removed = append(removed, m)
	}
	return removed, failed, nil
}

// NormalizePattern converts a Windows-style pattern to the slash form
// expected by Matches.
func NormalizePattern(pattern string) string {
	return strings.ReplaceAll(pattern, `\`, "/")
}
