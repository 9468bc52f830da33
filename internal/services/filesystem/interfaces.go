// Package filesystem provides file system operations as a service layer.
package filesystem

import (
	"os"
)

// FileService defines the interface for file system operations.
type FileService interface {
	// FileExists checks if a file exists at the specified path.
	FileExists(path string) bool

	// Stat returns file info for the specified path.
	Stat(path string) (os.FileInfo, error)

	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]os.DirEntry, error)

	// RemoveAll removes the path and all children.
	RemoveAll(path string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// Matches returns the paths under base whose base-relative,
	// slash-normalized form matches the glob pattern.
	Matches(base, pattern string) ([]string, error)

	// RemoveMatches recursively and forcibly deletes every match of
	// pattern under base. Missing matches are not an error. Paths that
	// could not be deleted are returned in failed.
	RemoveMatches(base, pattern string) (removed, failed []string, err error)
}
