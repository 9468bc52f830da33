// Package registry provides Windows registry operations as a service layer.
package registry

import (
	"context"
	"errors"
)

// Hive identifies a registry root key.
type Hive string

const (
	HiveLocalMachine Hive = "HKLM"
	HiveCurrentUser  Hive = "HKCU"
	HiveUsers        Hive = "HKU"
)

// ErrValueNotFound is returned when a key or value does not exist.
var ErrValueNotFound = errors.New("registry value not found")

// Service defines the interface for Windows registry operations.
type Service interface {
	// KeyExists checks whether a key exists.
	KeyExists(ctx context.Context, hive Hive, key string) bool

	// GetString reads a string value.
	GetString(ctx context.Context, hive Hive, key, name string) (string, error)

	// GetInteger reads a DWORD/QWORD value.
	GetInteger(ctx context.Context, hive Hive, key, name string) (uint64, error)

	// SetString writes a string value, creating the key if necessary.
	SetString(ctx context.Context, hive Hive, key, name, value string) error

	// SetDWord writes a DWORD value, creating the key if necessary.
	SetDWord(ctx context.Context, hive Hive, key, name string, value uint32) error

	// SubkeyNames lists the subkeys of a key.
	SubkeyNames(ctx context.Context, hive Hive, key string) ([]string, error)

	// IsAvailable returns true if registry operations are available on this
	// platform.
	IsAvailable() bool
}
