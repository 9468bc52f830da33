//go:build !windows
// +build !windows

package registry

import (
	"context"
	"errors"
	"sync"
)

// ErrNotWindows is returned when registry operations are attempted on
// non-Windows systems.
var ErrNotWindows = errors.New("registry operations are only available on Windows")

// StubService implements Service as a stub for non-Windows platforms.
type StubService struct{}

var (
	defaultService *StubService
	serviceOnce    sync.Once
)

// New creates a new stub registry service.
func New() *StubService {
	return &StubService{}
}

// GetDefault returns the default singleton registry service.
func GetDefault() Service {
	serviceOnce.Do(func() {
		defaultService = New()
	})
	return defaultService
}

// KeyExists returns false as registry operations are not available.
func (s *StubService) KeyExists(_ context.Context, _ Hive, _ string) bool {
	return false
}

// GetString returns an error as registry operations are not available.
func (s *StubService) GetString(_ context.Context, _ Hive, _, _ string) (string, error) {
	return "", ErrNotWindows
}

// GetInteger returns an error as registry operations are not available.
func (s *StubService) GetInteger(_ context.Context, _ Hive, _, _ string) (uint64, error) {
	return 0, ErrNotWindows
}

// SetString returns an error as registry operations are not available.
func (s *StubService) SetString(_ context.Context, _ Hive, _, _, _ string) error {
	return ErrNotWindows
}

// SetDWord returns an error as registry operations are not available.
func (s *StubService) SetDWord(_ context.Context, _ Hive, _, _ string, _ uint32) error {
	return ErrNotWindows
}

// SubkeyNames returns an error as registry operations are not available.
func (s *StubService) SubkeyNames(_ context.Context, _ Hive, _ string) ([]string, error) {
	return nil, ErrNotWindows
}

// IsAvailable returns false as registry operations are not available on
// non-Windows.
func (s *StubService) IsAvailable() bool {
	return false
}
