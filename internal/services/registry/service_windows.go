//go:build windows
// +build windows

package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	winregistry "golang.org/x/sys/windows/registry"
)

// WindowsService implements Service for Windows registry operations.
type WindowsService struct{}

var (
	defaultService *WindowsService
	serviceOnce    sync.Once
)

// New creates a new Windows registry service.
func New() *WindowsService {
	return &WindowsService{}
}

// GetDefault returns the default singleton registry service.
func GetDefault() Service {
	serviceOnce.Do(func() {
		defaultService = New()
	})
	return defaultService
}

func rootKey(hive Hive) (winregistry.Key, error) {
	switch hive {
	case HiveLocalMachine:
		return winregistry.LOCAL_MACHINE, nil
	case HiveCurrentUser:
		return winregistry.CURRENT_USER, nil
	case HiveUsers:
		return winregistry.USERS, nil
	}
	return 0, fmt.Errorf("unsupported hive: %s", hive)
}

// KeyExists checks whether a key exists.
func (s *WindowsService) KeyExists(_ context.Context, hive Hive, key string) bool {
	root, err := rootKey(hive)
	if err != nil {
		return false
	}
	k, err := winregistry.OpenKey(root, key, winregistry.QUERY_VALUE)
	if err != nil {
		return false
	}
	k.Close()
	return true
}

// GetString reads a string value.
func (s *WindowsService) GetString(_ context.Context, hive Hive, key, name string) (string, error) {
	root, err := rootKey(hive)
	if err != nil {
		return "", err
	}
	k, err := winregistry.OpenKey(root, key, winregistry.QUERY_VALUE)
	if err != nil {
		return "", wrapNotExist(err)
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if err != nil {
		return "", wrapNotExist(err)
	}
	return v, nil
}

// GetInteger reads a DWORD/QWORD value.
func (s *WindowsService) GetInteger(_ context.Context, hive Hive, key, name string) (uint64, error) {
	root, err := rootKey(hive)
	if err != nil {
		return 0, err
	}
	k, err := winregistry.OpenKey(root, key, winregistry.QUERY_VALUE)
	if err != nil {
		return 0, wrapNotExist(err)
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(name)
	if err != nil {
		return 0, wrapNotExist(err)
	}
	return v, nil
}

// SetString writes a string value, creating the key if necessary.
func (s *WindowsService) SetString(_ context.Context, hive Hive, key, name, value string) error {
	root, err := rootKey(hive)
	if err != nil {
		return err
	}
	k, _, err := winregistry.CreateKey(root, key, winregistry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("creating key %s\\%s: %w", hive, key, err)
	}
	defer k.Close()
	return k.SetStringValue(name, value)
}

// SetDWord writes a DWORD value, creating the key if necessary.
func (s *WindowsService) SetDWord(_ context.Context, hive Hive, key, name string, value uint32) error {
	root, err := rootKey(hive)
	if err != nil {
		return err
	}
	k, _, err := winregistry.CreateKey(root, key, winregistry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("creating key %s\\%s: %w", hive, key, err)
	}
	defer k.Close()
	return k.SetDWordValue(name, value)
}

// SubkeyNames lists the subkeys of a key.
func (s *WindowsService) SubkeyNames(_ context.Context, hive Hive, key string) ([]string, error) {
	root, err := rootKey(hive)
	if err != nil {
		return nil, err
	}
	k, err := winregistry.OpenKey(root, key, winregistry.READ)
	if err != nil {
		return nil, wrapNotExist(err)
	}
	defer k.Close()
	return k.ReadSubKeyNames(0)
}

// IsAvailable returns true as registry operations are available on Windows.
func (s *WindowsService) IsAvailable() bool {
	return true
}

func wrapNotExist(err error) error {
	if errors.Is(err, winregistry.ErrNotExist) {
		return ErrValueNotFound
	}
	return err
}
