// Package process provides process detection and termination services.
package process

import "context"

// Info represents a running process.
type Info struct {
	Name string `json:"name"`
	PID  int32  `json:"pid"`
}

// Service defines operations for process control.
type Service interface {
	// FindByName returns the running processes whose executable name
	// matches one of names (case-insensitive).
	FindByName(ctx context.Context, names []string) ([]Info, error)

	// CloseByName terminates every process matching one of names and
	// returns how many were signalled. With force set, processes are
	// killed instead of asked to terminate.
	CloseByName(ctx context.Context, names []string, force bool) (int, error)
}
