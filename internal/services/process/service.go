// Package process provides process detection and termination services.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// DefaultService implements Service on top of gopsutil.
type DefaultService struct {
	logger *slog.Logger
}

// NewService creates a new process service.
func NewService(logger *slog.Logger) *DefaultService {
	return &DefaultService{logger: logger}
}

// FindByName returns the running processes whose executable name matches one
// of names (case-insensitive).
func (s *DefaultService) FindByName(ctx context.Context, names []string) ([]Info, error) {
	procs, err := gopsprocess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	var matches []Info
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes can exit between listing and inspection.
			continue
		}
		if wanted[strings.ToLower(name)] {
			matches = append(matches, Info{Name: name, PID: p.Pid})
		}
	}
	return matches, nil
}

// CloseByName terminates every process matching one of names.
func (s *DefaultService) CloseByName(ctx context.Context, names []string, force bool) (int, error) {
	matches, err := s.FindByName(ctx, names)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, m := range matches {
		p, err := gopsprocess.NewProcessWithContext(ctx, m.PID)
		if err != nil {
			continue
		}
		if force {
			err = p.KillWithContext(ctx)
		} else {
			err = p.TerminateWithContext(ctx)
		}
		if err != nil {
			s.logger.Warn("failed to close process", "name", m.Name, "pid", m.PID, "error", err)
			continue
		}
		s.logger.Info("closed process", "name", m.Name, "pid", m.PID, "force", force)
		closed++
	}
	return closed, nil
}
