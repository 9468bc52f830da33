// Package software provides the package uninstaller adapters: the
// per-profile legacy uninstaller and the machine-wide MSI component.
package software

import (
	"context"

	"github.com/slimrmm/teams-remediator/internal/services/models"
)

// CommandRunner executes an external command and reports its exit code and
// combined output. A start failure (missing executable, permission error)
// is returned as err; a non-zero exit is not an error.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (exitCode int, output string, err error)
}

// ProfileUninstaller removes one profile's legacy installation.
type ProfileUninstaller interface {
	// Uninstall runs the uninstaller found under installRoot. All failure
	// modes are soft: the returned result records them and err is only set
	// for programming errors, never for sub-process outcomes.
	Uninstall(ctx context.Context, installRoot string) models.ProfileResult
}

// MachineWideUninstaller removes the machine-wide installer component via
// the OS package manager.
type MachineWideUninstaller interface {
	// UninstallProduct removes one package identity. absent is true when
	// the package was not registered; that is not an error.
	UninstallProduct(ctx context.Context, productCode string) (absent bool, err error)
}

// MachineWideInspector reads the registration state of the machine-wide
// installer component.
type MachineWideInspector interface {
	State(ctx context.Context, codes ProductCodes) (models.MachineWideInstallerState, error)
}

// ProductCodes identifies the machine-wide installer packages per
// architecture.
type ProductCodes struct {
	X86 string
	X64 string
}

// ContextPredicate decides whether the machine-wide component was deployed
// in a per-user context rather than a true machine-wide context. Its input
// is the observed installer state; its result is authoritative for the
// current run only.
type ContextPredicate func(models.MachineWideInstallerState) bool
