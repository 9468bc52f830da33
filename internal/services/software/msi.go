package software

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slimrmm/teams-remediator/internal/services/models"
	"github.com/slimrmm/teams-remediator/internal/services/registry"
)

const (
	msiExitSuccess        = 0
	msiExitRebootRequired = 3010
	msiExitUnknownProduct = 1605

	uninstallKey      = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`
	uninstallKeyWow64 = `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`
)

// MSIUninstaller implements MachineWideUninstaller via msiexec.
type MSIUninstaller struct {
	runner CommandRunner
	logger *slog.Logger
}

// NewMSIUninstaller creates a new MSI uninstaller.
func NewMSIUninstaller(runner CommandRunner, logger *slog.Logger) *MSIUninstaller {
	return &MSIUninstaller{runner: runner, logger: logger}
}

// UninstallProduct removes one package identity. The "already installed"
// precondition is deliberately not checked: msiexec reports an unknown
// product itself and that is treated as absence, not an error.
func (u *MSIUninstaller) UninstallProduct(ctx context.Context, productCode string) (bool, error) {
	if !strings.HasPrefix(productCode, "{") || !strings.HasSuffix(productCode, "}") {
		return false, fmt.Errorf("invalid MSI product code format: %s", productCode)
	}

	u.logger.Info("uninstalling MSI package", "product_code", productCode)
	args := []string{"/x", productCode, "/qn", "/norestart"}
	exitCode, output, err := u.runner.Run(ctx, "msiexec", args...)
	if err != nil {
		return false, fmt.Errorf("launching msiexec: %w", err)
	}

	switch exitCode {
	case msiExitSuccess, msiExitRebootRequired:
		return false, nil
	case msiExitUnknownProduct:
		u.logger.Info("MSI package not registered", "product_code", productCode)
		return true, nil
	}
	u.logger.Warn("msiexec uninstall failed",
		"product_code", productCode, "exit_code", exitCode, "output", output)
	return false, fmt.Errorf("msiexec uninstall failed with exit code %d", exitCode)
}

// RegistryInspector implements MachineWideInspector by reading the ARP
// uninstall keys for both architectures.
type RegistryInspector struct {
	reg    registry.Service
	logger *slog.Logger
}

// NewRegistryInspector creates a new machine-wide installer inspector.
func NewRegistryInspector(reg registry.Service, logger *slog.Logger) *RegistryInspector {
	return &RegistryInspector{reg: reg, logger: logger}
}

// State reads the registration state of both architecture variants. The
// install source and per-machine flag come from whichever variant is
// registered, 64-bit preferred.
func (i *RegistryInspector) State(ctx context.Context, codes ProductCodes) (models.MachineWideInstallerState, error) {
	var state models.MachineWideInstallerState
	if !i.reg.IsAvailable() {
		return state, nil
	}

	x64Key := uninstallKey + `\` + codes.X64
	x86Key := uninstallKeyWow64 + `\` + codes.X86
	state.X64Installed = codes.X64 != "" && i.reg.KeyExists(ctx, registry.HiveLocalMachine, x64Key)
	state.X86Installed = codes.X86 != "" && i.reg.KeyExists(ctx, registry.HiveLocalMachine, x86Key)

	key := ""
	switch {
	case state.X64Installed:
		key = x64Key
	case state.X86Installed:
		key = x86Key
	default:
		return state, nil
	}

	if source, err := i.reg.GetString(ctx, registry.HiveLocalMachine, key, "InstallSource"); err == nil {
		state.InstallSource = source
	} else {
		i.logger.Debug("install source not readable", "key", key, "error", err)
	}
	if allUsers, err := i.reg.GetInteger(ctx, registry.HiveLocalMachine, key, "ALLUSERS"); err == nil {
		state.PerMachineFlag = allUsers == 1
	}
	return state, nil
}

// DefaultContextPredicate reports a user-context deployment when the install
// source originates from the distribution agent's machine cache but no
// per-machine install flag was recorded. The match is a documented
// heuristic; swap in a site-specific predicate where the cache path differs.
func DefaultContextPredicate(state models.MachineWideInstallerState) bool {
	source := strings.ToLower(state.InstallSource)
	return strings.Contains(source, "ccmcache") && !state.PerMachineFlag
}
