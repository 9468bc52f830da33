package software

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/slimrmm/teams-remediator/internal/services/filesystem"
	"github.com/slimrmm/teams-remediator/internal/services/models"
)

// UpdaterUninstaller implements ProfileUninstaller by invoking the
// updater executable shipped inside each installation root.
type UpdaterUninstaller struct {
	updaterRelPath string
	args           []string
	runner         CommandRunner
	fs             filesystem.FileService
	logger         *slog.Logger
}

// NewUpdaterUninstaller creates a per-profile uninstaller.
func NewUpdaterUninstaller(updaterRelPath string, args []string, runner CommandRunner, fs filesystem.FileService, logger *slog.Logger) *UpdaterUninstaller {
	return &UpdaterUninstaller{
		updaterRelPath: updaterRelPath,
		args:           args,
		runner:         runner,
		fs:             fs,
		logger:         logger,
	}
}

// Uninstall runs the uninstaller found under installRoot. A launch failure
// or non-zero exit is recorded as a soft failure; it never halts the run.
func (u *UpdaterUninstaller) Uninstall(ctx context.Context, installRoot string) models.ProfileResult {
	result := models.ProfileResult{InstallRoot: installRoot}

	updater := filepath.Join(installRoot, u.updaterRelPath)
	if !u.fs.FileExists(updater) {
		result.Outcome = models.OutcomeRemovalFailed
		result.Reason = "uninstaller executable not found: " + updater
		u.logger.Warn("uninstaller missing", "path", updater)
		return result
	}

	u.logger.Info("uninstalling legacy installation", "root", installRoot)
	exitCode, output, err := u.runner.Run(ctx, updater, u.args...)
	result.ExitCode = exitCode
	if err != nil {
		result.Outcome = models.OutcomeRemovalFailed
		result.Reason = "failed to launch uninstaller: " + err.Error()
		u.logger.Warn("uninstaller launch failed", "path", updater, "error", err)
		return result
	}
	if exitCode != 0 {
		result.Outcome = models.OutcomeRemovalFailed
		result.Reason = "uninstaller exited non-zero"
		u.logger.Warn("uninstaller reported non-zero exit",
			"path", updater, "exit_code", exitCode, "output", output)
		return result
	}

	result.Outcome = models.OutcomeRemoved
	return result
}
