// Teams Remediator - removes the classic per-user Teams installation and
// remediates the machine-wide installer component on Windows endpoints.
// Invoked by a software-distribution system; the exit code reports the
// outcome.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/slimrmm/teams-remediator/internal/config"
	"github.com/slimrmm/teams-remediator/internal/exitcode"
	"github.com/slimrmm/teams-remediator/internal/logging"
	"github.com/slimrmm/teams-remediator/internal/prompt"
	"github.com/slimrmm/teams-remediator/internal/remediator"
	"github.com/slimrmm/teams-remediator/internal/services/filesystem"
	"github.com/slimrmm/teams-remediator/internal/services/models"
	"github.com/slimrmm/teams-remediator/internal/services/process"
	"github.com/slimrmm/teams-remediator/internal/services/profiles"
	"github.com/slimrmm/teams-remediator/internal/services/registry"
	"github.com/slimrmm/teams-remediator/internal/services/software"
	"github.com/slimrmm/teams-remediator/pkg/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("teams-remediator", pflag.ContinueOnError)
	var (
		modeFlag        = flags.String("mode", "uninstall", "Deployment mode: install, uninstall or repair")
		interactionFlag = flags.String("interaction", "silent", "Interaction mode: interactive, silent or noninteractive")
		force           = flags.Bool("force", false, "Skip the replacement-application precondition check")
		disableLogging  = flags.Bool("disable-logging", false, "Disable all log output")
		manifestPath    = flags.String("config", "", "Path to a YAML manifest overriding the built-in target configuration")
		profileRoot     = flags.String("profile-root", "", "Override the user-profile store root")
		debug           = flags.Bool("debug", false, "Enable debug logging")
		showVersion     = flags.Bool("version", false, "Show version information")
	)
	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitcode.FatalError
	}

	if *showVersion {
		fmt.Println(version.Get().String())
		return exitcode.Success
	}

	mode, err := models.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitcode.FatalError
	}
	interaction, err := models.ParseInteraction(*interactionFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitcode.FatalError
	}

	cfg := config.Defaults()
	if *manifestPath != "" {
		cfg, err = config.LoadManifest(*manifestPath, cfg)
		if err != nil && !errors.Is(err, config.ErrManifestNotFound) {
			fmt.Fprintln(os.Stderr, err)
			return exitcode.FatalError
		}
	}
	if *profileRoot != "" {
		cfg.ProfileRoot = *profileRoot
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		LogDir:      cfg.LogDir,
		Debug:       *debug,
		LogToStdout: interaction != models.InteractionSilent,
		Disabled:    *disableLogging,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitcode.FatalError
	}
	defer cleanup()
	slog.SetDefault(logger)

	req := models.DeploymentRequest{
		Mode:        mode,
		Interaction: interaction,
		Force:       *force,
	}

	// A termination signal cancels in-flight sub-processes and prompts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling run", "signal", sig)
		cancel()
	}()

	fs := filesystem.New()
	reg := registry.GetDefault()
	runner := software.NewExecRunner()
	scanner := profiles.NewScanner(profiles.Options{
		ProfileRoot:     cfg.ProfileRoot,
		ProgramDataRoot: cfg.ProgramDataRoot,
		Excluded:        cfg.ExcludedProfiles,
		AppDirRelPath:   cfg.AppDirRelPath,
		MarkerRelPath:   cfg.MarkerRelPath,
	}, fs, reg, logger)

	rem := remediator.New(remediator.Options{
		Config:    cfg,
		Logger:    logger,
		Scanner:   scanner,
		Process:   process.NewService(logger),
		FS:        fs,
		Registry:  reg,
		Uninstall: software.NewUpdaterUninstaller(cfg.UpdaterRelPath, cfg.UninstallArgs, runner, fs, logger),
		MSI:       software.NewMSIUninstaller(runner, logger),
		Inspector: software.NewRegistryInspector(reg, logger),
		Prompter:  prompt.NewConsolePrompter(os.Stdin, os.Stderr),
	})

	report := rem.Run(ctx, req)
	writeReport(cfg, report, logger)

	if report.ExitCode == exitcode.FatalError && interaction.AllowsPrompt() {
		fmt.Fprintf(os.Stderr, "remediation failed unexpectedly; see %s for details\n",
			filepath.Join(cfg.LogDir, cfg.ReportFileName))
	}
	return report.ExitCode
}

// writeReport persists the JSON run report next to the log for operator
// forensics. Failure to write it never changes the exit code.
func writeReport(cfg config.Config, report *models.RunReport, logger *slog.Logger) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Warn("failed to encode run report", "error", err)
		return
	}
	path := filepath.Join(cfg.LogDir, cfg.ReportFileName)
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		logger.Warn("failed to create report directory", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("failed to write run report", "path", path, "error", err)
		return
	}
	logger.Info("run report written", "path", path)
}
