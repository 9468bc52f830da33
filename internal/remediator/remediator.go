// Package remediator implements the per-profile uninstall and machine-wide
// remediation workflow. Execution is strictly sequential: guard, process
// close, profile scan, per-profile uninstall, residual cleanup, machine-wide
// remediation. All expected failure modes are absorbed locally and recorded
// on the run report; only truly unexpected failures abort the run.
package remediator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/slimrmm/teams-remediator/internal/config"
	"github.com/slimrmm/teams-remediator/internal/exitcode"
	"github.com/slimrmm/teams-remediator/internal/prompt"
	"github.com/slimrmm/teams-remediator/internal/services/filesystem"
	"github.com/slimrmm/teams-remediator/internal/services/models"
	"github.com/slimrmm/teams-remediator/internal/services/process"
	"github.com/slimrmm/teams-remediator/internal/services/registry"
	"github.com/slimrmm/teams-remediator/internal/services/software"
)

// Run phases recorded on the report.
const (
	PhasePreflight   = "preflight"
	PhaseProcesses   = "close_processes"
	PhaseProfiles    = "profiles"
	PhaseCleanup     = "cleanup"
	PhaseMachineWide = "machine_wide"
	PhaseComplete    = "complete"
)

// ProfileScanner is the slice of the profile scanner the remediator needs.
type ProfileScanner interface {
	Scan(ctx context.Context) ([]models.UserProfile, error)
	Classify(profile models.UserProfile) (installRoot string, found bool)
}

// DetectFunc reports whether the replacement application generation is
// present on this machine.
type DetectFunc func(ctx context.Context) bool

// Remediator sequences one remediation run.
type Remediator struct {
	cfg       config.Config
	logger    *slog.Logger
	scanner   ProfileScanner
	proc      process.Service
	fs        filesystem.FileService
	reg       registry.Service
	uninst    software.ProfileUninstaller
	msi       software.MachineWideUninstaller
	inspector software.MachineWideInspector
	prompter  prompt.Prompter
	predicate software.ContextPredicate
	detect    DetectFunc
}

// Options wires the remediator's collaborators. Predicate and Detect may be
// nil; defaults are derived from the configuration.
type Options struct {
	Config    config.Config
	Logger    *slog.Logger
	Scanner   ProfileScanner
	Process   process.Service
	FS        filesystem.FileService
	Registry  registry.Service
	Uninstall software.ProfileUninstaller
	MSI       software.MachineWideUninstaller
	Inspector software.MachineWideInspector
	Prompter  prompt.Prompter
	Predicate software.ContextPredicate
	Detect    DetectFunc
}

// New creates a remediator.
func New(opts Options) *Remediator {
	r := &Remediator{
		cfg:       opts.Config,
		logger:    opts.Logger,
		scanner:   opts.Scanner,
		proc:      opts.Process,
		fs:        opts.FS,
		reg:       opts.Registry,
		uninst:    opts.Uninstall,
		msi:       opts.MSI,
		inspector: opts.Inspector,
		prompter:  opts.Prompter,
		predicate: opts.Predicate,
		detect:    opts.Detect,
	}
	if r.predicate == nil {
		r.predicate = software.DefaultContextPredicate
	}
	if r.detect == nil {
		r.detect = r.detectNewGeneration
	}
	return r
}

// Run executes one remediation run and returns its report. The report's
// exit code is always set on return, exactly once along any path.
func (r *Remediator) Run(ctx context.Context, req models.DeploymentRequest) (report *models.RunReport) {
	report = &models.RunReport{
		RunID:     uuid.NewString(),
		Request:   req,
		StartedAt: time.Now(),
		MachineWide: models.MachineWideResult{
			Action: models.MachineWideNone,
		},
	}
	logger := r.logger.With("run_id", report.RunID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("unexpected failure aborted the run",
				"phase", report.Phase,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			report.SetExitCode(exitcode.FatalError)
		}
		report.CompletedAt = time.Now()
	}()

	report.Phase = PhasePreflight
	logger.Info("starting remediation",
		"mode", req.Mode, "interaction", req.Interaction, "force", req.Force)

	if req.Mode == models.ModeInstall {
		// Installation of the replacement application is handled by its own
		// distribution package; this tool only removes the legacy variant.
		logger.Info("install mode requested; nothing to remediate")
		report.Phase = PhaseComplete
		report.SetExitCode(exitcode.Success)
		return report
	}

	if !r.guard(ctx, req, logger) {
		logger.Warn("precondition not met, aborting without remediation",
			"exit_code", exitcode.PreconditionNotMet)
		report.SetExitCode(exitcode.PreconditionNotMet)
		return report
	}

	report.Phase = PhaseProcesses
	r.closeProcesses(ctx, req, logger)

	// The machine-wide remediation path is decided once, before the
	// per-profile loop begins; it executes after cleanup. The two paths are
	// mutually exclusive within a run.
	action, state := r.decideMachineWide(ctx, logger)

	report.Phase = PhaseProfiles
	report.Profiles = r.remediateProfiles(ctx, logger)

	// Residual cleanup runs exactly once per invocation, regardless of how
	// many per-profile uninstalls succeeded.
	report.Phase = PhaseCleanup
	report.Cleanup = r.cleanupResiduals(logger)

	report.Phase = PhaseMachineWide
	report.MachineWide = r.executeMachineWide(ctx, action, state, report.Profiles, logger)

	report.Phase = PhaseComplete
	// Per-profile soft failures are visible in the report and log only;
	// they do not change the overall exit code.
	report.SetExitCode(exitcode.Success)
	logger.Info("remediation complete", "exit_code", report.ExitCode)
	return report
}

// guard decides whether removal proceeds at all. The new generation being
// present, or force (repair implies force), proceeds unconditionally.
// Otherwise interactive runs get a bounded continue/cancel prompt where a
// timeout cancels; silent runs abort immediately.
func (r *Remediator) guard(ctx context.Context, req models.DeploymentRequest, logger *slog.Logger) bool {
	force := req.Force || req.Mode == models.ModeRepair
	if force {
		logger.Info("precondition check overridden", "mode", req.Mode, "force", req.Force)
		return true
	}
	if r.detect(ctx) {
		logger.Info("replacement application detected")
		return true
	}
	if !req.Interaction.AllowsPrompt() {
		return false
	}
	question := "The replacement application was not detected on this machine. Remove the legacy installation anyway?"
	return r.prompter.Confirm(ctx, question, r.cfg.PromptTimeout.Std())
}

func (r *Remediator) detectNewGeneration(_ context.Context) bool {
	matches, err := r.fs.Matches(r.cfg.NewGenerationRoot, r.cfg.NewGenerationGlob)
	if err != nil {
		r.logger.Debug("new generation detection failed", "error", err)
		return false
	}
	return len(matches) > 0
}

// closeProcesses terminates the application's processes before removal.
// Interactive runs terminate gracefully; silent runs kill.
func (r *Remediator) closeProcesses(ctx context.Context, req models.DeploymentRequest, logger *slog.Logger) {
	force := !req.Interaction.AllowsPrompt()
	closed, err := r.proc.CloseByName(ctx, r.cfg.ProcessNames, force)
	if err != nil {
		logger.Warn("process close failed", "error", err)
		return
	}
	if closed > 0 {
		logger.Info("closed running processes", "count", closed)
	}
}

// remediateProfiles classifies every profile and removes found
// installations. Exactly one removal attempt per profile; a failed profile
// never halts the remaining ones.
func (r *Remediator) remediateProfiles(ctx context.Context, logger *slog.Logger) []models.ProfileResult {
	profiles, err := r.scanner.Scan(ctx)
	if err != nil {
		logger.Warn("profile scan failed", "error", err)
		return nil
	}

	results := make([]models.ProfileResult, 0, len(profiles))
	for _, profile := range profiles {
		installRoot, found := r.scanner.Classify(profile)
		if !found {
			logger.Debug("no legacy installation", "profile", profile.Name)
			results = append(results, models.ProfileResult{
				Profile: profile,
				Outcome: models.OutcomeNotFound,
			})
			continue
		}

		result := r.uninst.Uninstall(ctx, installRoot)
		result.Profile = profile
		logger.Info("profile remediated",
			"profile", profile.Name, "outcome", result.Outcome, "root", installRoot)
		results = append(results, result)
	}
	return results
}

// cleanupResiduals deletes leftover folders and shortcuts across all
// profiles in one pass. Missing matches are not an error.
func (r *Remediator) cleanupResiduals(logger *slog.Logger) models.CleanupResults {
	var results models.CleanupResults
	for _, pattern := range r.cfg.CleanupGlobs {
		removed, failed, err := r.fs.RemoveMatches(r.cfg.ProfileRoot, filesystem.NormalizePattern(pattern))
		if err != nil {
			logger.Warn("residual cleanup failed", "pattern", pattern, "error", err)
			continue
		}
		results.PathsRemoved = append(results.PathsRemoved, removed...)
		results.PathsFailed = append(results.PathsFailed, failed...)
	}
	if len(results.PathsRemoved) > 0 || len(results.PathsFailed) > 0 {
		logger.Info("residual cleanup finished",
			"removed", len(results.PathsRemoved), "failed", len(results.PathsFailed))
	}
	return results
}

// decideMachineWide inspects the machine-wide installer component and
// selects which remediation path will run. Inspection failures are soft;
// they leave the action at none.
func (r *Remediator) decideMachineWide(ctx context.Context, logger *slog.Logger) (models.MachineWideAction, models.MachineWideInstallerState) {
	codes := software.ProductCodes{
		X86: r.cfg.ProductCodes.X86,
		X64: r.cfg.ProductCodes.X64,
	}
	state, err := r.inspector.State(ctx, codes)
	if err != nil {
		logger.Warn("machine-wide installer inspection failed", "error", err)
		return models.MachineWideNone, state
	}
	if !state.AnyInstalled() {
		logger.Info("machine-wide installer not registered")
		return models.MachineWideNone, state
	}

	state.UserContextDeployment = r.predicate(state)
	if state.UserContextDeployment {
		logger.Info("machine-wide installer was deployed in user context",
			"install_source", state.InstallSource)
		return models.MachineWideUserContext, state
	}
	return models.MachineWideMachineContext, state
}

// executeMachineWide runs the previously selected machine-wide remediation
// path.
func (r *Remediator) executeMachineWide(ctx context.Context, action models.MachineWideAction, state models.MachineWideInstallerState, profiles []models.ProfileResult, logger *slog.Logger) models.MachineWideResult {
	result := models.MachineWideResult{Action: action, State: state}

	codes := software.ProductCodes{
		X86: r.cfg.ProductCodes.X86,
		X64: r.cfg.ProductCodes.X64,
	}
	switch action {
	case models.MachineWideUserContext:
		r.suppressUserContext(ctx, profiles, &result, logger)
	case models.MachineWideMachineContext:
		r.uninstallMachineContext(ctx, state, codes, &result, logger)
	}
	return result
}

// uninstallMachineContext removes each detected package identity
// independently. A variant's absence is logged, never an error, and never
// affects the exit code.
func (r *Remediator) uninstallMachineContext(ctx context.Context, state models.MachineWideInstallerState, codes software.ProductCodes, result *models.MachineWideResult, logger *slog.Logger) {
	if state.X86Installed {
		absent, err := r.msi.UninstallProduct(ctx, codes.X86)
		if err != nil {
			logger.Warn("x86 machine-wide uninstall failed", "error", err)
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.UninstalledX86 = !absent
		}
	} else {
		logger.Info("x86 machine-wide installer absent", "product_code", codes.X86)
	}

	if state.X64Installed {
		absent, err := r.msi.UninstallProduct(ctx, codes.X64)
		if err != nil {
			logger.Warn("x64 machine-wide uninstall failed", "error", err)
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.UninstalledX64 = !absent
		}
	} else {
		logger.Info("x64 machine-wide installer absent", "product_code", codes.X64)
	}
}

// suppressUserContext writes the per-user auto-install suppression value for
// every discoverable profile and one machine-level value that makes the
// legacy application remove itself at next launch. Registry-write failures
// are logged and never abort the run.
func (r *Remediator) suppressUserContext(ctx context.Context, profiles []models.ProfileResult, result *models.MachineWideResult, logger *slog.Logger) {
	for _, p := range profiles {
		if p.Profile.SID == "" {
			logger.Debug("profile has no resolvable SID, skipping suppression",
				"profile", p.Profile.Name)
			continue
		}
		key := p.Profile.SID + `\` + r.cfg.SuppressionKeyRelPath
		if err := r.reg.SetDWord(ctx, registry.HiveUsers, key, r.cfg.SuppressionValueName, 1); err != nil {
			logger.Warn("failed to write suppression value",
				"profile", p.Profile.Name, "error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.SuppressedSIDs = append(result.SuppressedSIDs, p.Profile.SID)
	}

	if err := r.reg.SetString(ctx, registry.HiveLocalMachine, r.cfg.SelfUninstallRunKey, r.cfg.SelfUninstallRunName, r.cfg.SelfUninstallCommand); err != nil {
		logger.Warn("failed to write self-uninstall trigger", "error", err)
		result.Errors = append(result.Errors, err.Error())
	}
}
