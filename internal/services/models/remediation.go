// Package models defines domain models and DTOs for service layer communication.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Mode represents the requested deployment operation.
type Mode string

const (
	ModeInstall   Mode = "install"
	ModeUninstall Mode = "uninstall"
	ModeRepair    Mode = "repair"
)

// ParseMode parses a deployment mode from a CLI argument.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeInstall:
		return ModeInstall, nil
	case ModeUninstall:
		return ModeUninstall, nil
	case ModeRepair:
		return ModeRepair, nil
	}
	return "", fmt.Errorf("unknown deployment mode: %q", s)
}

// Interaction represents how the tool may interact with a logged-on user.
type Interaction string

const (
	InteractionInteractive    Interaction = "interactive"
	InteractionSilent         Interaction = "silent"
	InteractionNonInteractive Interaction = "noninteractive"
)

// ParseInteraction parses an interaction mode from a CLI argument.
func ParseInteraction(s string) (Interaction, error) {
	switch Interaction(strings.ToLower(s)) {
	case InteractionInteractive:
		return InteractionInteractive, nil
	case InteractionSilent:
		return InteractionSilent, nil
	case InteractionNonInteractive:
		return InteractionNonInteractive, nil
	}
	return "", fmt.Errorf("unknown interaction mode: %q", s)
}

// AllowsPrompt reports whether this interaction mode permits blocking the
// run on a user prompt.
func (i Interaction) AllowsPrompt() bool {
	return i == InteractionInteractive
}

// DeploymentRequest represents the caller-supplied parameters for one run.
// It is immutable once constructed.
type DeploymentRequest struct {
	Mode        Mode        `json:"mode"`
	Interaction Interaction `json:"interaction"`
	Force       bool        `json:"force"`
}

// UserProfile represents a discovered local user account.
type UserProfile struct {
	Name           string `json:"name"`
	SID            string `json:"sid,omitempty"`
	LocalAppData   string `json:"local_app_data"`
	RoamingAppData string `json:"roaming_app_data"`
	ProgramData    string `json:"program_data"`
}

// MachineWideInstallerState describes the registration state of the
// machine-wide installer component.
type MachineWideInstallerState struct {
	X86Installed          bool   `json:"x86_installed"`
	X64Installed          bool   `json:"x64_installed"`
	InstallSource         string `json:"install_source,omitempty"`
	PerMachineFlag        bool   `json:"per_machine_flag"`
	UserContextDeployment bool   `json:"user_context_deployment"`
}

// AnyInstalled reports whether at least one architecture variant is registered.
func (s MachineWideInstallerState) AnyInstalled() bool {
	return s.X86Installed || s.X64Installed
}

// ProfileOutcome represents the remediation result for a single profile.
type ProfileOutcome string

const (
	OutcomeNotFound      ProfileOutcome = "not_found"
	OutcomeRemoved       ProfileOutcome = "removed"
	OutcomeRemovalFailed ProfileOutcome = "removal_failed"
)

// ProfileResult represents the per-profile remediation record.
type ProfileResult struct {
	Profile     UserProfile    `json:"profile"`
	InstallRoot string         `json:"install_root,omitempty"`
	Outcome     ProfileOutcome `json:"outcome"`
	Reason      string         `json:"reason,omitempty"`
	ExitCode    int            `json:"exit_code,omitempty"`
}

// MachineWideAction identifies which machine-wide remediation path ran.
type MachineWideAction string

const (
	MachineWideNone           MachineWideAction = "none"
	MachineWideMachineContext MachineWideAction = "machine_context"
	MachineWideUserContext    MachineWideAction = "user_context"
)

// MachineWideResult records the machine-wide remediation outcome.
type MachineWideResult struct {
	Action         MachineWideAction         `json:"action"`
	State          MachineWideInstallerState `json:"state"`
	UninstalledX86 bool                      `json:"uninstalled_x86,omitempty"`
	UninstalledX64 bool                      `json:"uninstalled_x64,omitempty"`
	SuppressedSIDs []string                  `json:"suppressed_sids,omitempty"`
	Errors         []string                  `json:"errors,omitempty"`
}

// CleanupResults records residual artifact cleanup activity.
type CleanupResults struct {
	PathsRemoved []string `json:"paths_removed"`
	PathsFailed  []string `json:"paths_failed"`
}

// RunReport aggregates the outcome of one remediation run. The exit code is
// set exactly once along any execution path; later calls to SetExitCode do
// not overwrite an earlier signal.
type RunReport struct {
	RunID       string            `json:"run_id"`
	Request     DeploymentRequest `json:"request"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Phase       string            `json:"phase"`
	Profiles    []ProfileResult   `json:"profiles"`
	MachineWide MachineWideResult `json:"machine_wide"`
	Cleanup     CleanupResults    `json:"cleanup"`
	ExitCode    int               `json:"exit_code"`

	exitCodeSet bool
}

// SetExitCode records the final exit code. The first call wins; subsequent
// calls are ignored and return false.
func (r *RunReport) SetExitCode(code int) bool {
	if r.exitCodeSet {
		return false
	}
	r.ExitCode = code
	r.exitCodeSet = true
	return true
}

// ExitCodeSet reports whether an exit code has already been recorded.
func (r *RunReport) ExitCodeSet() bool {
	return r.exitCodeSet
}
