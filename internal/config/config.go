// Package config holds the remediation target configuration. Built-in
// defaults describe the classic Teams footprint; operators can override
// individual fields with a YAML manifest for environments where the
// footprint deviates (redirected profile stores, repackaged installers).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrManifestNotFound = errors.New("manifest file not found")
	ErrInvalidManifest  = errors.New("invalid manifest")
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ProductCodes holds the machine-wide installer package identities per
// architecture. Either may be absent on a given machine.
type ProductCodes struct {
	X86 string `yaml:"x86"`
	X64 string `yaml:"x64"`
}

// Config describes the footprint of the application being remediated and
// the paths this tool works with.
type Config struct {
	// ProfileRoot is the root of the user-profile store, typically C:\Users.
	ProfileRoot string `yaml:"profile_root"`

	// ProgramDataRoot is the machine-wide program-data directory that hosts
	// the per-user fallback install location (ProgramData\<user>\...).
	ProgramDataRoot string `yaml:"program_data_root"`

	// ExcludedProfiles are profile directory names that never hold a real
	// user installation.
	ExcludedProfiles []string `yaml:"excluded_profiles"`

	// MarkerRelPath is the path of the installation marker executable
	// relative to a candidate installation root.
	MarkerRelPath string `yaml:"marker_rel_path"`

	// AppDirRelPath is the installation root relative to a profile's
	// local-app-data directory (and to ProgramData\<user>).
	AppDirRelPath string `yaml:"app_dir_rel_path"`

	// UpdaterRelPath is the per-profile uninstaller executable relative to
	// an installation root.
	UpdaterRelPath string `yaml:"updater_rel_path"`

	// UninstallArgs are passed to the per-profile uninstaller.
	UninstallArgs []string `yaml:"uninstall_args"`

	// ProcessNames are executables closed before removal starts.
	ProcessNames []string `yaml:"process_names"`

	// ProductCodes address the machine-wide installer component.
	ProductCodes ProductCodes `yaml:"product_codes"`

	// CleanupGlobs are matched against paths relative to ProfileRoot and
	// deleted in the residual cleanup pass. Forward slashes, gobwas/glob
	// syntax.
	CleanupGlobs []string `yaml:"cleanup_globs"`

	// NewGenerationGlob detects the replacement application under
	// NewGenerationRoot.
	NewGenerationRoot string `yaml:"new_generation_root"`
	NewGenerationGlob string `yaml:"new_generation_glob"`

	// SuppressionKeyRelPath is the per-user registry key (relative to
	// HKU\<SID>) holding the auto-install suppression value.
	SuppressionKeyRelPath string `yaml:"suppression_key_rel_path"`
	SuppressionValueName  string `yaml:"suppression_value_name"`

	// SelfUninstallRunKey is the machine-level Run key that triggers the
	// legacy application to remove itself at next launch.
	SelfUninstallRunKey   string `yaml:"self_uninstall_run_key"`
	SelfUninstallRunName  string `yaml:"self_uninstall_run_name"`
	SelfUninstallCommand  string `yaml:"self_uninstall_command"`

	// PromptTimeout bounds the pre-flight continue/cancel prompt.
	PromptTimeout Duration `yaml:"prompt_timeout"`

	// LogDir and ReportFileName control where the run log and the JSON run
	// report are written.
	LogDir         string `yaml:"log_dir"`
	ReportFileName string `yaml:"report_file_name"`
}

// Defaults returns the built-in classic Teams configuration.
func Defaults() Config {
	systemDrive := os.Getenv("SystemDrive")
	if systemDrive == "" {
		systemDrive = `C:`
	}
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = systemDrive + `\ProgramData`
	}
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = systemDrive + `\Program Files`
	}

	logDir := filepath.Join(programData, "TeamsRemediator", "log")
	if runtime.GOOS != "windows" {
		logDir = "/var/log/teams-remediator"
	}

	return Config{
		ProfileRoot:      filepath.Join(systemDrive+string(os.PathSeparator), "Users"),
		ProgramDataRoot:  programData,
		ExcludedProfiles: []string{"Public", "Default", "Default User", "All Users"},
		MarkerRelPath:    filepath.Join("Current", "Teams.exe"),
		AppDirRelPath:    filepath.Join("Microsoft", "Teams"),
		UpdaterRelPath:   "Update.exe",
		UninstallArgs:    []string{"--uninstall", "-s"},
		ProcessNames:     []string{"Teams.exe", "Update.exe", "Squirrel.exe"},
		ProductCodes: ProductCodes{
			X86: "{39AF0813-FA7B-4860-ADBE-93B9B214B914}",
			X64: "{731F6BAA-A986-45A4-8936-7C3AAAAA760B}",
		},
		CleanupGlobs: []string{
			"*/AppData/Local/Microsoft/Teams",
			"*/AppData/Roaming/Microsoft/Windows/Start Menu/Programs/Microsoft Teams*.lnk",
		},
		NewGenerationRoot:     filepath.Join(programFiles, "WindowsApps"),
		NewGenerationGlob:     "MSTeams_*",
		SuppressionKeyRelPath: `SOFTWARE\Microsoft\Office\Teams`,
		SuppressionValueName:  "PreventInstallationFromMsi",
		SelfUninstallRunKey:   `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`,
		SelfUninstallRunName:  "TeamsMachineUninstallerLocalAppData",
		SelfUninstallCommand:  `%LOCALAPPDATA%\Microsoft\Teams\Update.exe --uninstall --msiUninstall --source=default`,
		PromptTimeout:         Duration(120 * time.Second),
		LogDir:                logDir,
		ReportFileName:        "remediation-report.json",
	}
}

// LoadManifest applies a YAML manifest on top of cfg. Only fields present
// in the manifest override the defaults.
func LoadManifest(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrManifestNotFound
		}
		return cfg, fmt.Errorf("reading manifest: %w", err)
	}

	// Decode over a copy of the defaults so absent fields keep their values.
	out := cfg
	if err := yaml.Unmarshal(data, &out); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if out.ProfileRoot == "" {
		return cfg, fmt.Errorf("%w: profile_root must not be empty", ErrInvalidManifest)
	}
	if out.MarkerRelPath == "" {
		return cfg, fmt.Errorf("%w: marker_rel_path must not be empty", ErrInvalidManifest)
	}
	return out, nil
}
