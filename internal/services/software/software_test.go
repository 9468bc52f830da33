package software

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/slimrmm/teams-remediator/internal/services/filesystem"
	"github.com/slimrmm/teams-remediator/internal/services/models"
	"github.com/slimrmm/teams-remediator/internal/services/registry"
)

// fakeRunner returns canned command results and records invocations.
type fakeRunner struct {
	exitCode int
	output   string
	err      error

	names []string
	args  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, string, error) {
	f.names = append(f.names, name)
	f.args = append(f.args, args)
	if f.err != nil {
		return -1, "", f.err
	}
	return f.exitCode, f.output, nil
}

// fakeRegistry serves canned ARP data.
type fakeRegistry struct {
	available bool
	keys      map[string]bool
	strings   map[string]string
	integers  map[string]uint64
}

func (f *fakeRegistry) KeyExists(_ context.Context, _ registry.Hive, key string) bool {
	return f.keys[key]
}
func (f *fakeRegistry) GetString(_ context.Context, _ registry.Hive, key, name string) (string, error) {
	if v, ok := f.strings[key+`|`+name]; ok {
		return v, nil
	}
	return "", registry.ErrValueNotFound
}
func (f *fakeRegistry) GetInteger(_ context.Context, _ registry.Hive, key, name string) (uint64, error) {
	if v, ok := f.integers[key+`|`+name]; ok {
		return v, nil
	}
	return 0, registry.ErrValueNotFound
}
func (f *fakeRegistry) SetString(_ context.Context, _ registry.Hive, _, _, _ string) error {
	return nil
}
func (f *fakeRegistry) SetDWord(_ context.Context, _ registry.Hive, _, _ string, _ uint32) error {
	return nil
}
func (f *fakeRegistry) SubkeyNames(_ context.Context, _ registry.Hive, _ string) ([]string, error) {
	return nil, nil
}
func (f *fakeRegistry) IsAvailable() bool { return f.available }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const testProductCode = "{39AF0813-FA7B-4860-ADBE-93B9B214B914}"

func TestMSIUninstallSuccess(t *testing.T) {
	for _, exitCode := range []int{0, 3010} {
		runner := &fakeRunner{exitCode: exitCode}
		u := NewMSIUninstaller(runner, testLogger())

		absent, err := u.UninstallProduct(context.Background(), testProductCode)
		if err != nil {
			t.Fatalf("exit %d: UninstallProduct() error = %v", exitCode, err)
		}
		if absent {
			t.Errorf("exit %d: absent = true, want false", exitCode)
		}
	}
}

func TestMSIUninstallUnknownProductIsAbsence(t *testing.T) {
	runner := &fakeRunner{exitCode: 1605}
	u := NewMSIUninstaller(runner, testLogger())

	absent, err := u.UninstallProduct(context.Background(), testProductCode)
	if err != nil {
		t.Fatalf("UninstallProduct() error = %v", err)
	}
	if !absent {
		t.Error("absent = false, want true for exit code 1605")
	}
}

func TestMSIUninstallFailureExitCode(t *testing.T) {
	runner := &fakeRunner{exitCode: 1603, output: "Fatal error during installation"}
	u := NewMSIUninstaller(runner, testLogger())

	if _, err := u.UninstallProduct(context.Background(), testProductCode); err == nil {
		t.Error("UninstallProduct() error = nil, want failure for exit code 1603")
	}
}

func TestMSIUninstallArguments(t *testing.T) {
	runner := &fakeRunner{}
	u := NewMSIUninstaller(runner, testLogger())

	if _, err := u.UninstallProduct(context.Background(), testProductCode); err != nil {
		t.Fatalf("UninstallProduct() error = %v", err)
	}
	if runner.names[0] != "msiexec" {
		t.Errorf("command = %q, want msiexec", runner.names[0])
	}
	want := []string{"/x", testProductCode, "/qn", "/norestart"}
	got := runner.args[0]
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %v, want %v", got, want)
		}
	}
}

func TestMSIUninstallRejectsMalformedCode(t *testing.T) {
	runner := &fakeRunner{}
	u := NewMSIUninstaller(runner, testLogger())

	if _, err := u.UninstallProduct(context.Background(), "not-a-guid"); err == nil {
		t.Error("UninstallProduct() should reject a code without braces")
	}
	if len(runner.names) != 0 {
		t.Error("msiexec must not run for a malformed product code")
	}
}

func TestInspectorReadsX64State(t *testing.T) {
	codes := ProductCodes{X86: "{X86}", X64: "{X64}"}
	x64Key := uninstallKey + `\{X64}`
	reg := &fakeRegistry{
		available: true,
		keys:      map[string]bool{x64Key: true},
		strings:   map[string]string{x64Key + `|InstallSource`: `C:\Windows\ccmcache\a1\`},
		integers:  map[string]uint64{},
	}
	inspector := NewRegistryInspector(reg, testLogger())

	state, err := inspector.State(context.Background(), codes)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if !state.X64Installed || state.X86Installed {
		t.Errorf("installed flags = x64:%v x86:%v, want x64 only", state.X64Installed, state.X86Installed)
	}
	if state.InstallSource != `C:\Windows\ccmcache\a1\` {
		t.Errorf("InstallSource = %q", state.InstallSource)
	}
	if state.PerMachineFlag {
		t.Error("PerMachineFlag = true, want false without ALLUSERS")
	}
}

func TestInspectorReadsWow64KeyForX86(t *testing.T) {
	codes := ProductCodes{X86: "{X86}", X64: "{X64}"}
	x86Key := uninstallKeyWow64 + `\{X86}`
	reg := &fakeRegistry{
		available: true,
		keys:      map[string]bool{x86Key: true},
		strings:   map[string]string{},
		integers:  map[string]uint64{x86Key + `|ALLUSERS`: 1},
	}
	inspector := NewRegistryInspector(reg, testLogger())

	state, err := inspector.State(context.Background(), codes)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if !state.X86Installed || state.X64Installed {
		t.Errorf("installed flags = x64:%v x86:%v, want x86 only", state.X64Installed, state.X86Installed)
	}
	if !state.PerMachineFlag {
		t.Error("PerMachineFlag = false, want true for ALLUSERS=1")
	}
}

func TestInspectorWithoutRegistry(t *testing.T) {
	inspector := NewRegistryInspector(&fakeRegistry{available: false}, testLogger())

	state, err := inspector.State(context.Background(), ProductCodes{X86: "{X86}", X64: "{X64}"})
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.AnyInstalled() {
		t.Error("no installation should be reported without registry access")
	}
}

func TestDefaultContextPredicate(t *testing.T) {
	tests := []struct {
		name  string
		state models.MachineWideInstallerState
		want  bool
	}{
		{
			name:  "ccmcache source without per-machine flag",
			state: models.MachineWideInstallerState{InstallSource: `C:\Windows\ccmcache\a1\`},
			want:  true,
		},
		{
			name:  "case-insensitive source match",
			state: models.MachineWideInstallerState{InstallSource: `C:\WINDOWS\CCMCache\b2\`},
			want:  true,
		},
		{
			name: "ccmcache source with per-machine flag",
			state: models.MachineWideInstallerState{
				InstallSource:  `C:\Windows\ccmcache\a1\`,
				PerMachineFlag: true,
			},
			want: false,
		},
		{
			name:  "interactive install source",
			state: models.MachineWideInstallerState{InstallSource: `C:\Users\admin\Downloads\`},
			want:  false,
		},
		{
			name:  "empty state",
			state: models.MachineWideInstallerState{},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultContextPredicate(tt.state); got != tt.want {
				t.Errorf("DefaultContextPredicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdaterUninstallerSuccess(t *testing.T) {
	root := t.TempDir()
	updater := filepath.Join(root, "Update.exe")
	if err := os.WriteFile(updater, []byte("binary"), 0o755); err != nil {
		t.Fatalf("writing updater: %v", err)
	}

	runner := &fakeRunner{}
	u := NewUpdaterUninstaller("Update.exe", []string{"--uninstall", "-s"}, runner, filesystem.New(), testLogger())

	result := u.Uninstall(context.Background(), root)
	if result.Outcome != models.OutcomeRemoved {
		t.Fatalf("Outcome = %s (%s), want %s", result.Outcome, result.Reason, models.OutcomeRemoved)
	}
	if runner.names[0] != updater {
		t.Errorf("ran %q, want %q", runner.names[0], updater)
	}
	if len(runner.args[0]) != 2 || runner.args[0][0] != "--uninstall" || runner.args[0][1] != "-s" {
		t.Errorf("args = %v, want [--uninstall -s]", runner.args[0])
	}
}

func TestUpdaterUninstallerMissingExecutable(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUpdaterUninstaller("Update.exe", nil, runner, filesystem.New(), testLogger())

	result := u.Uninstall(context.Background(), t.TempDir())
	if result.Outcome != models.OutcomeRemovalFailed {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, models.OutcomeRemovalFailed)
	}
	if len(runner.names) != 0 {
		t.Error("uninstaller must not run when the executable is missing")
	}
}

func TestUpdaterUninstallerNonZeroExit(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Update.exe"), []byte("binary"), 0o755); err != nil {
		t.Fatalf("writing updater: %v", err)
	}

	runner := &fakeRunner{exitCode: 1, output: "failure"}
	u := NewUpdaterUninstaller("Update.exe", nil, runner, filesystem.New(), testLogger())

	result := u.Uninstall(context.Background(), root)
	if result.Outcome != models.OutcomeRemovalFailed {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, models.OutcomeRemovalFailed)
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

func TestUpdaterUninstallerLaunchFailure(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Update.exe"), []byte("binary"), 0o755); err != nil {
		t.Fatalf("writing updater: %v", err)
	}

	runner := &fakeRunner{err: errors.New("access denied")}
	u := NewUpdaterUninstaller("Update.exe", nil, runner, filesystem.New(), testLogger())

	result := u.Uninstall(context.Background(), root)
	if result.Outcome != models.OutcomeRemovalFailed {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, models.OutcomeRemovalFailed)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := NewExecRunner()
	exitCode, _, err := runner.Run(context.Background(), "/nonexistent/binary-for-test")
	if err == nil {
		t.Fatal("Run() error = nil, want a launch failure")
	}
	if exitCode != -1 {
		t.Errorf("exitCode = %d, want -1 for a launch failure", exitCode)
	}
}
