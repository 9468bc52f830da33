// Package profiles enumerates local user profiles and classifies each by
// legacy installation presence. The scanner only inspects; it never mutates
// the filesystem.
package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/slimrmm/teams-remediator/internal/services/filesystem"
	"github.com/slimrmm/teams-remediator/internal/services/models"
	"github.com/slimrmm/teams-remediator/internal/services/registry"
)

const profileListKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\ProfileList`

// Options configures the profile scanner.
type Options struct {
	// ProfileRoot is the root of the user-profile store.
	ProfileRoot string

	// ProgramDataRoot hosts the per-user fallback install location.
	ProgramDataRoot string

	// Excluded are profile directory names that are skipped.
	Excluded []string

	// AppDirRelPath is the installation root relative to a profile's
	// local-app-data directory and to ProgramDataRoot\<user>.
	AppDirRelPath string

	// MarkerRelPath is the installation marker executable relative to a
	// candidate installation root.
	MarkerRelPath string
}

// Scanner discovers user profiles and their installation state.
type Scanner struct {
	opts   Options
	fs     filesystem.FileService
	reg    registry.Service
	logger *slog.Logger
}

// NewScanner creates a profile scanner.
func NewScanner(opts Options, fs filesystem.FileService, reg registry.Service, logger *slog.Logger) *Scanner {
	return &Scanner{opts: opts, fs: fs, reg: reg, logger: logger}
}

// Scan enumerates the user profiles under the profile root. Each profile
// appears exactly once; the result is ordered by profile name.
func (s *Scanner) Scan(ctx context.Context) ([]models.UserProfile, error) {
	entries, err := s.fs.ReadDir(s.opts.ProfileRoot)
	if err != nil {
		return nil, fmt.Errorf("reading profile root %s: %w", s.opts.ProfileRoot, err)
	}

	sids := s.profileSIDs(ctx)

	excluded := make(map[string]bool, len(s.opts.Excluded))
	for _, name := range s.opts.Excluded {
		excluded[strings.ToLower(name)] = true
	}

	var profiles []models.UserProfile
	for _, entry := range entries {
		if !entry.IsDir() || excluded[strings.ToLower(entry.Name())] {
			continue
		}
		name := entry.Name()
		home := filepath.Join(s.opts.ProfileRoot, name)
		profiles = append(profiles, models.UserProfile{
			Name:           name,
			SID:            sids[strings.ToLower(home)],
			LocalAppData:   filepath.Join(home, "AppData", "Local"),
			RoamingAppData: filepath.Join(home, "AppData", "Roaming"),
			ProgramData:    filepath.Join(s.opts.ProgramDataRoot, name),
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Classify returns the installation root for a profile, or found=false when
// no installation marker exists. The local-app-data candidate takes priority
// over the program-data candidate when both exist.
func (s *Scanner) Classify(profile models.UserProfile) (installRoot string, found bool) {
	candidates := []string{
		filepath.Join(profile.LocalAppData, s.opts.AppDirRelPath),
		filepath.Join(profile.ProgramData, s.opts.AppDirRelPath),
	}
	for _, root := range candidates {
		if s.fs.FileExists(filepath.Join(root, s.opts.MarkerRelPath)) {
			return root, true
		}
	}
	return "", false
}

// profileSIDs maps lowercased profile home directories to SIDs using the
// machine's profile list. An empty map is returned where the registry is
// unavailable; per-user registry remediation is then skipped for the
// affected profiles.
func (s *Scanner) profileSIDs(ctx context.Context) map[string]string {
	sids := make(map[string]string)
	if !s.reg.IsAvailable() {
		return sids
	}

	names, err := s.reg.SubkeyNames(ctx, registry.HiveLocalMachine, profileListKey)
	if err != nil {
		s.logger.Debug("profile list not readable", "error", err)
		return sids
	}
	for _, sid := range names {
		image, err := s.reg.GetString(ctx, registry.HiveLocalMachine, profileListKey+`\`+sid, "ProfileImagePath")
		if err != nil {
			continue
		}
		sids[strings.ToLower(image)] = sid
	}
	return sids
}
