package sysbin

import (
	"context"
	"strings"
	"time"

	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/runner"
	"github.com/lowrydr/tapline/internal/store"
	"github.com/lowrydr/tapline/internal/version"
)

// Manager covers the two interactions with the system-installed binary:
// probing its version and placing a new one with elevated privileges.
type Manager struct {
	Runner runner.CommandRunner
}

const probeTimeout = 10 * time.Second

func New(r runner.CommandRunner) *Manager {
	if r == nil {
		r = &runner.ExecRunner{}
	}
	return &Manager{Runner: r}
}

// Probe asks the installed binary for its version. Used only as a
// fallback when the store has no current pointer yet. A failed probe is
// not an error: it just means nothing usable is installed.
func (m *Manager) Probe(ctx context.Context, binary, installPath string) (store.Record, bool) {
	out, err := m.Runner.Run(ctx, probeTimeout, runner.Capture, binary, "--version")
	if err != nil {
		logger.Debug("version probe of %s failed: %v", binary, err)
		return store.Record{}, false
	}

	ver := version.Normalize(parseProbeOutput(string(out)))
	if _, perr := version.Parse(ver); perr != nil {
		logger.Debug("version probe of %s produced unparseable output %q", binary, strings.TrimSpace(string(out)))
		return store.Record{}, false
	}

	now := time.Now().UTC()
	return store.Record{
		Version:      ver,
		TagName:      "v" + ver,
		ReleaseDate:  now, // unknown; probe cannot recover it
		InstalledAt:  now,
		InstallPath:  installPath,
		ReleaseNotes: "Currently installed version (release notes unknown)",
	}, true
}

// Install places src at installPath through the privilege-elevation
// mechanism and marks it executable. The elevation call is opaque: it
// either succeeds or the whole placement fails as a PermissionError.
func (m *Manager) Install(ctx context.Context, src, installPath string) error {
	if out, err := m.Runner.Run(ctx, 0, runner.Stream, "sudo", "cp", src, installPath); err != nil {
		return errs.Wrap(errs.PermissionError, err, "failed to place binary at %s: %s", installPath, strings.TrimSpace(string(out)))
	}
	if out, err := m.Runner.Run(ctx, 0, runner.Stream, "sudo", "chmod", "+x", installPath); err != nil {
		return errs.Wrap(errs.PermissionError, err, "failed to mark %s executable: %s", installPath, strings.TrimSpace(string(out)))
	}
	return nil
}

// parseProbeOutput pulls the first version-looking token from the probe
// output, tolerating banners like "opencode v1.0.73 (linux/amd64)".
func parseProbeOutput(out string) string {
	for _, field := range strings.Fields(out) {
		candidate := version.Normalize(field)
		if _, err := version.Parse(candidate); err == nil {
			return candidate
		}
	}
	return strings.TrimSpace(out)
}
