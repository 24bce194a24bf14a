package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config carries the runtime knobs of a single pipeline run. Values come
// from defaults here, overridden by the persistent config and CLI flags.
type Config struct {
	// Repo is the "owner/name" of the release repository.
	Repo string
	// Binary is the name of the managed executable.
	Binary string
	// InstallPath is where the active binary is placed system-wide.
	InstallPath string
	// APIBaseURL points at the release API (overridable for tests).
	APIBaseURL string
	// HTTPTimeout bounds every network call.
	HTTPTimeout time.Duration
	// CacheTTL bounds release metadata freshness.
	CacheTTL time.Duration
	// KeepVersions is the retention bound K: non-current records kept.
	KeepVersions int
	// DownloadRetries bounds from-scratch retries of the artifact download.
	DownloadRetries int
}

const (
	DefaultRepo        = "sst/opencode"
	DefaultBinary      = "opencode"
	DefaultInstallDir  = "/usr/bin"
	DefaultCacheTTL    = 1 * time.Hour
	DefaultKeep        = 2
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRetries     = 3
)

func Default() Config {
	return Config{
		Repo:            DefaultRepo,
		Binary:          DefaultBinary,
		InstallPath:     DefaultInstallDir + "/" + DefaultBinary,
		APIBaseURL:      "https://api.github.com",
		HTTPTimeout:     DefaultHTTPTimeout,
		CacheTTL:        DefaultCacheTTL,
		KeepVersions:    DefaultKeep,
		DownloadRetries: DefaultRetries,
	}
}

// AssetCandidates returns release asset names to try, in priority order.
// ZIP first, tar.gz as fallback, matching how the releases are published.
func (c Config) AssetCandidates() []string {
	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x64"
	}
	base := fmt.Sprintf("%s-%s-%s", c.Binary, runtime.GOOS, arch)
	return []string{base + ".zip", base + ".tar.gz"}
}
