package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lowrydr/tapline/internal/archive"
	"github.com/lowrydr/tapline/internal/config"
	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/fetch"
	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/release"
	"github.com/lowrydr/tapline/internal/store"
	"github.com/lowrydr/tapline/internal/sysbin"
	"github.com/lowrydr/tapline/internal/verify"
	"github.com/lowrydr/tapline/internal/version"
)

// Pipeline orchestrates release client, fetcher, verifier, extractor and
// store. It is the only component allowed to move the current pointer.
// Scratch files hold every intermediate byte; the store is touched only by
// the final atomic install, so a failure at any stage leaves durable state
// exactly as it was.
type Pipeline struct {
	cfg      config.Config
	client   *release.Client
	fetcher  *fetch.Fetcher
	store    *store.Store
	sys      *sysbin.Manager
	observer fetch.Observer
}

func New(cfg config.Config, client *release.Client, fetcher *fetch.Fetcher, st *store.Store, sys *sysbin.Manager) *Pipeline {
	if sys == nil {
		sys = sysbin.New(nil)
	}
	return &Pipeline{cfg: cfg, client: client, fetcher: fetcher, store: st, sys: sys}
}

// SetObserver installs a progress observer for downloads. Display lives
// outside the core; nil is fine.
func (p *Pipeline) SetObserver(obs fetch.Observer) { p.observer = obs }

// UpdateOptions tune a single update run.
type UpdateOptions struct {
	// Force bypasses the "already up to date" short-circuit.
	Force bool
	// Asset overrides the configured asset candidate list.
	Asset string
}

// Update runs the full state machine: fetch metadata, compare versions,
// download, verify, extract, install, activate.
func (p *Pipeline) Update(ctx context.Context, opts UpdateOptions) (*Result, error) {
	res := &Result{}

	// Fetching
	rel, err := p.client.Latest(ctx)
	if err != nil {
		return nil, errs.WithStage(err, string(StageFetching))
	}
	res.Stale = rel.Stale

	localVer, err := p.localVersion(ctx)
	if err != nil {
		return nil, errs.WithStage(err, string(StageFetching))
	}

	remoteVer := rel.Version()
	if localVer != "" {
		newer, err := version.IsNewer(remoteVer, localVer)
		if err != nil {
			return nil, errs.WithStage(err, string(StageFetching))
		}
		if !newer && !opts.Force {
			res.Outcome = UpToDate
			res.From = localVer
			res.To = remoteVer
			return res, nil
		}
	}

	exe, checksum, url, warnings, err := p.obtain(ctx, rel, opts.Asset)
	if err != nil {
		return nil, err
	}
	res.Warnings = warnings

	// Installing
	rec := store.Record{
		Version:      remoteVer,
		TagName:      rel.TagName,
		ReleaseDate:  rel.PublishedAt,
		DownloadURL:  url,
		Checksum:     checksum,
		InstallPath:  p.cfg.InstallPath,
		ReleaseNotes: rel.Body,
	}
	rec, err = p.store.Install(rec, exe.Data, exe.Mode)
	if err != nil {
		return nil, errs.WithStage(err, string(StageInstalling))
	}

	// Activating
	if err := p.activate(ctx, rec.Version); err != nil {
		return nil, err
	}

	res.Outcome = Updated
	res.From = localVer
	res.To = remoteVer
	return res, nil
}

// Rollback reuses a stored version: no network, no verification, just
// Installing(existing bytes) then Activating.
func (p *Pipeline) Rollback(ctx context.Context, ver string) (*Result, error) {
	ver = version.Normalize(ver)
	rec, ok, err := p.store.Get(ver)
	if err != nil {
		return nil, errs.WithStage(err, string(StageInstalling))
	}
	if !ok {
		return nil, errs.WithStage(errs.New(errs.VersionNotFound, "version %q not found in store", ver), string(StageInstalling))
	}

	cur, hasCur, err := p.store.CurrentVersion()
	if err != nil {
		return nil, errs.WithStage(err, string(StageInstalling))
	}

	// validates the stored binary is present, non-empty and executable
	if _, _, err := p.store.ReadBinary(rec.Version); err != nil {
		return nil, errs.WithStage(err, string(StageInstalling))
	}

	if err := p.activate(ctx, rec.Version); err != nil {
		return nil, err
	}

	res := &Result{Outcome: RolledBack, To: rec.Version}
	if hasCur {
		res.From = cur
	}
	return res, nil
}

// ListRecords returns the stored versions, newest install first.
func (p *Pipeline) ListRecords() (*Result, error) {
	records, err := p.store.List()
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: Listed, Records: records}, nil
}

// RecentReleases lists the n most recent remote releases, newest first.
func (p *Pipeline) RecentReleases(ctx context.Context, n int) ([]release.Release, error) {
	rels, err := p.client.Recent(ctx, n)
	if err != nil {
		return nil, errs.WithStage(err, string(StageFetching))
	}
	return rels, nil
}

// Compare is a dry run: it fetches both releases and reports the diff
// without touching the store. Either side may be "latest".
func (p *Pipeline) Compare(ctx context.Context, from, to string) (*Result, error) {
	fromRel, err := p.resolve(ctx, from)
	if err != nil {
		return nil, errs.WithStage(err, string(StageFetching))
	}
	toRel, err := p.resolve(ctx, to)
	if err != nil {
		return nil, errs.WithStage(err, string(StageFetching))
	}

	return &Result{
		Outcome: Compared,
		From:    fromRel.Version(),
		To:      toRel.Version(),
		Stale:   fromRel.Stale || toRel.Stale,
		Diff: &Comparison{
			FromTag:  fromRel.TagName,
			ToTag:    toRel.TagName,
			FromDate: fromRel.PublishedAt,
			ToDate:   toRel.PublishedAt,
			Notes:    toRel.Body,
		},
	}, nil
}

// Changelog returns the release notes for a tag, or the latest release
// when ver is empty.
func (p *Pipeline) Changelog(ctx context.Context, ver string) (*release.Release, error) {
	return p.resolve(ctx, ver)
}

// obtain walks the asset candidates in priority order: download, verify,
// extract. An unavailable asset falls through to the next candidate; an
// integrity failure aborts the run immediately since trying another asset
// after a mismatch could mask tampering.
func (p *Pipeline) obtain(ctx context.Context, rel *release.Release, override string) (exe *archive.Executable, checksum, url string, warnings []string, err error) {
	candidates := p.cfg.AssetCandidates()
	if override != "" {
		candidates = []string{override}
	}

	var lastErr error
	for _, name := range candidates {
		asset, ok := rel.FindAsset(name)
		if !ok {
			logger.Debug("release %s has no asset %q", rel.TagName, name)
			lastErr = errs.New(errs.ReleaseAPIError, "release %s has no asset %q", rel.TagName, name)
			continue
		}
		kind, ok := archive.KindForName(name)
		if !ok {
			lastErr = errs.New(errs.ArchiveError, "no supported archive format for asset %q", name)
			continue
		}

		// a published digest that cannot be fetched is an integrity
		// failure, not a missing digest
		expected, cerr := p.client.Checksum(ctx, rel, name)
		if cerr != nil {
			return nil, "", "", nil, errs.WithStage(cerr, string(StageVerifying))
		}

		// Downloading
		scratch, derr := p.fetcher.Fetch(ctx, asset.BrowserDownloadURL, asset.Size, p.observer)
		if derr != nil {
			if ctx.Err() != nil {
				return nil, "", "", nil, errs.WithStage(derr, string(StageDownloading))
			}
			logger.Warn("asset %s unavailable, trying next candidate: %v", name, derr)
			lastErr = derr
			continue
		}
		data, rerr := os.ReadFile(scratch)
		_ = os.Remove(scratch)
		if rerr != nil {
			return nil, "", "", nil, errs.WithStage(errs.Wrap(errs.StorageError, rerr, "failed to read scratch file"), string(StageDownloading))
		}

		// Verifying
		switch check := verify.Check(data, expected); check.Outcome {
		case verify.Mismatch:
			return nil, "", "", nil, errs.WithStage(errs.Mismatch(check.Expected, check.Actual), string(StageVerifying))
		case verify.SkippedNoDigestPublished:
			warnings = append(warnings, fmt.Sprintf("no published checksum for %s; integrity not verified", name))
		case verify.Verified:
			checksum = check.Expected
		}

		// Extracting
		exe, err = archive.ExtractExecutable(data, kind, p.cfg.Binary)
		if err != nil {
			return nil, "", "", nil, errs.WithStage(err, string(StageExtracting))
		}
		return exe, checksum, asset.BrowserDownloadURL, warnings, nil
	}

	if lastErr == nil {
		lastErr = errs.New(errs.ReleaseAPIError, "release %s has no usable assets", rel.TagName)
	}
	return nil, "", "", nil, errs.WithStage(lastErr, string(StageDownloading))
}

// activate places the stored binary system-wide, then moves the current
// pointer. Pointer last: it must never reference a version that is not
// fully in place.
func (p *Pipeline) activate(ctx context.Context, ver string) error {
	if err := p.sys.Install(ctx, p.store.BinaryPath(ver), p.cfg.InstallPath); err != nil {
		return errs.WithStage(err, string(StageActivating))
	}
	if err := p.store.SetCurrent(ver); err != nil {
		return errs.WithStage(err, string(StageActivating))
	}
	return nil
}

// localVersion resolves what is currently active: the store's current
// pointer, else a probe of the system binary. A probed installation is
// backed up into the store so it stays retrievable after the update.
func (p *Pipeline) localVersion(ctx context.Context) (string, error) {
	rec, ok, err := p.store.Current()
	if err != nil {
		return "", err
	}
	if ok {
		return rec.Version, nil
	}

	probed, ok := p.sys.Probe(ctx, p.cfg.Binary, p.cfg.InstallPath)
	if !ok {
		return "", nil
	}

	if data, rerr := os.ReadFile(p.cfg.InstallPath); rerr == nil && len(data) > 0 {
		if _, ierr := p.store.Install(probed, data, 0o755); ierr != nil {
			logger.Debug("backup of probed version %s failed: %v", probed.Version, ierr)
		} else if serr := p.store.SetCurrent(probed.Version); serr != nil {
			logger.Debug("failed to mark backed-up version %s current: %v", probed.Version, serr)
		} else {
			logger.Info("Backed up current installation %s into the store", probed.Version)
		}
	}
	return probed.Version, nil
}

// resolve maps "latest"/"" to the latest release, else a tag lookup.
func (p *Pipeline) resolve(ctx context.Context, ver string) (*release.Release, error) {
	if ver == "" || ver == "latest" {
		return p.client.Latest(ctx)
	}
	return p.client.ByTag(ctx, ver)
}

// FormatNotes renders a release's notes block for display.
func FormatNotes(rel *release.Release) string {
	name := rel.Name
	if name == "" {
		name = rel.TagName
	}
	body := rel.Body
	if body == "" {
		body = "No release notes available."
	}
	return fmt.Sprintf("Release: %s (%s)\nPublished: %s\n\n%s\n",
		name, rel.TagName, rel.PublishedAt.Format(time.RFC1123), body)
}
