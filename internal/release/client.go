package release

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lowrydr/tapline/internal/config"
	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/service"
)

// Client queries the release API, consulting and populating the cache.
// Fresh cache entries short-circuit the network entirely; stale entries are
// only served when the network query fails.
type Client struct {
	cfg   config.Config
	http  service.HTTPClient
	cache *Cache
}

func NewClient(cfg config.Config, http service.HTTPClient, cache *Cache) *Client {
	if http == nil {
		http = service.NewHTTPClient(cfg.HTTPTimeout)
	}
	return &Client{cfg: cfg, http: http, cache: cache}
}

// Latest returns the most recent release.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.cfg.APIBaseURL, c.cfg.Repo)
	var rel Release
	if err := c.getCached(ctx, "latest", url, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// ByTag returns the release for an exact tag name.
func (c *Client) ByTag(ctx context.Context, tag string) (*Release, error) {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.cfg.APIBaseURL, c.cfg.Repo, tag)
	var rel Release
	if err := c.getCached(ctx, "tag:"+tag, url, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// Recent lists the n most recent releases, newest first.
func (c *Client) Recent(ctx context.Context, n int) ([]Release, error) {
	if n <= 0 {
		n = 10
	}
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", c.cfg.APIBaseURL, c.cfg.Repo, n)
	var rels []Release
	if err := c.getCached(ctx, fmt.Sprintf("recent:%d", n), url, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// Checksum resolves the published digest for an asset: a "<asset>.sha256"
// sidecar first, then a checksums.txt manifest. An empty string with a nil
// error means no digest is published for this asset.
func (c *Client) Checksum(ctx context.Context, rel *Release, assetName string) (string, error) {
	const maxChecksumSize = 1 << 20

	if sidecar, ok := rel.FindAsset(assetName + ".sha256"); ok {
		body, err := service.GetBytes(ctx, c.http, sidecar.BrowserDownloadURL, maxChecksumSize)
		if err != nil {
			return "", err
		}
		fields := strings.Fields(string(body))
		if len(fields) == 0 {
			return "", errs.New(errs.ReleaseAPIError, "empty checksum sidecar for %s", assetName)
		}
		return fields[0], nil
	}

	if manifest, ok := rel.FindAsset("checksums.txt"); ok {
		body, err := service.GetBytes(ctx, c.http, manifest.BrowserDownloadURL, maxChecksumSize)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(body), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 2 && fields[1] == assetName {
				return fields[0], nil
			}
		}
	}

	return "", nil
}

// getCached implements the cache-first policy shared by all queries.
func (c *Client) getCached(ctx context.Context, key, url string, out any) error {
	var stalePayload []byte
	if c.cache != nil {
		payload, fresh, ok := c.cache.Get(key)
		if ok && fresh {
			logger.Debug("cache hit for %q", key)
			return json.Unmarshal(payload, out)
		}
		if ok {
			stalePayload = payload
		}
	}

	if err := service.GetJSON(ctx, c.http, url, out); err != nil {
		if stalePayload != nil && errs.IsKind(err, errs.NetworkError) {
			logger.Warn("network unavailable, serving possibly stale release data for %q", key)
			if uerr := json.Unmarshal(stalePayload, out); uerr != nil {
				return err
			}
			markStale(out)
			return nil
		}
		return err
	}

	if c.cache != nil {
		payload, merr := json.Marshal(out)
		if merr == nil {
			if perr := c.cache.Put(key, payload); perr != nil {
				logger.Debug("cache write for %q failed: %v", key, perr)
			}
		}
	}
	return nil
}

func markStale(out any) {
	switch v := out.(type) {
	case *Release:
		v.Stale = true
	case *[]Release:
		for i := range *v {
			(*v)[i].Stale = true
		}
	}
}
