package release

import (
	"time"

	"github.com/lowrydr/tapline/internal/version"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Release is the remote metadata for one published version. Instances are
// immutable once fetched; the cache owns them for the duration of the TTL.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body"`
	Assets      []Asset   `json:"assets"`

	// Stale is set when the release was served from an expired cache entry
	// because the network was unavailable.
	Stale bool `json:"-"`
}

// Version returns the semantic version the tag names.
func (r *Release) Version() string {
	return version.Normalize(r.TagName)
}

// FindAsset returns the asset with the exact given name, if present.
func (r *Release) FindAsset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}
