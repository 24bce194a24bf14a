package release

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrydr/tapline/internal/config"
	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/utils"
)

type fakeHTTPClient struct {
	calls  int
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return f.DoFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.APIBaseURL = "https://api.example.com"
	return cfg
}

const releaseBody = `{
	"tag_name": "v1.0.73",
	"name": "v1.0.73",
	"published_at": "2025-06-01T12:00:00Z",
	"body": "notes",
	"assets": [
		{"name": "opencode-linux-x64.zip", "browser_download_url": "https://dl.example.com/a.zip", "size": 10}
	]
}`

func TestLatestPopulatesCache(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	fake := &fakeHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		assert.Contains(t, req.URL.Path, "/releases/latest")
		return jsonResponse(200, releaseBody), nil
	}}
	c := NewClient(testConfig(), fake, cache)

	rel, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.73", rel.Version())
	assert.False(t, rel.Stale)
	assert.Equal(t, 1, fake.calls)

	// second call is served from cache without touching the network
	rel2, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rel.TagName, rel2.TagName)
	assert.Equal(t, 1, fake.calls)
}

func TestStaleFallbackOnNetworkFailure(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	// seed an expired entry
	var rel Release
	require.NoError(t, json.Unmarshal([]byte(releaseBody), &rel))
	payload, _ := json.Marshal(&rel)
	writeEntryPayloadAt(t, cache, "latest", payload, time.Now().Add(-2*time.Hour))

	fake := &fakeHTTPClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	c := NewClient(testConfig(), fake, cache)

	got, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Stale, "fallback release must be flagged as possibly stale")
	assert.Equal(t, "v1.0.73", got.TagName)
}

func TestNetworkFailureWithoutCache(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	fake := &fakeHTTPClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	c := NewClient(testConfig(), fake, cache)

	_, err = c.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.NetworkError))
}

func TestAPIErrorIsNotRecoveredFromStaleCache(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)
	writeEntryPayloadAt(t, cache, "latest", []byte(releaseBody), time.Now().Add(-2*time.Hour))

	fake := &fakeHTTPClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		return jsonResponse(500, "boom"), nil
	}}
	c := NewClient(testConfig(), fake, cache)

	_, err = c.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ReleaseAPIError))
}

func TestByTagAndRecentUseOwnKeys(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	fake := &fakeHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "/releases/tags/") {
			return jsonResponse(200, releaseBody), nil
		}
		return jsonResponse(200, "["+releaseBody+"]"), nil
	}}
	c := NewClient(testConfig(), fake, cache)

	rel, err := c.ByTag(context.Background(), "1.0.73")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.73", rel.TagName)

	rels, err := c.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, 2, fake.calls, "tag and list queries must not share a cache entry")
}

func TestChecksumSidecar(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, "cafebabe  opencode-linux-x64.zip\n"), nil
	}}
	c := NewClient(testConfig(), fake, nil)

	rel := &Release{
		TagName: "v1.0.73",
		Assets: []Asset{
			{Name: "opencode-linux-x64.zip", BrowserDownloadURL: "https://dl.example.com/a.zip"},
			{Name: "opencode-linux-x64.zip.sha256", BrowserDownloadURL: "https://dl.example.com/a.zip.sha256"},
		},
	}

	sum, err := c.Checksum(context.Background(), rel, "opencode-linux-x64.zip")
	require.NoError(t, err)
	assert.Equal(t, "cafebabe", sum)
}

func TestChecksumManifest(t *testing.T) {
	manifest := "aaaa  other.zip\nbbbb  opencode-linux-x64.zip\n"
	fake := &fakeHTTPClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		return jsonResponse(200, manifest), nil
	}}
	c := NewClient(testConfig(), fake, nil)

	rel := &Release{
		TagName: "v1.0.73",
		Assets: []Asset{
			{Name: "opencode-linux-x64.zip", BrowserDownloadURL: "https://dl.example.com/a.zip"},
			{Name: "checksums.txt", BrowserDownloadURL: "https://dl.example.com/checksums.txt"},
		},
	}

	sum, err := c.Checksum(context.Background(), rel, "opencode-linux-x64.zip")
	require.NoError(t, err)
	assert.Equal(t, "bbbb", sum)
}

func TestChecksumAbsent(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		t.Fatal("no network call expected when no digest asset exists")
		return nil, nil
	}}
	c := NewClient(testConfig(), fake, nil)

	rel := &Release{TagName: "v1.0.73", Assets: []Asset{{Name: "opencode-linux-x64.zip"}}}
	sum, err := c.Checksum(context.Background(), rel, "opencode-linux-x64.zip")
	require.NoError(t, err)
	assert.Empty(t, sum)
}

func writeEntryPayloadAt(t *testing.T, c *Cache, key string, payload []byte, fetchedAt time.Time) {
	t.Helper()
	entry := cacheEntry{Key: key, FetchedAt: fetchedAt, Payload: payload}
	require.NoError(t, utils.WriteJSONAtomic(c.path(key), entry))
}
