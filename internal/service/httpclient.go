package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{Client: &http.Client{Timeout: timeout}}
}

const userAgent = "tapline"

// NewRequest builds a GET request with the shared headers; only https URLs
// are accepted.
func NewRequest(ctx context.Context, url string) (*http.Request, error) {
	parsed, err := utils.ParseSecureURL(url)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// GetJSON fetches url and decodes the response body into out.
func GetJSON(ctx context.Context, c HTTPClient, url string, out any) error {
	req, err := NewRequest(ctx, url)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return errs.Wrap(errs.NetworkError, err, "GET %s failed", url)
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.ReleaseAPIError, "GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.ReleaseAPIError, err, "GET %s: malformed response", url)
	}
	return nil
}

// GetBytes fetches url into memory, bounded by maxSize when > 0. Used for
// small side files like checksum sidecars, not for artifact downloads.
func GetBytes(ctx context.Context, c HTTPClient, url string, maxSize int64) ([]byte, error) {
	req, err := NewRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, err, "GET %s failed", url)
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.New(errs.NetworkError, "GET %s: unexpected status %d", url, resp.StatusCode)
	}

	var src io.Reader = resp.Body
	if maxSize > 0 {
		// read one byte past the cap so truncation is detectable
		src = io.LimitReader(resp.Body, maxSize+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, errs.New(errs.ReleaseAPIError, "GET %s: response exceeds %d bytes", url, maxSize)
	}
	return data, nil
}
