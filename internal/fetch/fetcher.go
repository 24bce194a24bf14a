package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/service"
	"github.com/lowrydr/tapline/internal/utils"
)

// Observer receives progress updates during a download. total is -1 when
// the server did not announce a size. Observers must be cheap: they run on
// the download goroutine and are advisory only.
type Observer func(done, total int64)

// Fetcher downloads release artifacts into private scratch files so
// partially written bytes can never be mistaken for a complete artifact.
type Fetcher struct {
	client  service.HTTPClient
	retries int
}

const chunkSize = 64 * 1024

func New(client service.HTTPClient, retries int) *Fetcher {
	if client == nil {
		client = service.NewHTTPClient(30 * time.Second)
	}
	if retries < 1 {
		retries = 1
	}
	return &Fetcher{client: client, retries: retries}
}

// Fetch downloads url into a scratch file and returns its path. The caller
// owns the file and must remove it. Transient failures are retried from
// scratch up to the configured bound; there is no partial resume.
func (f *Fetcher) Fetch(ctx context.Context, url string, sizeHint int64, obs Observer) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path, err := f.fetchOnce(ctx, url, sizeHint, obs)
		if err == nil {
			return path, nil
		}
		if !retryable(ctx, err) {
			return "", err
		}
		lastErr = err
		logger.Debug("download attempt %d/%d for %s failed: %v", attempt, f.retries, url, err)
	}
	return "", errs.Wrap(errs.NetworkError, lastErr, "download of %s failed after %d attempts", url, f.retries)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, sizeHint int64, obs Observer) (path string, err error) {
	req, err := service.NewRequest(ctx, url)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.NetworkError, err, "GET %s failed", url)
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode == http.StatusNotFound {
		return "", errs.New(errs.ReleaseAPIError, "GET %s: asset not found (404)", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errs.New(errs.NetworkError, "GET %s: unexpected status %d", url, resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = sizeHint
	}
	if total <= 0 {
		total = -1 // unknown; observer shows spinner semantics
	}

	scratch, err := os.CreateTemp("", "tapline-download-*")
	if err != nil {
		return "", errs.Wrap(errs.StorageError, err, "failed to create scratch file")
	}
	defer func() {
		if cerr := scratch.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(scratch.Name())
		}
	}()

	var done int64
	buf := make([]byte, chunkSize)
	for {
		// cancellation is checked at chunk boundaries only
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := scratch.Write(buf[:n]); werr != nil {
				return "", errs.Wrap(errs.StorageError, werr, "failed to write scratch file")
			}
			done += int64(n)
			if obs != nil {
				obs(done, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", errs.Wrap(errs.NetworkError, rerr, "GET %s: read failed at byte %d", url, done)
		}
	}

	if err := scratch.Sync(); err != nil {
		return "", errs.Wrap(errs.StorageError, err, "failed to sync scratch file")
	}
	return scratch.Name(), nil
}

// retryable: network hiccups are retried; cancellation, storage problems
// and hard 404s are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errs.IsKind(err, errs.NetworkError)
}
