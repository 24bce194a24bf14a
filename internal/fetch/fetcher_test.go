package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrydr/tapline/internal/errs"
)

type fakeHTTPClient struct {
	calls  int
	DoFunc func(call int, req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return f.DoFunc(f.calls, req)
}

func bodyResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetchSuccessWithProgress(t *testing.T) {
	payload := strings.Repeat("x", 3*chunkSize/2)
	fake := &fakeHTTPClient{DoFunc: func(_ int, req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://dl.example.com/a.zip", req.URL.String())
		return bodyResponse(200, payload), nil
	}}
	f := New(fake, 3)

	var lastDone, lastTotal int64
	var updates int
	path, err := f.Fetch(context.Background(), "https://dl.example.com/a.zip", 0, func(done, total int64) {
		lastDone, lastTotal = done, total
		updates++
	})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	assert.Equal(t, int64(len(payload)), lastDone)
	assert.Equal(t, int64(len(payload)), lastTotal)
	assert.GreaterOrEqual(t, updates, 2, "more than one chunk means more than one update")
	assert.Equal(t, 1, fake.calls)
}

func TestFetchUnknownLengthUsesSizeHint(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(_ int, _ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    200,
			ContentLength: -1,
			Body:          io.NopCloser(strings.NewReader("payload")),
		}, nil
	}}
	f := New(fake, 1)

	var seenTotal int64
	path, err := f.Fetch(context.Background(), "https://dl.example.com/a.zip", 42, func(_, total int64) {
		seenTotal = total
	})
	require.NoError(t, err)
	defer os.Remove(path)
	assert.Equal(t, int64(42), seenTotal)
}

func TestFetchNotFoundDoesNotRetry(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(_ int, _ *http.Request) (*http.Response, error) {
		return bodyResponse(404, "not found"), nil
	}}
	f := New(fake, 3)

	_, err := f.Fetch(context.Background(), "https://dl.example.com/a.zip", 0, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ReleaseAPIError))
	assert.Equal(t, 1, fake.calls, "a hard 404 must not be retried")
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(call int, _ *http.Request) (*http.Response, error) {
		if call < 3 {
			return nil, errors.New("connection reset")
		}
		return bodyResponse(200, "eventually"), nil
	}}
	f := New(fake, 3)

	path, err := f.Fetch(context.Background(), "https://dl.example.com/a.zip", 0, nil)
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eventually", string(data))
	assert.Equal(t, 3, fake.calls)
}

func TestFetchExhaustsRetries(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(_ int, _ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	}}
	f := New(fake, 2)

	_, err := f.Fetch(context.Background(), "https://dl.example.com/a.zip", 0, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.NetworkError))
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, fake.calls)
}

func TestFetchCancelledMidDownload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// cancel once the first chunk has been observed; the loop must stop at
	// the next chunk boundary without exhausting the body
	body := &slowReader{data: strings.Repeat("y", 4*chunkSize), cancel: cancel}
	fake := &fakeHTTPClient{DoFunc: func(_ int, _ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    200,
			ContentLength: int64(len(body.data)),
			Body:          io.NopCloser(body),
		}, nil
	}}
	f := New(fake, 3)

	_, err := f.Fetch(ctx, "https://dl.example.com/a.zip", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fake.calls, "cancellation must not be retried")
}

func TestFetchRejectsInsecureURL(t *testing.T) {
	fake := &fakeHTTPClient{DoFunc: func(_ int, _ *http.Request) (*http.Response, error) {
		t.Fatal("request must be rejected before reaching the client")
		return nil, nil
	}}
	f := New(fake, 1)

	_, err := f.Fetch(context.Background(), "http://dl.example.com/a.zip", 0, nil)
	require.Error(t, err)
}

// slowReader hands out one chunk at a time and cancels the context after
// the first read, so the fetch loop hits a boundary with ctx already done.
type slowReader struct {
	data   string
	off    int
	cancel context.CancelFunc
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	r.cancel()
	return n, nil
}
