// Package fetch is the typed HTTP client every upstream catalog (Mojang,
// Fabric/Quilt meta, Modrinth, Adoptium) goes through: JSON decoding,
// checksum-verified streaming downloads, retries with backoff, and a global
// concurrency bound so bulk installs never open unbounded sockets.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchercore/internal/errs"
)

const (
	defaultConcurrency = 8
	connectTimeout     = 10 * time.Second
	readTimeout        = 60 * time.Second
)

// Expected describes the verification to perform on a downloaded file.
// Either field may be zero to skip that check.
type Expected struct {
	SHA1 string
	Size int64
}

// Fetcher issues retried, optionally checksum-verified HTTP requests under a
// global concurrency bound. One Fetcher is shared across the whole process.
type Fetcher struct {
	client *retryablehttp.Client
	sem    chan struct{}
}

// New builds a Fetcher. concurrency <= 0 uses the default of 8 simultaneous
// downloads (§4.2).
func New(concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 4 * time.Second
	// Waits grow fourfold per attempt: 250ms, 1s, 4s. A 429 defers to
	// retryablehttp's default, which honours the server's Retry-After.
	rc.Backoff = func(lo, hi time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return retryablehttp.DefaultBackoff(lo, hi, attemptNum, resp)
		}
		wait := lo << (2 * uint(attemptNum))
		if wait <= 0 || wait > hi {
			return hi
		}
		return wait
	}
	rc.Logger = nil
	rc.CheckRetry = checkRetry
	rc.HTTPClient.Timeout = readTimeout
	rc.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
	}

	return &Fetcher{
		client: rc,
		sem:    make(chan struct{}, concurrency),
	}
}

// checkRetry retries on transport errors and 429, but treats every other
// 4xx as terminal (§4.2: "4xx is terminal except 429").
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (f *Fetcher) acquire(ctx context.Context) error {
	select {
	case f.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) release() { <-f.sem }

// GetJSON fetches url and decodes its body into out.
func GetJSON[T any](ctx context.Context, f *Fetcher, url string) (T, error) {
	var out T
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, errs.Wrap(errs.Internal, "building request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return out, classifyTransportErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, classifyStatusErr(url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, errs.Wrap(errs.Network, "decoding response body", err)
	}
	return out, nil
}

// Download fetches url to dest, verifying against expected when provided.
// Idempotence: if dest already matches expected.SHA1 (or Size when no hash
// is known), the download is skipped entirely — no network I/O occurs.
// Partial files that don't match the expected hash are discarded, never
// resumed mid-stream.
func (f *Fetcher) Download(ctx context.Context, url, dest string, expected Expected) error {
	if expected.SHA1 != "" {
		if hash, err := sha1File(dest); err == nil && hash == expected.SHA1 {
			return nil
		}
	} else if expected.Size > 0 {
		if info, err := os.Stat(dest); err == nil && info.Size() == expected.Size {
			return nil
		}
	}

	if err := f.acquire(ctx); err != nil {
		return errs.Wrap(errs.Cancelled, "waiting for download slot", err)
	}
	defer f.release()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.Wrap(errs.Filesystem, "creating destination directory", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.Internal, "building request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyTransportErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatusErr(url, resp.StatusCode)
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return errs.Wrap(errs.Filesystem, "creating temp file", err)
	}

	hasher := sha1.New()
	writer := io.MultiWriter(out, hasher)
	written, copyErr := io.CopyBuffer(writer, resp.Body, make([]byte, 64*1024))

	if copyErr != nil {
		out.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.Network, "streaming response body", copyErr)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.Filesystem, "closing temp file", err)
	}

	if expected.Size > 0 && written != expected.Size {
		os.Remove(tmp)
		return errs.New(errs.Checksum, fmt.Sprintf("size mismatch for %s: expected %s got %s",
			url, humanize.Bytes(uint64(expected.Size)), humanize.Bytes(uint64(written))))
	}

	if expected.SHA1 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != expected.SHA1 {
			os.Remove(tmp)
			return errs.New(errs.Checksum, fmt.Sprintf("hash mismatch for %s: expected %s got %s", url, expected.SHA1, got))
		}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.Filesystem, "renaming downloaded file", err)
	}
	return nil
}

func sha1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, 64*1024)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func classifyTransportErr(url string, err error) error {
	return errs.Wrap(errs.Network, "fetching "+stripQuery(url), err)
}

func classifyStatusErr(url string, status int) error {
	return errs.New(errs.Network, fmt.Sprintf("unexpected status %s for %s", strconv.Itoa(status), stripQuery(url)))
}

// stripQuery drops any query string so tokens embedded in signed URLs never
// leak into error messages.
func stripQuery(url string) string {
	for i, c := range url {
		if c == '?' {
			return url[:i]
		}
	}
	return url
}
