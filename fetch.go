package imgenhance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultMaxBytes caps the size of a fetched source image.
const DefaultMaxBytes = 64 << 20

// ErrFetch is returned when the source image cannot be retrieved.
var ErrFetch = errors.New("imgenhance: fetch failed")

// IsRemote reports whether source names an http or https resource.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch returns the raw bytes of source, which is an http(s) URL, a
// file:// URL or a local path. Bodies larger than maxBytes are rejected;
// maxBytes <= 0 means DefaultMaxBytes. A nil client uses
// http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, source string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if IsRemote(source) {
		return fetchHTTP(ctx, client, source, maxBytes)
	}
	return readFile(source, maxBytes)
}

func fetchHTTP(ctx context.Context, client *http.Client, source string, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, source, resp.Status)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %s: %d bytes exceeds limit of %d",
			ErrFetch, source, resp.ContentLength, maxBytes)
	}
	return readLimited(resp.Body, source, maxBytes)
}

func readFile(source string, maxBytes int64) ([]byte, error) {
	path := source
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer f.Close()
	return readLimited(f, source, maxBytes)
}

// readLimited reads at most maxBytes from r, failing if more remain.
func readLimited(r io.Reader, source string, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFetch, source, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds limit of %d bytes", ErrFetch, source, maxBytes)
	}
	return data, nil
}
