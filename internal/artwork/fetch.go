// Package artwork downloads album art and turns it into display-ready PNG.
package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/micro-nova/nowplaying/internal/models"
)

const (
	DefaultMaxBytes = 8 << 20
	DefaultTimeout  = 10 * time.Second
)

// Fetcher retrieves the raw bytes behind an art URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher fetches http(s):// and file:// URLs. Bodies larger than
// MaxBytes are rejected.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with the given body cap and a client
// bounded by timeout. Zero values select defaults.
func NewHTTPFetcher(maxBytes int64, timeout time.Duration) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", models.ErrFetchFailure, rawURL, err)
	}

	switch u.Scheme {
	case "file":
		return f.readFile(u.Path)
	case "http", "https":
		return f.get(ctx, u.String())
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", models.ErrFetchFailure, u.Scheme)
	}
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", models.ErrFetchFailure, rawURL, resp.Status)
	}
	if resp.ContentLength > f.maxBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", models.ErrFetchFailure, rawURL, resp.ContentLength, f.maxBytes())
	}
	return f.readCapped(resp.Body)
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetchFailure, err)
	}
	defer fh.Close()
	return f.readCapped(fh)
}

func (f *HTTPFetcher) readCapped(r io.Reader) ([]byte, error) {
	limit := f.maxBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrFetchFailure, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: image larger than %d bytes", models.ErrFetchFailure, limit)
	}
	return data, nil
}

func (f *HTTPFetcher) maxBytes() int64 {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}

var _ Fetcher = (*HTTPFetcher)(nil)
