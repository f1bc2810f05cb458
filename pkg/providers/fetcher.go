package providers

import (
	"context"
	"time"

	"github.com/Adda-Baaj/startup-pulse/internal/domain"
	"github.com/Adda-Baaj/startup-pulse/pkg/httpclient"
)

// DefaultRequestTimeout bounds a single search call.
const DefaultRequestTimeout = 10 * time.Second

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Fetcher runs one search query against an article source.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, query string) ([]domain.Article, error)
}

// DefaultHTTPClient returns a resty-backed client for fetchers. A
// non-positive timeout falls back to DefaultRequestTimeout.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return httpclient.NewRestyClient(timeout)
}
