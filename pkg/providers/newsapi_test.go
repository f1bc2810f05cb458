package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const everythingOK = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {
      "source": {"id": null, "name": "YourStory"},
      "author": "Staff",
      "title": "Agritech startup raises seed round",
      "description": "A farm-to-fork platform closed its seed round.",
      "url": "https://example.com/a",
      "urlToImage": "https://example.com/a.jpg",
      "publishedAt": "2024-05-01T12:30:00Z",
      "content": "..."
    },
    {
      "source": {"id": null, "name": "[Removed]"},
      "title": "[Removed]",
      "description": "[Removed]",
      "url": "https://removed.com",
      "urlToImage": null,
      "publishedAt": "2024-04-30T08:00:00Z"
    },
    {
      "source": {"id": "inc42", "name": "Inc42"},
      "title": "No image, no summary",
      "description": null,
      "url": "https://example.com/b",
      "urlToImage": null,
      "publishedAt": "2024-04-29T07:15:00Z"
    }
  ]
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewNewsAPIFetcher(DefaultHTTPClient(2*time.Second), NewsAPIConfig{BaseURL: srv.URL + "/", APIKey: "test-key"})
	return f, srv
}

func TestNewsAPIFetcherRequestShape(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/everything", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "fintech startup funding India", q.Get("q"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Empty(t, q.Get("apiKey"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(everythingOK))
	})

	articles, err := f.Fetch(context.Background(), BuildQuery(Fintech, true, true))
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "newsapi", f.ID())
}

func TestNewsAPIFetcherMapsArticles(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(everythingOK))
	})

	articles, err := f.Fetch(context.Background(), "agritech startup")
	require.NoError(t, err)
	require.Len(t, articles, 3)

	first := articles[0]
	assert.Equal(t, "Agritech startup raises seed round", first.Title)
	assert.Equal(t, "YourStory", first.Source)
	assert.Equal(t, "https://example.com/a", first.URL)
	assert.Equal(t, "https://example.com/a.jpg", first.ImageURL)
	assert.Equal(t, "2024-05-01T12:30:00Z", first.PublishedAt)
	assert.Equal(t, articleID("https://example.com/a"), first.ID)

	assert.Equal(t, "[Removed]", articles[1].Title, "filtering is the dashboard's job")

	last := articles[2]
	assert.False(t, last.HasImage())
	assert.False(t, last.HasDescription())
}

func TestNewsAPIFetcherErrors(t *testing.T) {
	t.Run("rate limited error envelope", func(t *testing.T) {
		f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"You have made too many requests."}`))
		})

		_, err := f.Fetch(context.Background(), "edtech startup")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Equal(t, "rateLimited", apiErr.Code)
		assert.Contains(t, err.Error(), "too many requests")
	})

	t.Run("non json failure body", func(t *testing.T) {
		f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		})

		_, err := f.Fetch(context.Background(), "edtech startup")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "<html>bad gateway</html>", apiErr.Message)
	})

	t.Run("malformed success body", func(t *testing.T) {
		f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ok","articles":`))
		})

		_, err := f.Fetch(context.Background(), "edtech startup")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode newsapi response")
	})

	t.Run("missing key never calls the api", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		f := NewNewsAPIFetcher(nil, NewsAPIConfig{BaseURL: srv.URL})
		_, err := f.Fetch(context.Background(), "fintech startup")
		assert.True(t, errors.Is(err, ErrMissingAPIKey))
		assert.Zero(t, calls.Load())
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		f := NewNewsAPIFetcher(nil, NewsAPIConfig{BaseURL: url, APIKey: "k"})
		_, err := f.Fetch(context.Background(), "fintech startup")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch newsapi everything")
	})
}

func TestBodySnippet(t *testing.T) {
	assert.Equal(t, "<empty>", bodySnippet([]byte("   ")))
	assert.Equal(t, "bad gateway", bodySnippet([]byte(" bad gateway\n")))

	got := bodySnippet([]byte(strings.Repeat("x", 600)))
	assert.Len(t, got, 515)
	assert.Equal(t, "...", got[512:])

	multi := bodySnippet([]byte(strings.Repeat("₹", 600)))
	assert.Equal(t, maxSnippetRunes+3, len([]rune(multi)))
}
