package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/startup-pulse/internal/dashboard"
	"github.com/Adda-Baaj/startup-pulse/internal/domain"
	"github.com/Adda-Baaj/startup-pulse/internal/logger"
)

type stubFetcher struct {
	mu       sync.Mutex
	queries  []string
	articles []domain.Article
	err      error
	panics   bool
}

func (f *stubFetcher) ID() string { return "stub" }

func (f *stubFetcher) Fetch(_ context.Context, query string) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.panics {
		panic("fetcher exploded")
	}
	return f.articles, f.err
}

func (f *stubFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func sampleArticles() []domain.Article {
	return []domain.Article{
		{
			ID:          "1",
			Title:       "Agri drone maker raises seed round",
			URL:         "https://example.com/agri",
			Description: "<p>The startup plans to expand.</p>",
			ImageURL:    "https://cdn.example.com/agri.jpg",
			PublishedAt: "2024-05-01T10:00:00Z",
		},
		{
			ID:          "2",
			Title:       "Lending platform closes Series A",
			URL:         "https://example.com/lend",
			PublishedAt: "2024-04-30T08:15:00Z",
		},
		{ID: "3", Title: "[Removed]", URL: "https://removed.com"},
	}
}

func newTestServer(t *testing.T, fetcher *stubFetcher, opts Options) *Server {
	t.Helper()

	dash, err := dashboard.New(dashboard.Deps{Fetcher: fetcher, Logger: logger.NopLogger{}})
	require.NoError(t, err)

	opts.Dashboard = dash
	if opts.Sessions == nil {
		opts.Sessions = dashboard.NewSessionStore(16, time.Minute)
	}
	opts.Logger = logger.NopLogger{}

	srv, err := NewServer(opts)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			return ck
		}
	}
	t.Fatalf("response has no %s cookie", SessionCookie)
	return nil
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)

	dash, err := dashboard.New(dashboard.Deps{Fetcher: &stubFetcher{}})
	require.NoError(t, err)
	_, err = NewServer(Options{Dashboard: dash})
	assert.Error(t, err)
}

func TestDashboardIdleByDefault(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{SessionTTL: 30 * time.Minute})

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Startup India News Dashboard")
	assert.Contains(t, body, "Filter Options")
	assert.Contains(t, body, "Select a category:")
	assert.Contains(t, body, "Include Funding News")
	assert.Contains(t, body, "India Only News")
	assert.Contains(t, body, `<option value="Social impact tech">Social impact tech</option>`)
	assert.NotContains(t, body, "<details")
	assert.Empty(t, fetcher.calls())

	ck := sessionCookie(t, rec)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 1800, ck.MaxAge)
}

func TestDashboardRendersCards(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{})

	rec := get(t, srv, "/?category=Fintech&funding=on&india=on")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"fintech startup funding India"}, fetcher.calls())

	body := rec.Body.String()
	assert.Contains(t, body, "<summary>Agri drone maker raises seed round</summary>")
	assert.Contains(t, body, `href="https://example.com/agri"`)
	assert.Contains(t, body, "Read More")
	assert.Contains(t, body, "Published At: 2024-05-01 10:00:00")
	assert.Contains(t, body, "Summary: The startup plans to expand.")
	assert.Contains(t, body, `src="https://cdn.example.com/agri.jpg"`)

	assert.Contains(t, body, "<summary>Lending platform closes Series A</summary>")
	assert.Contains(t, body, `src="https://via.placeholder.com/300"`)
	assert.Contains(t, body, "No image available")
	assert.Contains(t, body, "Summary: No summary available")

	assert.NotContains(t, body, "[Removed]")
	assert.Contains(t, body, `<option value="Fintech" selected>`)
	assert.Contains(t, body, `name="funding" value="on" checked`)
	assert.Contains(t, body, `name="india" value="on" checked`)
}

func TestDashboardDedupsAcrossRequestsInSession(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{})

	first := get(t, srv, "/?category=Agritech")
	require.Contains(t, first.Body.String(), "Agri drone maker raises seed round")
	ck := sessionCookie(t, first)

	second := get(t, srv, "/?category=Agritech&india=on", ck)
	assert.Len(t, fetcher.calls(), 2)
	assert.NotContains(t, second.Body.String(), "Agri drone maker raises seed round")
	assert.NotContains(t, second.Body.String(), "<details")
	assert.Equal(t, ck.Value, sessionCookie(t, second).Value)

	other := get(t, srv, "/?category=Agritech&india=on")
	assert.Contains(t, other.Body.String(), "Agri drone maker raises seed round")
	assert.NotEqual(t, ck.Value, sessionCookie(t, other).Value)
}

func TestDashboardRefreshReplaysWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{})

	first := get(t, srv, "/?category=Agritech")
	ck := sessionCookie(t, first)
	require.Equal(t, 2, strings.Count(first.Body.String(), "<details"))

	reload := get(t, srv, "/?category=Agritech", ck)
	require.Equal(t, http.StatusOK, reload.Code)
	assert.Equal(t, 2, strings.Count(reload.Body.String(), "<details"))
	assert.Contains(t, reload.Body.String(), "Agri drone maker raises seed round")
	assert.Equal(t, []string{"agritech startup"}, fetcher.calls())
}

func TestDashboardReusesSessionFilterWithoutParams(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{})

	first := get(t, srv, "/?category=Healthtech&india=true")
	ck := sessionCookie(t, first)

	bare := get(t, srv, "/", ck)
	assert.Contains(t, bare.Body.String(), "Lending platform closes Series A")
	assert.Contains(t, bare.Body.String(), `<option value="Healthtech" selected>`)
	assert.Equal(t, []string{"healthtech startup India"}, fetcher.calls())

	idle := get(t, srv, "/?category=-", ck)
	assert.NotContains(t, idle.Body.String(), "<details")
	assert.Len(t, fetcher.calls(), 1)

	get(t, srv, "/?category=Healthtech&india=on", ck)
	assert.Equal(t, []string{"healthtech startup India", "healthtech startup India"}, fetcher.calls())
}

func TestDashboardUnknownCategoryIsIdle(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := newTestServer(t, fetcher, Options{})

	rec := get(t, srv, "/?category=Spacetech")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, fetcher.calls())
	assert.Contains(t, rec.Body.String(), `<option value="-" selected>`)
}

func TestDashboardFetchFailureShowsAlerts(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	srv := newTestServer(t, fetcher, Options{})

	rec := get(t, srv, "/?category=Edtech")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `class="alert alert-error"`)
	assert.Contains(t, body, "Failed to fetch articles: connection refused")
	assert.Contains(t, body, `class="alert alert-warning"`)
	assert.Contains(t, body, "No articles found. Please try again later.")
}

func TestDashboardEmptyResultShowsWarning(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{})

	body := get(t, srv, "/?category=AIC+RMP").Body.String()
	assert.Contains(t, body, "No articles found. Please try again later.")
	assert.NotContains(t, body, "alert-error")
}

func TestDashboardPanicShowsGenericError(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{panics: true}, Options{})

	rec := get(t, srv, "/?category=Fintech")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), dashboard.GenericErrorMessage)
	assert.Contains(t, rec.Body.String(), "Filter Options")
}

func TestRecoverMiddlewareShowsGenericError(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{})
	srv.echo.GET("/boom", func(echo.Context) error { panic("handler exploded") })

	rec := get(t, srv, "/boom")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), dashboard.GenericErrorMessage)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{})

	rec := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{})
	get(t, srv, "/")

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.EqualValues(t, 1, payload["sessions"])
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{})

	rec := get(t, srv, "/")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "form-action 'self'")
}

func TestRateLimitPerClient(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, Options{RateLimit: 0.01, RateBurst: 1})

	assert.Equal(t, http.StatusOK, get(t, srv, "/").Code)

	rec := get(t, srv, "/?category=Fintech&funding=on")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)

	body := rec.Body.String()
	assert.Contains(t, body, "Filter Options")
	assert.Contains(t, body, `class="alert alert-warning"`)
	assert.Contains(t, body, rateLimitedMessage)
	assert.Contains(t, body, `<option value="Fintech" selected>`)

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestChecked(t *testing.T) {
	for raw, want := range map[string]bool{
		"on": true, "ON": true, "true": true, "1": true,
		"": false, "off": false, "false": false, "yes": false,
	} {
		assert.Equal(t, want, checked(raw), raw)
	}
}
