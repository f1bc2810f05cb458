package providers

import (
	"context"
	"crypto/sha1" //nolint:gosec // ids only
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/startup-pulse/internal/domain"
)

const (
	newsAPIProviderID     = "newsapi"
	newsAPIDefaultBaseURL = "https://newsapi.org"
	newsAPIEverythingPath = "/v2/everything"
	newsAPIKeyHeader      = "X-Api-Key"

	searchLanguage = "en"
	searchSortBy   = "publishedAt"
	searchPage     = "1"

	maxSnippetRunes = 512
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("newsapi api key is not configured")

// APIError describes a non-successful answer from the search API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi returned status %d: %s", e.StatusCode, e.Message)
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source      newsAPISource `json:"source"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	URL         string        `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
}

type newsAPISource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// NewsAPIConfig configures the "everything" search fetcher.
type NewsAPIConfig struct {
	BaseURL string
	APIKey  string
}

// newsAPIFetcher queries the NewsAPI "everything" endpoint.
type newsAPIFetcher struct {
	client  HTTPClient
	baseURL string
	apiKey  string
}

// NewNewsAPIFetcher builds a Fetcher for the NewsAPI "everything" endpoint.
func NewNewsAPIFetcher(client HTTPClient, cfg NewsAPIConfig) Fetcher {
	if client == nil {
		client = DefaultHTTPClient(DefaultRequestTimeout)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = newsAPIDefaultBaseURL
	}
	return &newsAPIFetcher{
		client:  client,
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
	}
}

func (f *newsAPIFetcher) ID() string {
	return newsAPIProviderID
}

// Fetch runs a single first-page search sorted by publish time, newest first.
func (f *newsAPIFetcher) Fetch(ctx context.Context, query string) ([]domain.Article, error) {
	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("newsapi query is empty")
	}

	params := map[string]string{
		"q":        query,
		"language": searchLanguage,
		"sortBy":   searchSortBy,
		"page":     searchPage,
	}
	headers := map[string]string{
		newsAPIKeyHeader: f.apiKey,
		"Accept":         "application/json",
	}

	resp, err := f.client.GetWithQuery(ctx, f.baseURL+newsAPIEverythingPath, params, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch newsapi everything: %w", err)
	}

	body := resp.Body()
	var payload newsAPIResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode() != http.StatusOK || payload.Status == "error" {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Code: payload.Code, Message: payload.Message}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = bodySnippet(body)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", decodeErr)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned unexpected status %q", payload.Status)
	}

	return buildArticles(payload.Articles), nil
}

// buildArticles maps API records onto domain articles, keeping delivery order.
func buildArticles(records []newsAPIArticle) []domain.Article {
	articles := make([]domain.Article, 0, len(records))
	for _, rec := range records {
		url := strings.TrimSpace(rec.URL)
		articles = append(articles, domain.Article{
			ID:          articleID(url),
			Source:      strings.TrimSpace(rec.Source.Name),
			Title:       rec.Title,
			URL:         url,
			Description: optional(rec.Description),
			ImageURL:    optional(rec.URLToImage),
			PublishedAt: strings.TrimSpace(rec.PublishedAt),
		})
	}
	return articles
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// articleID derives a stable id from the article URL.
func articleID(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// bodySnippet trims an undecodable response body for error messages.
func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if runes := []rune(s); len(runes) > maxSnippetRunes {
		return string(runes[:maxSnippetRunes]) + "..."
	}
	return s
}
