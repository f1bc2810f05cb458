package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/startup-pulse/internal/domain"
	"github.com/Adda-Baaj/startup-pulse/internal/logger"
	"github.com/Adda-Baaj/startup-pulse/pkg/httpclient"
)

const (
	maxHTMLBodyBytes    = 1 << 20 // 1 MiB
	defaultMaxWorkers   = 4
	defaultFetchTimeout = 10 * time.Second
)

// imageSelectors are tried in order; the first non-empty content wins.
var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
}

// Scraper looks up preview images for articles the search API returned
// without one.
type Scraper struct {
	client     httpclient.Client
	maxWorkers int
	log        logger.Logger
}

// NewScraper creates a Scraper. A non-positive maxWorkers uses the default.
func NewScraper(client httpclient.Client, maxWorkers int, log logger.Logger) *Scraper {
	if client == nil {
		client = httpclient.NewRestyClient(defaultFetchTimeout)
	}
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &Scraper{client: client, maxWorkers: maxWorkers, log: logger.Ensure(log)}
}

// Enrich returns a copy of articles where entries without an image carry the
// page's preview image when one could be found. Order is preserved and a
// failed lookup leaves its article untouched.
func (s *Scraper) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := slices.Clone(articles)

	var g errgroup.Group
	g.SetLimit(s.maxWorkers)

	for i := range out {
		if out[i].HasImage() || out[i].URL == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			image, err := s.previewImage(ctx, out[i].URL)
			if err != nil {
				s.log.WarnObj("article image lookup failed", "image_lookup_error", map[string]any{
					"article_id": out[i].ID,
					"url":        out[i].URL,
					"error":      err.Error(),
				})
				return nil
			}
			out[i].ImageURL = image
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// previewImage fetches pageURL and returns the absolute preview image it
// declares, or "" when there is none.
func (s *Scraper) previewImage(ctx context.Context, pageURL string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	resp, err := s.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	ref, err := declaredImage(body)
	if err != nil {
		return "", err
	}
	return absoluteURL(ref, pageURL), nil
}

// declaredImage returns the raw image reference from the page's meta tags.
func declaredImage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for _, sel := range imageSelectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
	}
	return "", nil
}

// absoluteURL resolves ref against the page it was found on.
func absoluteURL(ref, page string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(page)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
