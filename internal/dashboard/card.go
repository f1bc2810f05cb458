package dashboard

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Adda-Baaj/startup-pulse/internal/domain"
)

const (
	// RemovedMarker is the search API's title for a retracted article.
	RemovedMarker = "[Removed]"

	NoImageCaption = "No image available"
	NoSummaryText  = "No summary available"
	SummaryPrefix  = "Summary: "
)

// Card is one rendered article.
type Card struct {
	Title        string
	URL          string
	Source       string
	ImageURL     string
	ImageCaption string
	Placeholder  bool
	PublishedAt  string
	Summary      string
}

// FormatPublishedAt turns "2024-05-01T12:30:00Z" into "2024-05-01 12:30:00".
func FormatPublishedAt(raw string) string {
	out := strings.Replace(raw, "T", " ", 1)
	return strings.TrimSuffix(out, "Z")
}

// Sanitizer strips markup from API-provided text before it is rendered.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer that keeps text only.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes all tags and returns plain, unescaped text. Escaping is left
// to the template.
func (s *Sanitizer) Text(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.Join(strings.Fields(html.UnescapeString(cleaned)), " ")
}

// NewCard builds the card for article. placeholder is used when the article
// has no image of its own.
func NewCard(article domain.Article, placeholder string, sanitizer *Sanitizer) Card {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}

	card := Card{
		Title:       article.Title,
		URL:         article.URL,
		Source:      article.Source,
		ImageURL:    article.ImageURL,
		PublishedAt: FormatPublishedAt(article.PublishedAt),
	}
	if !article.HasImage() {
		card.ImageURL = placeholder
		card.ImageCaption = NoImageCaption
		card.Placeholder = true
	}

	summary := sanitizer.Text(article.Description)
	if summary == "" {
		summary = NoSummaryText
	}
	card.Summary = SummaryPrefix + summary
	return card
}
