package publishers

import (
	"context"
	"time"

	"github.com/Adda-Baaj/startup-pulse/internal/logger"
)

// Logger is the structured logger used by publishers.
type Logger = logger.Logger

// Event describes one article rendered on the dashboard.
type Event struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Query       string    `json:"query"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt string    `json:"published_at"`
	SessionID   string    `json:"session_id"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// attributes returns the routing attributes attached to queue messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"category": e.Category,
		"event":    "article_rendered",
	}
}

// Publisher delivers events to one configured sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}
