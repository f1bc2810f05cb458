package dashboard

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/Adda-Baaj/startup-pulse/internal/domain"
	"github.com/Adda-Baaj/startup-pulse/internal/logger"
	"github.com/Adda-Baaj/startup-pulse/pkg/providers"
	"github.com/Adda-Baaj/startup-pulse/pkg/publishers"
)

// DefaultPlaceholderImage is shown for articles without an image.
const DefaultPlaceholderImage = "https://via.placeholder.com/300"

// DefaultEnrichTimeout bounds the whole enrichment step of one cycle.
const DefaultEnrichTimeout = 5 * time.Second

// State is the presentation state after a cycle.
type State int

const (
	// StateIdle means no category is selected and nothing is shown.
	StateIdle State = iota
	// StateResults means a category is selected and a fetch ran.
	StateResults
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResults:
		return "results"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AlertLevel is the severity of an inline message.
type AlertLevel string

const (
	AlertError   AlertLevel = "error"
	AlertWarning AlertLevel = "warning"
)

// Alert is an inline message shown above the cards.
type Alert struct {
	Level   AlertLevel
	Message string
}

// View is everything a cycle produces for rendering.
type View struct {
	State    State
	Filter   Filter
	Query    string
	Cards    []Card
	Alerts   []Alert
	FetchErr *FetchError

	// Skipped counts articles dropped as removed or already seen.
	Skipped int
	// Reused is set when the view was replayed for an unchanged filter
	// without fetching.
	Reused bool
}

func (v View) clone() View {
	v.Cards = slices.Clone(v.Cards)
	v.Alerts = slices.Clone(v.Alerts)
	return v
}

// Enricher fills in missing article metadata.
type Enricher interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// EventSink receives one event per rendered card. Delivery runs in the
// background and never holds up a cycle.
type EventSink = publishers.Sink

// Deps wires the dashboard's collaborators. Only Fetcher is required.
type Deps struct {
	Fetcher          providers.Fetcher
	Enricher         Enricher
	Events           EventSink
	Dispatch         publishers.DispatcherConfig
	Sanitizer        *Sanitizer
	PlaceholderImage string
	Logger           logger.Logger
	Now              func() time.Time

	// EnrichTimeout caps the enrichment step; zero uses DefaultEnrichTimeout.
	EnrichTimeout time.Duration
}

// Dashboard runs fetch cycles for sessions.
type Dashboard struct {
	fetcher       providers.Fetcher
	enricher      Enricher
	enrichTimeout time.Duration
	events        *publishers.Dispatcher
	sanitizer     *Sanitizer
	placeholder   string
	log           logger.Logger
	now           func() time.Time
}

// New builds a Dashboard.
func New(deps Deps) (*Dashboard, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("dashboard: fetcher is required")
	}
	d := &Dashboard{
		fetcher:       deps.Fetcher,
		enricher:      deps.Enricher,
		enrichTimeout: deps.EnrichTimeout,
		sanitizer:     deps.Sanitizer,
		placeholder:   strings.TrimSpace(deps.PlaceholderImage),
		log:           logger.Ensure(deps.Logger),
		now:           deps.Now,
	}
	if deps.Events != nil {
		d.events = publishers.NewDispatcher(deps.Events, deps.Dispatch, d.log)
	}
	if d.enrichTimeout <= 0 {
		d.enrichTimeout = DefaultEnrichTimeout
	}
	if d.sanitizer == nil {
		d.sanitizer = NewSanitizer()
	}
	if d.placeholder == "" {
		d.placeholder = DefaultPlaceholderImage
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Close stops event delivery, waiting for queued events until ctx ends.
func (d *Dashboard) Close(ctx context.Context) error {
	if d.events == nil {
		return nil
	}
	return d.events.Close(ctx)
}

// Cycle runs one fetch-and-render pass for sess with filter. An idle filter
// fetches nothing, and an unchanged filter replays the session's last view.
// Fetch failures are reported in the view and are not replayed; the returned
// error is always a *RenderError.
func (d *Dashboard) Cycle(ctx context.Context, sess *Session, filter Filter) (view View, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorObj("fetch cycle panicked", "cycle_panic", map[string]any{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			view = View{State: filter.state(), Filter: filter}
			err = &RenderError{Op: "cycle", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if sess == nil {
		return View{}, &RenderError{Op: "cycle", Err: errors.New("no session")}
	}
	if last, ok := sess.applyFilter(filter); ok {
		last.Reused = true
		d.log.DebugObj("fetch cycle replayed", "cycle", map[string]any{
			"session_id": sess.ID,
			"query":      last.Query,
			"rendered":   len(last.Cards),
		})
		return last, nil
	}

	view = View{State: filter.state(), Filter: filter}
	if filter.Idle() {
		return view, nil
	}
	view.Query = filter.Query()

	articles, fetchErr := d.fetchNews(ctx, view.Query)
	if fetchErr != nil {
		view.FetchErr = fetchErr
		view.Alerts = append(view.Alerts, Alert{Level: AlertError, Message: fetchErr.UserMessage()})
	}
	if len(articles) == 0 {
		view.Alerts = append(view.Alerts, Alert{Level: AlertWarning, Message: NoResultsMessage})
		if fetchErr == nil {
			sess.remember(view)
		}
		return view, nil
	}

	fresh := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		if strings.Contains(art.Title, RemovedMarker) {
			view.Skipped++
			continue
		}
		if !sess.MarkSeen(art.Title) {
			view.Skipped++
			continue
		}
		fresh = append(fresh, art)
	}

	if d.enricher != nil && len(fresh) > 0 {
		fresh = d.enrich(ctx, fresh)
	}

	view.Cards = make([]Card, 0, len(fresh))
	for _, art := range fresh {
		view.Cards = append(view.Cards, NewCard(art, d.placeholder, d.sanitizer))
	}

	d.publish(ctx, sess, filter, view.Query, fresh)
	sess.remember(view)

	d.log.DebugObj("fetch cycle rendered", "cycle", map[string]any{
		"session_id": sess.ID,
		"query":      view.Query,
		"fetched":    len(articles),
		"rendered":   len(view.Cards),
		"skipped":    view.Skipped,
	})
	return view, nil
}

// fetchNews runs the search and never fails the cycle: errors come back as a
// *FetchError next to an empty result.
func (d *Dashboard) fetchNews(ctx context.Context, query string) ([]domain.Article, *FetchError) {
	articles, err := d.fetcher.Fetch(ctx, query)
	if err != nil {
		d.log.WarnObj("news fetch failed", "fetch_error", map[string]any{
			"provider_id": d.fetcher.ID(),
			"query":       query,
			"error":       err.Error(),
		})
		return nil, &FetchError{Query: query, Err: err}
	}
	return articles, nil
}

func (d *Dashboard) enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	ctx, cancel := context.WithTimeout(ctx, d.enrichTimeout)
	defer cancel()
	return d.enricher.Enrich(ctx, articles)
}

// publish queues one event per rendered article without waiting for delivery.
func (d *Dashboard) publish(ctx context.Context, sess *Session, filter Filter, query string, articles []domain.Article) {
	if d.events == nil {
		return
	}
	renderedAt := d.now().UTC()
	for _, art := range articles {
		evt := publishers.Event{
			ID:          art.ID,
			Category:    filter.Category.String(),
			Query:       query,
			Title:       art.Title,
			URL:         art.URL,
			Source:      art.Source,
			ImageURL:    art.ImageURL,
			PublishedAt: art.PublishedAt,
			SessionID:   sess.ID,
			RenderedAt:  renderedAt,
		}
		if err := d.events.Publish(ctx, evt); err != nil {
			d.log.WarnObj("article event dropped", "publish_error", map[string]any{
				"article_id": art.ID,
				"error":      err.Error(),
			})
		}
	}
}
