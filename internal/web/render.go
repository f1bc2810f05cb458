package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/Adda-Baaj/startup-pulse/internal/dashboard"
	"github.com/Adda-Baaj/startup-pulse/pkg/providers"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

// Render implements echo.Renderer.
func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type categoryOption struct {
	Value    string
	Selected bool
}

// page is the template model for the dashboard.
type page struct {
	Categories  []categoryOption
	FundingOnly bool
	IndiaOnly   bool
	Idle        bool
	Alerts      []dashboard.Alert
	Cards       []dashboard.Card
}

func newPage(view dashboard.View) page {
	p := basePage(view.Filter)
	p.Idle = view.State == dashboard.StateIdle
	p.Alerts = view.Alerts
	p.Cards = view.Cards
	return p
}

func errorPage(filter dashboard.Filter) page {
	p := basePage(filter)
	p.Alerts = []dashboard.Alert{{Level: dashboard.AlertError, Message: dashboard.GenericErrorMessage}}
	return p
}

func throttledPage(filter dashboard.Filter) page {
	p := basePage(filter)
	p.Alerts = []dashboard.Alert{{Level: dashboard.AlertWarning, Message: rateLimitedMessage}}
	return p
}

func basePage(filter dashboard.Filter) page {
	cats := providers.Categories()
	opts := make([]categoryOption, 0, len(cats))
	for _, cat := range cats {
		opts = append(opts, categoryOption{Value: cat.String(), Selected: cat == filter.Category})
	}
	return page{
		Categories:  opts,
		FundingOnly: filter.FundingOnly,
		IndiaOnly:   filter.IndiaOnly,
	}
}
