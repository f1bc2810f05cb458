package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Adda-Baaj/startup-pulse/internal/dashboard"
	"github.com/Adda-Baaj/startup-pulse/pkg/providers"
)

const (
	pageTemplate       = "dashboard"
	rateLimitedMessage = "Too many requests. Please wait a moment and try again."
)

func (s *Server) handleDashboard(c echo.Context) error {
	sess := s.session(c)
	filter := filterFromRequest(c, sess)

	view, err := s.dash.Cycle(c.Request().Context(), sess, filter)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, pageTemplate, newPage(view))
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// session resolves the caller's session from its cookie and refreshes the
// cookie on every response.
func (s *Server) session(c echo.Context) *dashboard.Session {
	var id string
	if ck, err := c.Cookie(SessionCookie); err == nil {
		id = ck.Value
	}

	sess, created := s.sessions.Resolve(id)
	if created {
		s.log.Debug("session created", zap.String("session_id", sess.ID))
	}

	ck := &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if s.sessionTTL > 0 {
		ck.MaxAge = int(s.sessionTTL.Seconds())
	}
	c.SetCookie(ck)
	return sess
}

// filterFromRequest reads the sidebar form. Without a category parameter the
// session's last filter is reused; an unrecognized category selects nothing.
func filterFromRequest(c echo.Context, sess *dashboard.Session) dashboard.Filter {
	params := c.QueryParams()
	if _, ok := params["category"]; !ok && sess != nil {
		return sess.Filter()
	}

	category, ok := providers.ParseCategory(c.QueryParam("category"))
	if !ok {
		category = providers.CategoryNone
	}
	return dashboard.Filter{
		Category:    category,
		FundingOnly: checked(c.QueryParam("funding")),
		IndiaOnly:   checked(c.QueryParam("india")),
	}
}

func checked(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "on" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// handleError renders the generic error alert for unexpected failures, the
// dashboard with a warning for throttled clients, and defers to echo for
// other HTTP errors such as 404.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusTooManyRequests {
		if rerr := c.Render(he.Code, pageTemplate, throttledPage(filterFromRequest(c, nil))); rerr != nil {
			s.log.Error("throttled page render failed", zap.Error(rerr))
			s.echo.DefaultHTTPErrorHandler(err, c)
		}
		return
	}
	if he != nil && he.Code < http.StatusInternalServerError {
		s.echo.DefaultHTTPErrorHandler(err, c)
		return
	}

	s.log.Error("dashboard request failed",
		zap.String("uri", c.Request().RequestURI),
		zap.Error(err),
	)

	filter := filterFromRequest(c, nil)
	if rerr := c.Render(http.StatusOK, pageTemplate, errorPage(filter)); rerr != nil {
		s.log.Error("error page render failed", zap.Error(rerr))
		_ = c.String(http.StatusInternalServerError, dashboard.GenericErrorMessage)
	}
}
