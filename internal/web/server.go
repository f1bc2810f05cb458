// Package web serves the dashboard page over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Adda-Baaj/startup-pulse/internal/dashboard"
	"github.com/Adda-Baaj/startup-pulse/internal/logger"
)

// SessionCookie carries the dashboard session id.
const SessionCookie = "startup_pulse_session"

// Options configures a Server. Dashboard and Sessions are required.
type Options struct {
	Dashboard *dashboard.Dashboard
	Sessions  *dashboard.SessionStore
	Logger    logger.Logger
	// SessionTTL sets the cookie lifetime; zero makes it a browser-session cookie.
	SessionTTL   time.Duration
	SecureCookie bool
	// RateLimit is requests per second per client IP on the dashboard page.
	// Zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
}

// Server is the dashboard HTTP server.
type Server struct {
	echo     *echo.Echo
	dash     *dashboard.Dashboard
	sessions *dashboard.SessionStore
	log      logger.Logger

	sessionTTL   time.Duration
	secureCookie bool
}

// NewServer wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Dashboard == nil {
		return nil, errors.New("web: dashboard is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("web: session store is required")
	}

	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		echo:         echo.New(),
		dash:         opts.Dashboard,
		sessions:     opts.Sessions,
		log:          logger.Ensure(opts.Logger),
		sessionTTL:   opts.SessionTTL,
		secureCookie: opts.SecureCookie,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = s.handleError

	e.Use(securityHeaders())
	e.Use(requestLogger(s.log))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("request panicked",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))

	page := []echo.MiddlewareFunc{}
	if opts.RateLimit > 0 {
		page = append(page, newRateLimiter(opts.RateLimit, opts.RateBurst).middleware())
	}

	e.GET("/", s.handleDashboard, page...)
	e.GET("/healthz", s.handleHealth)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("dashboard server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
