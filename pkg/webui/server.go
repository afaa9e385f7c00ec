// Package webui serves the browser rendition of the upload page. Every browser
// session, identified by a cookie, owns its own session.Controller.
package webui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
	"github.com/otherjamesbrown/azurely-cli/pkg/render"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

// CookieName carries the browser session id.
const CookieName = "azurely_session"

const (
	controllerKey   = "controller"
	shutdownTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	// SessionTTL is how long an untouched browser session is kept.
	SessionTTL time.Duration

	// UploadLimit caps request bodies, in echo's size syntax ("100M").
	UploadLimit string

	// Language is preselected for new sessions.
	Language analysis.Language

	Logger   logging.Logger
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

// Server is the browser UI.
type Server struct {
	echo     *echo.Echo
	sessions *Sessions
	logger   logging.Logger
	opts     Options
}

// NewServer builds the UI around analyzer. Each new browser session gets a
// controller backed by the same analyzer.
func NewServer(analyzer session.Analyzer, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.UploadLimit == "" {
		opts.UploadLimit = "100M"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"bytes":    render.FormatBytes,
		"optional": render.Optional,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	factory := func(id string) *session.Controller {
		return session.New(analyzer,
			session.WithLanguage(opts.Language),
			session.WithLogger(opts.Logger.With(logging.F("session_id", id))),
			session.WithMetrics(opts.Metrics),
		)
	}

	s := &Server{
		sessions: NewSessions(factory, opts.SessionTTL, opts.Metrics, opts.Logger),
		logger:   opts.Logger,
		opts:     opts,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{tmpl: tmpl}
	e.HTTPErrorHandler = s.handleError
	s.echo = e

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newID,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/metrics" || p == "/api/state"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				logging.F("method", v.Method),
				logging.F("uri", v.URI),
				logging.F("status", v.Status),
				logging.F("latency", v.Latency),
				logging.F("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(s.opts.UploadLimit))

	e.GET("/healthz", s.handleHealth)
	e.GET("/version", echo.WrapHandler(buildinfo.Handler(buildinfo.ServiceName)))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	e.GET("/", s.handleIndex, s.sessionMiddleware)
	e.GET("/api/state", s.handleState, s.sessionMiddleware)
	e.POST("/file", s.handleSelectFile, s.sessionMiddleware)
	e.POST("/file/clear", s.handleClearFile, s.sessionMiddleware)
	e.POST("/language", s.handleLanguage, s.sessionMiddleware)
	e.POST("/dragover", s.handleDragOver, s.sessionMiddleware)
	e.POST("/submit", s.handleSubmit, s.sessionMiddleware)
	e.POST("/reset", s.handleReset, s.sessionMiddleware)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Sessions returns the session table.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ui server listening", logging.F("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("ui server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down ui server: %w", err)
	}
	return nil
}

type templateRenderer struct {
	tmpl *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
