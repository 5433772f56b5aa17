// Package callback runs the short-lived local HTTP listener that receives the
// Etsy OAuth redirect during an interactive login.
package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/etsy-v3/internal/config"
)

var (
	// ErrStateMismatch is returned when the redirect carries a state that
	// does not belong to the pending authorization attempt.
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrMissingCode is returned when the redirect has neither a code nor an
	// error.
	ErrMissingCode = errors.New("redirect is missing the authorization code")
	// ErrTimeout is returned when no redirect arrives in time.
	ErrTimeout = errors.New("timed out waiting for the oauth redirect")
)

// DeniedError is returned when Etsy redirects back with an error, usually
// because the user declined the grant.
type DeniedError struct {
	Code        string
	Description string
}

func (e *DeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization denied: %s: %s", e.Code, e.Description)
	}
	return "authorization denied: " + e.Code
}

type result struct {
	code string
	err  error
}

// Server receives a single OAuth redirect.
type Server struct {
	addr    string
	path    string
	timeout time.Duration
	verify  func(state string) bool
	log     *slog.Logger

	e        *echo.Echo
	listener net.Listener
	results  chan result
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithTimeout overrides how long Wait blocks.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// New creates a Server for cfg. verify reports whether a returned state
// belongs to the pending attempt.
func New(cfg config.CallbackConfig, verify func(state string) bool, opts ...Option) *Server {
	path := cfg.Path
	if path == "" {
		path = "/"
	}

	s := &Server{
		addr:    net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		path:    path,
		timeout: cfg.Timeout,
		verify:  verify,
		log:     slog.New(slog.DiscardHandler),
		results: make(chan result, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(s.path, s.handleRedirect)
	s.e = e

	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.e.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("callback server error", "error", err)
		}
	}()

	s.log.Debug("callback listener started", "addr", ln.Addr().String(), "path", s.path)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Wait blocks until a redirect arrives, ctx is done, or the timeout passes.
func (s *Server) Wait(ctx context.Context) (string, error) {
	var timeout <-chan time.Time
	if s.timeout > 0 {
		t := time.NewTimer(s.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case r := <-s.results:
		return r.code, r.err
	case <-timeout:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down callback server: %w", err)
	}
	return nil
}

func (s *Server) handleRedirect(c echo.Context) error {
	q := c.Request().URL.Query()

	if code := q.Get("error"); code != "" {
		err := &DeniedError{Code: code, Description: q.Get("error_description")}
		s.log.Warn("authorization denied", "error", code)
		s.deliver(result{err: err})
		return c.HTML(http.StatusOK, page("Authorization denied", err.Error()))
	}

	if s.verify != nil && !s.verify(q.Get("state")) {
		s.log.Warn("redirect state mismatch", "remote", c.RealIP())
		s.deliver(result{err: ErrStateMismatch})
		return c.HTML(http.StatusBadRequest, page("Login failed", ErrStateMismatch.Error()))
	}

	code := q.Get("code")
	if code == "" {
		s.deliver(result{err: ErrMissingCode})
		return c.HTML(http.StatusBadRequest, page("Login failed", ErrMissingCode.Error()))
	}

	s.deliver(result{code: code})
	return c.HTML(http.StatusOK, page("Login complete", "You can close this window and return to the terminal."))
}

// deliver keeps the first result; later redirects are dropped.
func (s *Server) deliver(r result) {
	select {
	case s.results <- r:
	default:
		s.log.Debug("dropping extra redirect")
	}
}

func page(title, message string) string {
	return fmt.Sprintf(
		"<!doctype html><html><head><title>%[1]s</title></head>"+
			"<body><h1>%[1]s</h1><p>%[2]s</p></body></html>",
		html.EscapeString(title), html.EscapeString(message),
	)
}
