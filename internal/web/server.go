// Package web serves the pin status page, its JSON form and Prometheus
// metrics over HTTP.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/pinscan/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	echo    *echo.Echo
	tracker *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/", s.handleIndex)
	e.GET("/index.html", s.handleIndex)
	e.GET("/index.json", s.handleJSON)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo = e
	return s
}

// Handler returns the HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Serve accepts connections on ln. It blocks until the server is shut
// down and then returns http.ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.echo.Listener = ln
	return s.echo.Start("")
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleIndex(c echo.Context) error {
	snap := s.tracker.Snapshot()
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return renderHTML(c.Response(), snap)
}

func (s *Server) handleJSON(c echo.Context) error {
	snap := s.tracker.Snapshot()
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, status.FormatJSON(snap))
}
