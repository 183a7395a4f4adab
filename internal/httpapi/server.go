// Package httpapi is the browser-facing presentation layer: JSON endpoints
// over one analysis session, an HTML report and a WebSocket feed of state changes.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"talktrace/internal/projection"
	"talktrace/internal/session"
	"talktrace/internal/visuals"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes bounds an uploaded transcript.
const maxUploadBytes = 64 << 20

// Server serves one session store over HTTP.
type Server struct {
	echo     *echo.Echo
	store    *session.Store
	version  string
	validate *validator.Validate
	upgrader websocket.Upgrader

	pingInterval time.Duration
	writeTimeout time.Duration

	render func(io.Writer, visuals.Format, projection.ChartModel, visuals.Options) error
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(store *session.Store, version string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("65M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")
			return nil
		},
	}))

	s := &Server{
		echo:     e,
		store:    store,
		version:  version,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins
				return true
			},
		},
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		render:       visuals.Render,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/file", s.handleSelectFile)
	api.POST("/participant", s.handleSelectParticipant)
	api.GET("/state", s.handleState)
	api.GET("/chart", s.handleChart)
	api.GET("/report", s.handleReport)
	api.GET("/events", s.handleEvents)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
