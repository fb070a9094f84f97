// Package server exposes the recommendation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/recommend"
	"github.com/ayaka-io/animatch/server/metrics"
)

// Server is the HTTP API server.
type Server struct {
	echo    *echo.Echo
	profile *profile.Profile
	engine  *recommend.Engine
	metrics *metrics.Exporter
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(profile *profile.Profile, engine *recommend.Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		profile: profile,
		engine:  engine,
		metrics: metrics.NewExporter(),
	}

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requestLogger())

	e.GET("/", s.root)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	v1 := e.Group("/api/v1")
	v1.POST("/recommendation", s.recommendation)
	v1.POST("/history-recommendation", s.historyRecommendation)

	return s
}

// Start blocks until the listener fails or the server is shut down.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server started", "addr", addr, "version", s.profile.Version)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests before stopping.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	slog.Info("server stopped")
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Anime Recommendation System API",
	})
}

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// requestLogger logs one line per request with a generated request id.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := uuid.New().String()
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)

			slog.Info("http request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
