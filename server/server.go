// Package server assembles the HTTP server: echo, middleware, and the v1 API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/amicoach/amicoach/internal/profile"
	"github.com/amicoach/amicoach/server/ai"
	apiv1 "github.com/amicoach/amicoach/server/router/api/v1"
	"github.com/amicoach/amicoach/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	logger     *slog.Logger
}

// NewServer wires the full service graph onto an echo instance.
func NewServer(ctx context.Context, profile *profile.Profile, s *store.Store, logger *slog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(logger))

	var chatter ai.Chatter
	if profile.IsAIEnabled() {
		provider, err := ai.NewProviderFromProfile(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AI provider")
		}
		chatter = provider
	} else {
		logger.Warn("no AI API key configured, coaching replies will be canned")
	}

	apiService, err := apiv1.NewAPIV1Service(profile, s, chatter, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API service")
	}
	apiService.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		Profile:    profile,
		Store:      s,
		echoServer: e,
		apiService: apiService,
		logger:     logger,
	}, nil
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	s.logger.Info("server started",
		"address", address,
		"mode", s.Profile.Mode,
		"version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shut down server gracefully", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Error("failed to close store", "error", err)
	}
	s.logger.Info("server shut down")
}

// requestLogger logs one line per request with method, path, status, and
// latency.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
				logger.Error("request failed", attrs...)
				return nil
			}
			logger.Info("request completed", attrs...)
			return nil
		},
	})
}
