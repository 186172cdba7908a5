// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/comigor/econlux-go/internal/agent"
	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to the chat service and the market endpoints.
type Server struct {
	cfg        *config.Config
	echo       *echo.Echo
	chat       *agent.Service
	bookmarks  store.BookmarkStore
	reportsDir string
	now        func() time.Time
}

// New builds the router. bookmarks may be nil, in which case the bookmark
// list is always empty.
func New(cfg *config.Config, chat *agent.Service, bookmarks store.BookmarkStore) *Server {
	s := &Server{
		cfg:        cfg,
		echo:       echo.New(),
		chat:       chat,
		bookmarks:  bookmarks,
		reportsDir: cfg.Reports.Dir,
		now:        time.Now,
	}
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger())
	if len(cfg.Server.CORSOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	s.registerRoutes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) registerRoutes() {
	limit := newRateLimiter(s.cfg.Server.RateLimitPerMinute).middleware

	s.echo.GET("/", s.root)

	g := s.echo.Group(s.cfg.App.APIPrefix)
	g.GET("/health", s.health)

	g.GET("/market/kpis", s.marketKPIs)
	g.GET("/market/trends", s.marketTrends)
	g.GET("/market/news", s.marketNews)
	g.GET("/market/calendar", s.marketCalendar)
	g.GET("/market/calendar/feed", s.marketCalendarFeed)

	g.POST("/chat", s.handleChat, limit)
	g.GET("/chat/briefing", s.handleBriefing, limit)
	g.GET("/chat/sessions/:id", s.getSession)

	g.POST("/qa/chat", s.handleQAChat, limit)
	g.POST("/qa/summary", s.handleQASummary, limit)

	g.GET("/bookmarks", s.listBookmarks)
	g.GET("/reports/download/:name", s.downloadReport)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("starting server", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			attrs := []any{"method", req.Method, "path", req.URL.Path, "duration", time.Since(start)}
			if err != nil {
				logger.L.Warn("request failed", append(attrs, "error", err)...)
			} else {
				logger.L.Debug("request", attrs...)
			}
			return err
		}
	}
}
