package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/danmaku/internal/config"
	"github.com/mgpai22/danmaku/internal/danmaku"
	"github.com/mgpai22/danmaku/internal/logging"
)

// Dependencies holds what the handlers need
type Dependencies struct {
	Measurer danmaku.TextMeasurer
	Defaults config.ConvertConfig
}

// Server represents the HTTP server
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     *logging.Logger
	limiters   *rateLimiters

	shutdownTimeout time.Duration

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

func New(cfg config.ServerConfig, deps *Dependencies, logger *logging.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))

	s := &Server{
		engine:      engine,
		logger:      logger,
		stopCleanup: make(chan struct{}),

		shutdownTimeout: cfg.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:           cfg.Addr,
			Handler:        engine,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}

	if cfg.RateLimit > 0 {
		s.limiters = newRateLimiters(cfg.RateLimit, cfg.Burst)
		go s.limiters.runCleanup(s.stopCleanup)
	}

	RegisterRoutes(engine, deps, s.limiters, cfg.MaxBodyBytes)
	return s
}

// RegisterRoutes registers all routes; limiters may be nil to disable rate limiting
func RegisterRoutes(engine *gin.Engine, deps *Dependencies, limiters *rateLimiters, maxBodyBytes int64) {
	engine.GET("/health", Health())

	v1 := engine.Group("/v1")
	if limiters != nil {
		v1.Use(PerClientRateLimit(limiters))
	}
	if maxBodyBytes > 0 {
		v1.Use(RequestSizeLimit(maxBodyBytes))
	}
	v1.POST("/convert", Convert(deps))
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// the configured shutdown timeout
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Infow("Shutting down HTTP server")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(sctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close stops background work; safe to call more than once
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
}
