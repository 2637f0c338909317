package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"unstakepool/internal/logger"
	"unstakepool/internal/registry"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP API server for the pool service
type Server struct {
	echo      *echo.Echo
	registry  *registry.Registry
	port      int
	apiKey    string
	startTime time.Time
	server    *http.Server
	handlers  *Handlers
}

// Config contains server configuration
type Config struct {
	Port   int
	APIKey string
}

// NewServer creates a new HTTP API server backed by the given pool registry
func NewServer(reg *registry.Registry, config Config) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:      e,
		registry:  reg,
		port:      config.Port,
		apiKey:    config.APIKey,
		startTime: time.Now(),
	}

	server.handlers = NewHandlers(reg, server.startTime)
	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures Echo middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))

	// Rate limiting middleware (100 requests per minute per IP)
	s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(100)))

	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}","error":"${error}"}` + "\n",
	}))

	s.echo.Use(middleware.Recover())

	// API Key authentication middleware (optional)
	if s.apiKey != "" {
		s.echo.Use(s.apiKeyMiddleware)
	}
}

// apiKeyMiddleware validates API key if configured
func (s *Server) apiKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		apiKey := c.Request().Header.Get("X-API-Key")
		if apiKey == "" || apiKey != s.apiKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing API key")
		}
		return next(c)
	}
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	api := s.echo.Group("/")

	// Health endpoints
	api.GET("health", s.handlers.GetHealth)
	api.GET("status", s.handlers.GetStatus)

	// Pool endpoints
	api.POST("pools", s.handlers.CreatePool)
	api.GET("pools", s.handlers.ListPools)
	api.GET("pools/:id", s.handlers.GetPool)
	api.DELETE("pools/:id", s.handlers.DeletePool)

	// Pool operations
	api.POST("pools/:id/liquidity", s.handlers.AddLiquidity)
	api.POST("pools/:id/liquidity/withdraw", s.handlers.Withdraw)
	api.POST("pools/:id/swap", s.handlers.Swap)
	api.GET("pools/:id/quote", s.handlers.QuoteSwap)
	api.PUT("pools/:id/price", s.handlers.SetPrice)

	// API documentation
	api.GET("openapi.yaml", s.handlers.GetOpenAPISpec)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	lgr := logger.FromContext(ctx)

	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.port),
		Handler:      s.echo,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	lgr.Info("Starting HTTP API server",
		zap.Int("port", s.port),
		zap.Int("pool_count", s.registry.Count()),
		zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	lgr := logger.FromContext(ctx)

	if s.server == nil {
		return nil
	}

	lgr.Info("Stopping HTTP API server", zap.Int("port", s.port))

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		lgr.Error("Error during server shutdown", zap.Error(err))
		return err
	}

	lgr.Info("HTTP API server stopped successfully")
	return nil
}

// Port returns the server port
func (s *Server) Port() int {
	return s.port
}

// GetURL returns the base URL for the server
func (s *Server) GetURL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}
