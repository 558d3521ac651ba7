package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/logging"
	"github.com/loomdb/loomdb/internal/ratelimit"
	"github.com/loomdb/loomdb/pkg/config"
)

// Server represents the REST API server. The engine core is
// single-threaded, so every handler takes mu before touching the store.
type Server struct {
	router     *gin.Engine
	store      *store.Store
	config     *config.Config
	httpServer *http.Server
	mu         sync.Mutex
	log        *logging.Logger
}

// NewServer creates a new REST API server over a store.
func NewServer(s *store.Store, cfg *config.Config) *Server {
	log := logging.GetLogger("api")
	log.Info("initializing REST API server")

	// Set Gin mode based on config
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware(log))

	// Configure CORS
	if cfg.Server.CORS {
		log.Debug("enabling CORS")
		corsConfig := cors.Config{
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
			ExposeHeaders: []string{"Content-Length", "Retry-After", "X-Request-Id"},
			MaxAge:        12 * time.Hour,
		}

		if len(cfg.Server.AllowOrigins) > 0 {
			corsConfig.AllowOrigins = cfg.Server.AllowOrigins
		} else if cfg.Server.APIKey != "" {
			// When auth is enabled, restrict to localhost variants
			corsConfig.AllowOrigins = []string{
				"http://localhost:*",
				"http://127.0.0.1:*",
				"https://localhost:*",
				"https://127.0.0.1:*",
			}
			corsConfig.AllowWildcard = true
		} else {
			// No auth: allow all origins but without credentials
			corsConfig.AllowAllOrigins = true
		}

		router.Use(cors.New(corsConfig))
	}

	// API key authentication middleware
	if cfg.Server.APIKey != "" {
		log.Info("API key authentication enabled")
		router.Use(APIKeyAuthMiddleware(cfg.Server.APIKey))
	}

	// Rate limiting middleware
	if cfg.RateLimit.Enabled {
		log.Info("rate limiting enabled")
		rlCfg := &ratelimit.Config{
			Enabled: cfg.RateLimit.Enabled,
			Global: ratelimit.LimitConfig{
				RequestsPerSecond: cfg.RateLimit.Global.RequestsPerSecond,
				BurstSize:         cfg.RateLimit.Global.BurstSize,
			},
		}
		for _, route := range cfg.RateLimit.Routes {
			rlCfg.Routes = append(rlCfg.Routes, ratelimit.RouteLimit{
				Name:              route.Name,
				RequestsPerSecond: route.RequestsPerSecond,
				BurstSize:         route.BurstSize,
			})
		}
		limiter := ratelimit.NewLimiter(rlCfg)
		router.Use(RateLimitMiddleware(limiter))
	}

	// Default body size limit (1MB)
	router.Use(MaxBodySizeMiddleware(DefaultBodyLimit))

	server := &Server{
		router: router,
		store:  s,
		config: cfg,
		log:    log,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		// Health
		api.GET("/health", s.healthHandler)

		// Query
		api.POST("/query", s.executeQuery)

		// Tables
		api.GET("/tables", s.listTables)
		api.POST("/tables", s.createTable)
		api.GET("/tables/:name", s.getTable)
		api.GET("/tables/:name/rows", s.listRows)
		api.POST("/tables/:name/rows", s.insertRow)
		api.DELETE("/tables/:name/rows/:id", s.deleteRow)

		// Persistence
		api.POST("/persistence/save", s.saveStore)
		api.POST("/persistence/load", s.loadStore)
	}
}

// healthHandler handles GET /api/v1/health
func (s *Server) healthHandler(c *gin.Context) {
	s.mu.Lock()
	tables := len(s.store.Names())
	s.mu.Unlock()

	SuccessResponse(c, "ok", gin.H{
		"status": "healthy",
		"tables": tables,
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := s.config.Server.Port
	if s.config.Server.AutoPort {
		availablePort, err := findAvailablePort(port)
		if err != nil {
			s.log.Error("failed to find available port", "error", err, "start_port", port)
			return fmt.Errorf("failed to find available port: %w", err)
		}
		port = availablePort
		s.log.Debug("found available port", "port", port)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, port)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.log.Info("starting REST API server", "address", addr)
	return s.httpServer.ListenAndServe()
}

// StartWithContext starts the HTTP server with graceful shutdown
// support. It blocks until the context is cancelled or the server
// encounters an error.
func (s *Server) StartWithContext(ctx context.Context, shutdownTimeout time.Duration) error {
	port := s.config.Server.Port
	if s.config.Server.AutoPort {
		availablePort, err := findAvailablePort(port)
		if err != nil {
			s.log.Error("failed to find available port", "error", err, "start_port", port)
			return fmt.Errorf("failed to find available port: %w", err)
		}
		port = availablePort
		s.log.Debug("found available port", "port", port)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, port)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errChan := make(chan error, 1)

	go func() {
		s.log.Info("starting REST API server", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping REST API server")
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Error("server shutdown error", "error", err)
			return err
		}
		s.log.Info("REST API server stopped")
	}
	return nil
}

// Router returns the underlying Gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// findAvailablePort finds an available port starting from the given port
func findAvailablePort(startPort int) (int, error) {
	for port := startPort; port < startPort+100; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, startPort+100)
}
