// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
	"github.com/your-org/factory-backend/internal/interfaces/http/routes"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	gin        *gin.Engine
	httpServer *http.Server
	deps       *routes.Dependencies
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, deps *routes.Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on environment
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create Gin engine
	s.gin = gin.New()
	s.startedAt = time.Now()

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	log.Printf("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	log.Printf("🌐 API Base URL: http://localhost:%s/api/v1", s.config.Server.Port)
	log.Printf("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Println("🛑 Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Println("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware - recover from panics
	s.gin.Use(gin.Recovery())

	// Custom logger middleware
	s.gin.Use(middleware.Logger(s.config))

	// Request ID middleware
	s.gin.Use(middleware.RequestID())

	// CORS middleware
	s.gin.Use(middleware.CORS(s.config))

	// Security headers middleware
	s.gin.Use(middleware.SecurityHeaders())

	// Rate limiting middleware
	s.gin.Use(middleware.RateLimit(s.config, s.deps.Redis))

	// Request size limit middleware
	s.gin.Use(middleware.RequestSizeLimit(1 << 20)) // 1MB limit

	// Timeout middleware
	s.gin.Use(middleware.Timeout(30 * time.Second))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	// Health check endpoints (no auth required)
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	// API v1 routes
	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.deps)

	// Root endpoint for development
	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     "Factory API",
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"auth":          "/api/v1/auth",
					"catalog":       "/api/v1/catalog",
					"machines":      "/api/v1/machines",
					"production":    "/api/v1/production",
					"inventory":     "/api/v1/inventory",
					"finance":       "/api/v1/finance",
					"notifications": "/api/v1/notifications",
					"reports":       "/api/v1/reports",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	// Check database health
	sqlDB, err := s.deps.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database connection error",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database ping failed",
		})
		return
	}

	// Check Redis health
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "redis ping failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"simulated_time": s.deps.Clock.Now().UTC(),
		"version":        s.config.App.Version,
		"environment":    s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).String(),
	})
}
