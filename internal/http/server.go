// Package http exposes the spendings service as the JSON API the client
// side talks to.
package http

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/middleware/ratelimit"
	"spendings/internal/middleware/security"
	"spendings/internal/middleware/trace"
	"spendings/internal/services"
)

// BasePath is where the spendings resource is mounted.
const BasePath = "/api/v1/spendings"

// SpendingService is what the handlers need from the service layer.
type SpendingService interface {
	ListSpendings(ctx context.Context, filters core.Filters, page int) (core.Page, error)
	GetSpending(ctx context.Context, id int64) (core.Spending, error)
	CreateSpending(ctx context.Context, n core.NewSpending) (core.Spending, error)
	UpdateSpending(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error)
	DeleteSpending(ctx context.Context, id int64) error
}

var _ SpendingService = (*services.SpendingService)(nil)

// Options tune the server. Zero values pick defaults.
type Options struct {
	CORSOrigins []string
	// RateLimit is the number of requests per minute per client.
	RateLimit int
	Logger    *log.Logger
}

type Server struct {
	http.Server
	svc     SpendingService
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc SpendingService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		svc:     svc,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		tracer:  trace.NewMiddleware(logger),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.tracer.Handler())
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.GET("/healthz", handleHealth)
	r.GET("/readyz", handleHealth)

	api := r.Group(BasePath, s.limiter.Handler())
	api.GET("", s.handleListSpendings)
	api.POST("", s.handleCreateSpending)
	api.GET("/:id", s.handleGetSpending)
	api.PUT("/:id", s.handleUpdateSpending)
	api.DELETE("/:id", s.handleDeleteSpending)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", trace.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", trace.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Shutdown stops background work and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		m := s.tracer.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"total_requests", m.TotalRequests)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
