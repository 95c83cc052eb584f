package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/api/handler"
	"github.com/use-agent/serpscout/api/middleware"
	"github.com/use-agent/serpscout/cache"
	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background sweeps started here stop when ctx is done.
//
// Middleware chain:
//
//	Global:  Recovery → request log
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth.
func NewRouter(
	ctx context.Context,
	svc *acquisition.Service,
	cfg *config.Config,
	cc *cache.Cache,
	notifier *webhook.Notifier,
	startTime time.Time,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(svc, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	// Synchronous acquisition
	protected.POST("/serp", handler.Serp(svc, cc))

	// Asynchronous jobs
	jobs := handler.NewJobs(ctx, svc, notifier)
	protected.POST("/serp/jobs", jobs.Post())
	protected.GET("/serp/jobs/:id", jobs.Get())

	// Stored runs
	protected.GET("/runs/:id", handler.Run(svc))

	return r
}

// requestLog logs one line per request through slog.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Millisecond),
			"client", c.ClientIP(),
		)
	}
}
