// Package api exposes the HTTP surface of the ingestion service: a secured
// run trigger, health and Prometheus endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuz/ingest/internal/config"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/orchestrator"
	"github.com/venuz/ingest/internal/runlock"
)

// Runner is what the trigger handler needs from the orchestrator.
type Runner interface {
	Run(ctx context.Context) (*orchestrator.RunStats, error)
}

// SetupRouter wires all routes. Auth accepts either the cron bearer secret
// (scheduler path) or the scraper API key as a query param (manual path).
func SetupRouter(cfg *config.Config, runner Runner, lock runlock.Lock, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ingest := router.Group("/api/ingest")
	ingest.Use(authMiddleware(cfg.Ingest.CronSecret, cfg.Ingest.ScraperAPIKey))
	ingest.GET("/run", runHandler(cfg, runner, lock, log))

	return router
}

func authMiddleware(cronSecret, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if cronSecret != "" && auth == "Bearer "+cronSecret {
			c.Next()
			return
		}
		if apiKey != "" && c.Query("key") == apiKey {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "valid cron secret or api key required",
		})
	}
}

func runHandler(cfg *config.Config, runner Runner, lock runlock.Lock, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		release, err := lock.Acquire(c.Request.Context())
		if err != nil {
			if errors.Is(err, runlock.ErrHeld) {
				c.JSON(http.StatusConflict, gin.H{
					"success": false,
					"error":   "a run is already in progress",
				})
				return
			}
			respondError(c, cfg, err)
			return
		}
		defer release()

		stats, err := runner.Run(c.Request.Context())
		if err != nil {
			log.Error("ingestion run failed", logger.Error(err))
			respondError(c, cfg, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "ingestion run complete",
			"duration": stats.Duration.String(),
			"stats":    stats,
		})
	}
}

func respondError(c *gin.Context, cfg *config.Config, err error) {
	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	if !cfg.IsProduction() {
		body["stack"] = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, body)
}

func loggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		c.Next()
		if strings.HasPrefix(path, "/healthz") || strings.HasPrefix(path, "/metrics") {
			return
		}
		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
		)
	}
}
