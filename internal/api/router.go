package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"txn-store/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthFunc reports backend health; a "status" other than "up" fails the check.
type HealthFunc func(ctx context.Context) map[string]string

type RouterConfig struct {
	CORSOrigins []string
	Health      HealthFunc
}

func NewRouter(svc service.TransactionService, logger zerolog.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	h := &handler{svc: svc}

	r.GET("/health", healthHandler(cfg.Health))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/transactions", h.createTransaction)
		v1.GET("/transactions", h.listTransactions)
		v1.GET("/transactions/:id", h.getTransaction)
		v1.PATCH("/transactions/:id/status", h.updateTransactionStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", IdempotencyKeyHeader},
		ExposeHeaders: []string{IdempotentReplayHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthHandler(health HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		stats := health(c.Request.Context())
		if stats["status"] != "up" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": stats})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": stats})
	}
}
