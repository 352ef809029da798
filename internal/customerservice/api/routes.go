package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fandangolas/core-banking-platform/internal/platform/auth"
	"github.com/fandangolas/core-banking-platform/internal/platform/cors"
	"github.com/fandangolas/core-banking-platform/internal/platform/metrics"
	"github.com/fandangolas/core-banking-platform/internal/platform/ratelimit"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

// RegisterRoutes wires the Customer service's /api/v1/customers surface,
// matching routes.go middleware-ordering convention (tracing
// first, then cross-cutting concerns, then auth, then handlers).
func RegisterRoutes(router *gin.Engine, h *Handlers, authCfg auth.Config, corsCfg cors.Config, limiter *ratelimit.Limiter) {
	router.Use(tracing.Middleware())
	router.Use(cors.Middleware(corsCfg))
	router.Use(metrics.Middleware("customer-service"))
	router.Use(ratelimit.Middleware(limiter))
	router.Use(auth.Middleware(authCfg))

	v1 := router.Group("/api/v1")
	customers := v1.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/:id", h.Get)
		customers.GET("/:id/validate", h.Validate)
		customers.PUT("/:id", h.Update)
		customers.PATCH("/:id/state", h.PatchState)
		customers.PATCH("/:id/password", h.ChangePassword)
		customers.DELETE("/:id", h.Delete)
	}
}
