package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fandangolas/core-banking-platform/internal/platform/auth"
	"github.com/fandangolas/core-banking-platform/internal/platform/cors"
	"github.com/fandangolas/core-banking-platform/internal/platform/metrics"
	"github.com/fandangolas/core-banking-platform/internal/platform/ratelimit"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

// RegisterRoutes wires the Account service's /api/v1 surface (accounts,
// movements, reports), matching customerservice/api's middleware ordering.
func RegisterRoutes(router *gin.Engine, h *Handlers, authCfg auth.Config, corsCfg cors.Config, limiter *ratelimit.Limiter) {
	router.Use(tracing.Middleware())
	router.Use(cors.Middleware(corsCfg))
	router.Use(metrics.Middleware("account-service"))
	router.Use(ratelimit.Middleware(limiter))
	router.Use(auth.Middleware(authCfg))

	v1 := router.Group("/api/v1")

	accounts := v1.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("", h.ListAccounts)
		accounts.GET("/:n", h.GetAccount)
		accounts.GET("/:n/balance", h.GetBalance)
		accounts.PATCH("/:n/state", h.PatchAccountState)
		accounts.DELETE("/:n", h.DeleteAccount)
	}

	movements := v1.Group("/movements")
	{
		movements.POST("", h.PostMovement)
		movements.GET("", h.ListMovements)
		movements.GET("/:id", h.GetMovement)
		movements.POST("/:id/reverse", h.ReverseMovement)
	}

	reports := v1.Group("/reports")
	{
		reports.GET("/account-statement/:customerId", h.AccountStatement)
		reports.GET("/movements-summary", h.MovementsSummary)
	}
}
