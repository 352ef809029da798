package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	custapi "github.com/fandangolas/core-banking-platform/internal/customerservice/api"
	custevents "github.com/fandangolas/core-banking-platform/internal/customerservice/events"
	custpostgres "github.com/fandangolas/core-banking-platform/internal/customerservice/postgres"
	custservice "github.com/fandangolas/core-banking-platform/internal/customerservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/auth"
	"github.com/fandangolas/core-banking-platform/internal/platform/config"
	"github.com/fandangolas/core-banking-platform/internal/platform/cors"
	"github.com/fandangolas/core-banking-platform/internal/platform/eventbus"
	"github.com/fandangolas/core-banking-platform/internal/platform/httpserver"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
	"github.com/fandangolas/core-banking-platform/internal/platform/migrate"
	"github.com/fandangolas/core-banking-platform/internal/platform/ratelimit"
)

const serviceName = "customer-service"

func main() {
	cfg := config.Load(serviceName)

	logging.Init(serviceName, cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.Default()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("connect to customer database: %v", err)
	}

	if err := migrate.Apply(ctx, pool, custpostgres.Migrations); err != nil {
		log.Fatalf("apply customer migrations: %v", err)
	}

	producer, err := eventbus.NewProducer(
		eventbus.DefaultConfig(cfg.Bus.Brokers, cfg.Bus.ClientID, cfg.Bus.ConsumerGroup),
		serviceName,
		logger,
	)
	if err != nil {
		log.Fatalf("create event producer: %v", err)
	}

	repo := custpostgres.NewRepository(pool)
	publisher := custevents.NewPublisher(producer)
	hasher := custservice.NewBcryptHasher()
	lifecycle := custservice.NewLifecycle(repo, publisher, hasher)

	handlers := custapi.NewHandlers(lifecycle, logger)

	authCfg := auth.NewConfig(cfg.JWT.Secret, cfg.JWT.Expiry, []string{
		"/api/v1/customers/:id/validate",
		"/healthz",
	})
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     cfg.CORS.AllowMethods,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) { c.Status(200) })
	custapi.RegisterRoutes(router, handlers, authCfg, corsCfg, limiter)

	server := httpserver.New(cfg.Server.Host+":"+cfg.Server.Port, router)

	if err := httpserver.Run(server, logger, cfg.Server.RequestDeadline, func(ctx context.Context) error {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close event producer", err, nil)
		}
		pool.Close()
		return nil
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
