package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	acctapi "github.com/fandangolas/core-banking-platform/internal/accountservice/api"
	acctevents "github.com/fandangolas/core-banking-platform/internal/accountservice/events"
	"github.com/fandangolas/core-banking-platform/internal/accountservice/peerclient"
	acctpostgres "github.com/fandangolas/core-banking-platform/internal/accountservice/postgres"
	acctservice "github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/auth"
	"github.com/fandangolas/core-banking-platform/internal/platform/cache"
	"github.com/fandangolas/core-banking-platform/internal/platform/config"
	"github.com/fandangolas/core-banking-platform/internal/platform/cors"
	"github.com/fandangolas/core-banking-platform/internal/platform/eventbus"
	"github.com/fandangolas/core-banking-platform/internal/platform/httpserver"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
	"github.com/fandangolas/core-banking-platform/internal/platform/migrate"
	"github.com/fandangolas/core-banking-platform/internal/platform/ratelimit"
	"github.com/fandangolas/core-banking-platform/internal/platform/resilience"
)

const serviceName = "account-service"

func main() {
	cfg := config.Load(serviceName)

	logging.Init(serviceName, cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.Default()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("connect to account database: %v", err)
	}

	if err := migrate.Apply(ctx, pool, acctpostgres.Migrations); err != nil {
		log.Fatalf("apply account migrations: %v", err)
	}

	producer, err := eventbus.NewProducer(
		eventbus.DefaultConfig(cfg.Bus.Brokers, cfg.Bus.ClientID, cfg.Bus.ConsumerGroup),
		serviceName,
		logger,
	)
	if err != nil {
		log.Fatalf("create event producer: %v", err)
	}

	var existsCache cache.Cache
	if cfg.Cache.Enabled {
		existsCache = cache.NewRedisCache(cfg.Cache.RedisURL, serviceName+":customer-exists:")
	} else {
		existsCache = cache.NewMemoryCache()
	}

	peer := peerclient.New(
		cfg.PeerClient.CustomerServiceBaseURL,
		resilience.Config{
			WindowSize:           cfg.Breaker.SlidingWindowSize,
			MinimumCalls:         cfg.Breaker.MinimumCalls,
			FailureRateThreshold: cfg.Breaker.FailureRateThreshold,
			OpenStateWait:        cfg.Breaker.OpenStateWait,
			HalfOpenProbes:       cfg.Breaker.HalfOpenProbes,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn("customer service circuit breaker state changed", logging.Fields{
					"from": from.String(), "to": to.String(),
				})
			},
		},
		resilience.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.Wait,
			MaxDelay:     2 * cfg.Retry.Wait * time.Duration(cfg.Retry.MaxAttempts),
			Multiplier:   2,
		},
		cfg.TimeLimiter.Duration,
		existsCache,
		cfg.Cache.TTL,
		logger,
	)

	accounts := acctpostgres.NewAccountRepository(pool)
	movements := acctpostgres.NewMovementRepository(pool)
	publisher := acctevents.NewPublisher(producer)

	lifecycle := acctservice.NewLifecycle(accounts, movements, peer, publisher)
	posting := acctservice.NewPostingEngine(accounts, movements, publisher)
	reports := acctservice.NewStatementEngine(accounts, movements, peer)

	handlers := acctapi.NewHandlers(lifecycle, posting, reports, logger)

	customerEventHandler := acctevents.NewCustomerEventHandler(lifecycle, peer, logger)
	consumer, err := eventbus.NewConsumer(
		eventbus.DefaultConfig(cfg.Bus.Brokers, cfg.Bus.ClientID, cfg.Bus.ConsumerGroup),
		[]string{eventbus.TopicCustomerEvents},
		customerEventHandler,
		logger,
	)
	if err != nil {
		log.Fatalf("create customer event consumer: %v", err)
	}
	consumer.Start()

	authCfg := auth.NewConfig(cfg.JWT.Secret, cfg.JWT.Expiry, []string{
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
	acctapi.RegisterRoutes(router, handlers, authCfg, corsCfg, limiter)

	server := httpserver.New(cfg.Server.Host+":"+cfg.Server.Port, router)

	if err := httpserver.Run(server, logger, cfg.Server.RequestDeadline, func(ctx context.Context) error {
		if err := consumer.Stop(); err != nil {
			logger.Error("failed to stop customer event consumer", err, nil)
		}
		if err := producer.Close(); err != nil {
			logger.Error("failed to close event producer", err, nil)
		}
		if err := existsCache.Close(); err != nil {
			logger.Error("failed to close customer-exists cache", err, nil)
		}
		pool.Close()
		return nil
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
