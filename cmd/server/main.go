package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ccmarketers/ledger/internal/adapter/gateway/paystack"
	httpAdapter "github.com/ccmarketers/ledger/internal/adapter/http"
	"github.com/ccmarketers/ledger/internal/adapter/http/handler"
	"github.com/ccmarketers/ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/ccmarketers/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/ccmarketers/ledger/internal/adapter/repository/redis"
	"github.com/ccmarketers/ledger/internal/infrastructure/config"
	"github.com/ccmarketers/ledger/internal/infrastructure/eventpublisher"
	"github.com/ccmarketers/ledger/internal/infrastructure/logger"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/infrastructure/metrics"
	"github.com/ccmarketers/ledger/internal/infrastructure/postgres"
	"github.com/ccmarketers/ledger/internal/infrastructure/redis"
	"github.com/ccmarketers/ledger/internal/usecase"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Swap the bootstrap logger for the configured one
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.SetGlobalLevel(log.Logger.GetLevel())

	appLogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		PingTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Apply migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	escrowRepo := postgresRepo.NewEscrowRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	referralRepo := postgresRepo.NewReferralRepository(pool)
	webhookRepo := postgresRepo.NewWebhookRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	appMetrics := metrics.New()

	// Payment gateway
	gateway := paystack.NewClient(paystack.Config{
		BaseURL:     cfg.GatewayBaseURL,
		SecretKey:   cfg.GatewaySecretKey,
		EmailDomain: cfg.GatewayEmailDomain,
	}, appLogger)

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, idGen, appMetrics, usecase.LedgerConfig{
		PlatformOwnerID:       cfg.PlatformOwnerID,
		PlatformAllowNegative: cfg.PlatformAllowNegative,
	})
	referralUC := usecase.NewReferralUseCase(txManager, referralRepo, outboxRepo, auditRepo, ledgerUC, idGen, appMetrics, appLogger, cfg.SignupBonus)
	escrowUC := usecase.NewEscrowUseCase(txManager, escrowRepo, outboxRepo, auditRepo, ledgerUC, referralUC, idGen, appMetrics, appLogger, cfg.PlatformRate, retrier)
	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, withdrawalRepo, outboxRepo, auditRepo, ledgerUC, gateway, idGen, appMetrics, appLogger, cfg.MinWithdrawal, retrier)
	webhookUC := usecase.NewWebhookUseCase(txManager, webhookRepo, accountRepo, entryRepo, ledgerUC, withdrawalUC, referralUC, idGen, appMetrics, appLogger, cfg.GatewaySecretKey)
	fundingUC := usecase.NewFundingUseCase(ledgerUC, gateway, appLogger)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, appLogger)

	// Initialize handlers
	walletHandler := handler.NewWalletHandler(ledgerUC, fundingUC)
	escrowHandler := handler.NewEscrowHandler(escrowUC)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalUC, cache)
	referralHandler := handler.NewReferralHandler(referralUC)
	webhookHandler := handler.NewWebhookHandler(webhookUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         walletHandler,
		EscrowHandler:         escrowHandler,
		WithdrawalHandler:     withdrawalHandler,
		ReferralHandler:       referralHandler,
		WebhookHandler:        webhookHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		Logger:                log.Logger,
		RateLimiter:           rateLimiter,
	})

	// Sweep idle rate-limiter buckets.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rateLimiter.CleanupLimiters(time.Hour)
		}
	}()

	// Outbox publisher drains committed events to Redis pub/sub.
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient),
		Logger:     appLogger.Logger,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
