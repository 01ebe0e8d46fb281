// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobboard-billing/internal/config"
	"jobboard-billing/internal/domain/ports/adapter"
	pg "jobboard-billing/internal/infra/db/postgres"
	"jobboard-billing/internal/infra/logging"
	"jobboard-billing/internal/infra/metrics"
	"jobboard-billing/internal/infra/payment"
	red "jobboard-billing/internal/infra/redis"
	"jobboard-billing/internal/infra/sched"
	"jobboard-billing/internal/infra/security"
	"jobboard-billing/internal/infra/web"
	"jobboard-billing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, relaxed validation)")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	// ---- Encryption ----
	var encSvc *security.EncryptionService
	if cfg.Security.EncryptionKey != "" {
		encSvc, err = security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption init failed")
		}
	} else if !cfg.Runtime.Dev {
		logger.Warn().Msg("security.encryption_key not set; payer phones stored in plaintext")
	}

	// ---- Repositories ----
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	promoRepo := pg.NewPromoRepo(pool)
	txnRepo := pg.NewTransactionRepo(pool, encSvc)
	subRepo := pg.NewSubscriptionRepo(pool)
	jobRepo := pg.NewJobRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway ----
	var gateway adapter.GatewayClient
	if cfg.Runtime.Dev {
		gateway = payment.NewNoopGateway()
		logger.Warn().Msg("using noop payment gateway")
	} else {
		gateway, err = payment.NewPayUnitGateway(
			cfg.Payment.PayUnit.APIUser,
			cfg.Payment.PayUnit.APIPassword,
			cfg.Payment.PayUnit.APIKey,
			cfg.Payment.PayUnit.Mode,
			cfg.Payment.ReturnURL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment gateway init failed")
		}
	}

	// ---- Use cases ----
	promoUC := usecase.NewPromoUseCase(promoRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(planRepo, txnRepo, jobRepo, promoUC, gateway, usecase.GatewayConfig{
		Currency:       cfg.Payment.Currency,
		ReturnURL:      cfg.Payment.ReturnURL,
		NotifyURL:      cfg.Payment.NotifyURL,
		Country:        cfg.Payment.Country,
		DefaultGateway: cfg.Payment.DefaultGateway,
	}, logger)
	entitlements := usecase.NewEntitlementApplier(subRepo, userRepo, jobRepo, logger)
	webhookUC := usecase.NewWebhookUseCase(txnRepo, planRepo, promoRepo, entitlements, txManager, logger)

	// ---- Reconciler ----
	reconciler := sched.NewStatusReconciler(webhookUC, txnRepo, gateway, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := web.NewServer(paymentUC, webhookUC, txnRepo, auth, cfg.Admin.APIKey, cfg.Payment.Currency, cfg.Server.Port, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("bye")
}
