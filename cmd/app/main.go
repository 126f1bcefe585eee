// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-hosting-bot/internal/application"
	"telegram-hosting-bot/internal/config"
	pg "telegram-hosting-bot/internal/infra/db/postgres"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/infra/metrics"
	red "telegram-hosting-bot/internal/infra/redis"
	"telegram-hosting-bot/internal/infra/storage"
	tele "telegram-hosting-bot/internal/infra/telegram"
	"telegram-hosting-bot/internal/infra/web"
	"telegram-hosting-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	stateRepo := red.NewStateRepo(redisClient)

	// ---- Blob storage ----
	blobStore, err := storage.NewS3Store(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("blob storage")
	}

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	moderationRepo := pg.NewPostgresModerationRepo(pool)
	usageRepo := pg.NewPostgresUsageRepo(pool)

	// ---- Telegram adapter (outbound side is needed by use cases) ----
	usageUC := usecase.NewUsageUseCase(usageRepo, txManager, logger)
	botAdapter, err := tele.NewRealBotAdapter(&cfg.Bot, usageUC, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, txManager, cfg.Quota.DefaultBaseLimit, cfg.Quota.DefaultReferralReward, logger)
	quotaUC := usecase.NewQuotaUseCase(userRepo, txManager, cfg.Quota.DefaultBaseLimit, cfg.Quota.DefaultReferralReward, logger)
	referralUC := usecase.NewReferralUseCase(userRepo, txManager, botAdapter, cfg.Quota.CongratsAnimation, logger)
	moderationUC := usecase.NewModerationUseCase(moderationRepo, logger)
	fileUC := usecase.NewFileUseCase(quotaUC, moderationUC, blobStore, logger)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, botAdapter, cfg.Broadcast.SendInterval, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, moderationRepo, usageUC, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(
		userUC, quotaUC, referralUC, moderationUC, fileUC, broadcastUC, statsUC,
		stateRepo, botAdapter, cfg.Bot.Username, logger,
	)
	botAdapter.AttachFacade(facade)

	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- HTTP server (health, metrics, admin API) ----
	authManager := web.NewAuthManager(cfg.Web.JWTSecret, 30*time.Minute)
	webServer := web.NewServer(statsUC, userUC, authManager, cfg.Web.APIKey, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           webServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	botAdapter.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
