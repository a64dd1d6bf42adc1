package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/config"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/infra/adapters/notify"
	tele "quiz-exam-platform/internal/infra/adapters/telegram"
	"quiz-exam-platform/internal/infra/api"
	"quiz-exam-platform/internal/infra/api/apiv1"
	pg "quiz-exam-platform/internal/infra/db/postgres"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
	red "quiz-exam-platform/internal/infra/redis"
	"quiz-exam-platform/internal/infra/sched"
	"quiz-exam-platform/internal/infra/security"
	"quiz-exam-platform/internal/infra/worker"
	"quiz-exam-platform/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose errors)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Notifications ----
	notifPool := worker.NewPool(cfg.Notifications.Workers, cfg.Notifications.Workers*64, logger)
	// workers outlive the signal so Stop can drain the queue
	notifPool.Start(context.WithoutCancel(ctx))
	notifier := notify.NewAsyncNotifier(red.NewPublisher(redisClient), notifPool, cfg.Notifications.PublishTimeout, logger)

	var alerter adapter.Alerter = tele.NewNoopAlerter(logger)
	if cfg.Alerts.TelegramToken != "" {
		a, err := tele.NewAlerter(&cfg.Alerts, logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram alerter disabled")
		} else {
			alerter = a
		}
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	setRepo := pg.NewQuestionSetRepoCacheDecorator(pg.NewQuestionSetRepo(pool), redisClient, cfg.Redis.TTL, logger)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	codeRepo := pg.NewRedeemCodeRepo(pool)
	progressRepo := pg.NewProgressRepo(pool)
	notifLogRepo := pg.NewNotificationLogRepo(pool)

	// ---- Security ----
	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	hasher := security.NewBcryptHasher(0)

	// ---- Use cases ----
	entUC := usecase.NewEntitlementUseCase(setRepo, purchaseRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo, purchaseRepo, tm, hasher, tokens, logger)
	setUC := usecase.NewQuestionSetUseCase(setRepo, entUC, logger)
	codeUC := usecase.NewRedeemCodeUseCase(codeRepo, setRepo, purchaseRepo, tm, notifier, alerter, usecase.RedeemCodeOptions{
		DefaultValidityDays: cfg.Entitlement.DefaultValidityDays,
		CodeLength:          cfg.Entitlement.CodeLength,
		MaxBatch:            cfg.Entitlement.MaxBatch,
		GenerateAttempts:    cfg.Entitlement.GenerateAttempts,
		Dev:                 cfg.Runtime.Dev,
	}, logger)
	purchaseUC := usecase.NewPurchaseUseCase(purchaseRepo, setRepo, tm, notifier, cfg.Entitlement.DefaultValidityDays, logger)
	progressUC := usecase.NewProgressUseCase(progressRepo, setRepo, entUC, tm, notifier, logger)
	// the sweep publishes synchronously so only delivered reminders are logged
	notifUC := usecase.NewNotificationUseCase(purchaseRepo, notifLogRepo, red.NewPublisher(redisClient), cfg.Notifications.ExpiringWithinDays, logger)

	// ---- Background ----
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pg.ReportPoolStats(ctx, pool, 15*time.Second)
	}()
	go func() {
		defer wg.Done()
		_ = sched.NewNotificationWorker(cfg.Notifications.SweepInterval, notifUC, red.NewLocker(redisClient), logger).Run(ctx)
	}()

	// ---- HTTP ----
	v1 := apiv1.NewServer(apiv1.Deps{
		Users:     userUC,
		Sets:      setUC,
		Codes:     codeUC,
		Purchases: purchaseUC,
		Access:    entUC,
		Progress:  progressUC,
		Tokens:    tokens,
		Limiter:   red.NewRateLimiter(redisClient),
		Limits:    cfg.RateLimit,
	}, logger)
	srv := api.NewServer(cfg.Server, v1, map[string]api.Pinger{
		"postgres": pool,
		"redis":    redisClient,
	}, logger)

	logger.Info().Str("version", version).Bool("dev", cfg.Runtime.Dev).Msg("starting quiz exam platform")
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server")
		stop()
	}

	wg.Wait()
	// drain queued notifications before the redis client closes
	notifPool.Stop()
	logger.Info().Msg("shutdown complete")
}
