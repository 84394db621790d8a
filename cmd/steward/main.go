package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/api"
	"github.com/advancehq/steward/internal/infrastructure/auth"
	"github.com/advancehq/steward/internal/infrastructure/cache"
	"github.com/advancehq/steward/internal/infrastructure/config"
	"github.com/advancehq/steward/internal/infrastructure/database"
	"github.com/advancehq/steward/internal/infrastructure/logging"
	"github.com/advancehq/steward/internal/infrastructure/metrics"
	"github.com/advancehq/steward/internal/infrastructure/postgres"
	"github.com/advancehq/steward/internal/infrastructure/worker"
)

func main() {
	logger := logging.New()
	logger.Info("steward starting up")

	if err := run(logger); err != nil {
		logger.Error("application failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *logging.Logger) error {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		return err
	}

	// establish database connection
	conn, err := database.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run migrations
	migrator := database.NewMigrator(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	// verify health after migrations
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Info("steward infrastructure ready", "schema", conn.Schema())

	// initialize prometheus metrics
	appMetrics := metrics.New()
	logger.Info("prometheus metrics initialized")

	// initialize jwt validator
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories
	pool := conn.Pool()
	postgresConstituentRepo := postgres.NewConstituentRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	officerRepo := postgres.NewOfficerRepository(pool)

	// initialize redis (optional - disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	var constituentRepo domain.ConstituentRepository = postgresConstituentRepo

	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without cache", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			// wrap constituent repo with the redis priority ranking for reads
			constituentRepo = cache.NewConstituentRepositoryWithCache(postgresConstituentRepo, redisClient, logger)
			logger.Info("redis priority ranking enabled")
		}
	}

	// scoring calendar context from configuration
	scoringOptions := application.ScoringOptions{
		FiscalYearEnd: cfg.Scoring.FiscalYearEnd(time.Now().UTC().Year()),
	}

	// initialize use cases
	scoreUseCase := application.NewScoreConstituentUseCase(
		constituentRepo,
		historyRepo,
		scoringOptions,
		logger,
	).WithMetrics(appMetrics)

	// wire redis ranking to scoring if available
	if redisClient != nil {
		scoreUseCase = scoreUseCase.WithRanking(redisClient)
	}

	sweepAlertsUseCase := application.NewSweepAlertsUseCase(
		constituentRepo,
		historyRepo,
		alertRepo,
		domain.DefaultDetectorConfig(),
		logger,
	).WithMetrics(appMetrics)

	reviewPortfoliosUseCase := application.NewReviewPortfoliosUseCase(
		officerRepo,
		nil, // calibrated default thresholds
		logger,
	).WithMetrics(appMetrics)

	// initialize background sweep worker
	sweepConfig := worker.DefaultSweepWorkerConfig()
	sweepConfig.Interval = cfg.Scoring.SweepInterval
	sweepWorker := worker.NewSweepWorker(
		postgresConstituentRepo,
		scoreUseCase,
		sweepAlertsUseCase,
		sweepConfig,
		logger,
	).WithMetrics(appMetrics)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	sweepWorker.Start(workerCtx)

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	if cfg.Server.Port != "" {
		serverConfig.Port = ":" + cfg.Server.Port
	}

	server := api.NewServer(serverConfig, logger)

	// register routes
	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		ScoreConstituentUseCase: scoreUseCase,
		SweepAlertsUseCase:      sweepAlertsUseCase,
		ReviewPortfoliosUseCase: reviewPortfoliosUseCase,
		ConstituentRepo:         constituentRepo,
		AlertRepo:               alertRepo,
		JWTValidator:            jwtValidator,
		Database:                conn,
		Logger:                  logger,
		Metrics:                 appMetrics,
	})

	// start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}()

	// wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("steward shutting down")

	// stop the background sweep
	workerCancel()
	sweepWorker.Stop()

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
		return err
	}

	logger.Info("steward shutdown complete")
	return nil
}
