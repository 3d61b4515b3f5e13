package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-risk-agent/config"
	httpLayer "credit-risk-agent/http"
	"credit-risk-agent/logger"
	"credit-risk-agent/repository"
	"credit-risk-agent/service"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("credit-risk API: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLog.Sync()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	cache, closeCache := newCache(startupCtx, cfg, zapLog)
	defer closeCache()

	modelStore := service.NewModelStore(cache, service.ModelStoreConfig{
		Samples:           cfg.Model.Samples,
		Seed:              cfg.Model.Seed,
		Iterations:        cfg.Model.Iterations,
		GradientTolerance: cfg.Model.GradientTolerance,
		L2Penalty:         cfg.Model.L2Penalty,
		CacheTTL:          cfg.Model.CacheTTL,
	}, zapLog)

	classifier, err := modelStore.Load(startupCtx)
	if err != nil {
		zapLog.Error("failed to load credit-risk model", zap.Error(err))
		return fmt.Errorf("load model: %w", err)
	}

	decisionRepo, closeRepo, err := newDecisionRepository(startupCtx, cfg, zapLog)
	if err != nil {
		zapLog.Error("failed to set up decision repository", zap.Error(err))
		return fmt.Errorf("decision repository: %w", err)
	}
	defer closeRepo()

	narrative := service.NewNarrativeService(service.NarrativeConfig{
		APIKey:  cfg.Narrative.APIKey,
		APIURL:  cfg.Narrative.APIURL,
		Model:   cfg.Narrative.Model,
		Timeout: cfg.Narrative.Timeout,
	}, zapLog)

	decisionService := service.NewDecisionService(
		classifier,
		service.NewExplainer(),
		narrative,
		decisionRepo,
		zapLog,
	)
	decisionHandler := httpLayer.NewDecisionHandler(decisionService, zapLog)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      httpLayer.NewRouter(decisionHandler, rateLimiter, zapLog),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("credit-risk API listening",
			zap.String("address", cfg.Server.Address),
			zap.String("model_version", classifier.Model().Version),
			zap.Bool("narrative_enabled", narrative.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zapLog.Error("error starting server", zap.Error(err))
		return fmt.Errorf("serve: %w", err)
	case <-quit:
		zapLog.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLog.Error("error during server shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	zapLog.Info("server exited")
	return nil
}

// newCache prefers Redis when enabled and falls back to memory if it is unreachable.
func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.CacheRepository, func()) {
	if !cfg.Redis.Enabled {
		return repository.NewMemoryCache(), func() {}
	}

	redisCache := repository.NewRedisCache(repository.RedisOptions{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.String("address", cfg.Redis.Address), zap.Error(err))
		_ = redisCache.Close()
		return repository.NewMemoryCache(), func() {}
	}

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}
}

func newDecisionRepository(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
) (repository.DecisionRepository, func(), error) {
	if !cfg.Postgres.Enabled {
		return repository.NewDecisionRepositoryMemory(cfg.Decisions.MemoryCapacity), func() {}, nil
	}

	db, err := repository.OpenPostgres(repository.PostgresOptions{
		DSN:            cfg.Postgres.DSN,
		MaxConnections: cfg.Postgres.MaxConnections,
		MaxIdle:        cfg.Postgres.MaxIdle,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	repo := repository.NewDecisionRepositoryPostgres(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("decision audit log stored in postgres")

	return repo, func() {
		if err := db.Close(); err != nil {
			log.Warn("error closing postgres", zap.Error(err))
		}
	}, nil
}
