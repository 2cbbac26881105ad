// The engine binary wires the compliance decision pipeline to Postgres,
// Redis, and the sanctions dataset, and serves the internal check API plus
// the operational endpoints.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/infrastructure/cache"
	"github.com/solapay/compliance-engine/internal/infrastructure/config"
	"github.com/solapay/compliance-engine/internal/infrastructure/repository"
	"github.com/solapay/compliance-engine/internal/infrastructure/telemetry"
	compliancesvc "github.com/solapay/compliance-engine/internal/service/compliance"
	"github.com/solapay/compliance-engine/internal/service/risk"
	"github.com/solapay/compliance-engine/internal/service/ruleengine"
	"github.com/solapay/compliance-engine/internal/service/screening"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	ruleCache, err := newRuleCache(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() { _ = ruleCache.Close() }()

	screener, err := newScreener(ctx, cfg.Sanctions, logger)
	if err != nil {
		return err
	}

	checkRepo := repository.NewCheckRepository(pool)
	engine := ruleengine.NewEngine(repository.NewRuleRepository(pool),
		ruleCache, cfg.Compliance.RuleCacheTTL, logger)

	service := compliancesvc.NewService(
		repository.NewOrganizationStore(pool),
		repository.NewCustomerStore(pool),
		checkRepo,
		screener,
		screening.NewCountryRiskAssessor(nil),
		risk.NewMonitor(logger),
		engine,
		compliancesvc.Config{
			SanctionsMatchThreshold: cfg.Compliance.SanctionsMatchThreshold,
			SanctionsBlockThreshold: cfg.Compliance.SanctionsBlockThreshold,
			ReviewRiskScore:         cfg.Compliance.ReviewRiskScore,
			CheckTTL:                cfg.Compliance.CheckTTL,
		},
		logger,
	)
	reviews := compliancesvc.NewReviewService(checkRepo, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(service, reviews, screener, pool, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("engine listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("environment", cfg.Environment),
			zap.String("version", cfg.Version),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

func newRuleCache(cfg config.RedisConfig, logger *zap.Logger) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(&cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, logger)
}

func newScreener(ctx context.Context, cfg config.SanctionsConfig, logger *zap.Logger) (*screening.Screener, error) {
	opts := []screening.ScreenerOption{
		screening.WithAlertFunc(func(a screening.Alert) {
			logger.Error("screening alert",
				zap.String("severity", a.Severity),
				zap.String("message", a.Message),
				zap.Error(a.Err),
			)
		}),
	}

	dataset := screening.BuiltinDataset()
	if cfg.DatasetPath != "" {
		loader := &screening.FileLoader{Path: cfg.DatasetPath}
		loaded, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading sanctions dataset: %w", err)
		}
		dataset = loaded
		opts = append(opts, screening.WithLoader(loader))
	}

	screener := screening.NewScreener(dataset, logger, opts...)

	if cfg.DatasetPath != "" && cfg.ReloadInterval > 0 {
		go screener.RunPeriodicReload(ctx, cfg.ReloadInterval)
	}
	return screener, nil
}
