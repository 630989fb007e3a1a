// Package control wires the client stack: transport, resilience,
// caching, the batch manager, optional persistence, and the
// health/metrics listener.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hiq-lab/arvak-go/internal/batch"
	"github.com/hiq-lab/arvak-go/internal/cache"
	"github.com/hiq-lab/arvak-go/internal/core/config"
	"github.com/hiq-lab/arvak-go/internal/resilience"
	"github.com/hiq-lab/arvak-go/internal/rpc"
	"github.com/hiq-lab/arvak-go/internal/storage/postgres"
)

// Config holds the application configuration.
type Config struct {
	App *config.AppConfig

	// NewRemote builds a JobService over an established gRPC channel,
	// typically from generated stubs. Nil selects the in-process
	// simulator regardless of the configured endpoint.
	NewRemote func(*rpc.Connection) rpc.JobService
}

// App is the assembled Arvak client application.
type App struct {
	cfg       Config
	svc       rpc.JobService
	resilient *rpc.ResilientService
	cached    *rpc.CachedService
	conn      *rpc.Connection
	manager   *batch.Manager
	db        *postgres.DB
	server    *Server
	log       *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg Config) (*App, error) {
	log := slog.Default()
	appCfg := cfg.App

	// 1. Transport
	var base rpc.JobService
	var conn *rpc.Connection
	if appCfg.Arvak.Endpoint != "" && cfg.NewRemote != nil {
		var err error
		conn, err = rpc.Dial(ctx, appCfg.Arvak.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to arvak: %w", err)
		}
		base = cfg.NewRemote(conn)
		log.Info("Using remote execution service", "endpoint", appCfg.Arvak.Endpoint)
	} else {
		base = rpc.NewSimulator(rpc.DefaultSimulatorConfig())
		log.Info("Using in-process simulator")
	}

	// 2. Resilience
	policy, err := appCfg.Retry.Policy()
	if err != nil {
		return nil, err
	}
	breaker := resilience.NewBreaker(appCfg.Breaker.Breaker())
	resilient := rpc.NewResilientService(base, policy, breaker)

	// 3. Result cache. Redis replaces the disk tier when configured.
	tlCfg, err := appCfg.Cache.TwoLevel()
	if err != nil {
		return nil, err
	}
	var resultCache *cache.TwoLevelCache
	if appCfg.Redis.URL != "" {
		l2, err := cache.NewRedisCache(appCfg.Redis, tlCfg.Codec, tlCfg.DiskTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
		l1 := cache.NewMemoryCache(tlCfg.MemorySize, tlCfg.MemoryTTL)
		promote := tlCfg.PromoteOnHit == nil || *tlCfg.PromoteOnHit
		resultCache = cache.NewTwoLevelCacheWith(l1, l2, promote)
		log.Info("Using Redis result cache")
	} else {
		resultCache, err = cache.NewTwoLevelCache(tlCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init result cache: %w", err)
		}
		log.Info("Using disk result cache", "dir", tlCfg.Dir)
	}
	cached := rpc.NewCachedService(resilient, resultCache, true)

	// 4. Optional batch ledger
	var db *postgres.DB
	var recorder batch.Recorder
	if appCfg.Database.URL != "" {
		db, err = postgres.NewDB(ctx, appCfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}
		recorder = postgres.NewLedgerRepo(db)
		log.Info("Recording batches to PostgreSQL")
	}

	// 5. Batch manager
	manager := batch.NewManager(cached, appCfg.Batch, recorder, log)

	app := &App{
		cfg:       cfg,
		svc:       cached,
		resilient: resilient,
		cached:    cached,
		conn:      conn,
		manager:   manager,
		db:        db,
		log:       log,
	}
	app.server = NewServer(app, appCfg.Server.Port)
	return app, nil
}

// Start begins serving health and metrics endpoints.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("Health server stopped", "error", err)
		}
	}()
	a.log.Info("Health server listening", "port", a.cfg.App.Server.Port)
	return nil
}

// Stop shuts the application down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if err := a.server.Stop(ctx); err != nil {
		a.log.Warn("Failed to stop health server", "error", err)
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.log.Warn("Failed to close connection", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	return a.svc.Close()
}

// Service returns the fully wrapped job service.
func (a *App) Service() rpc.JobService { return a.svc }

// Manager returns the batch manager.
func (a *App) Manager() *batch.Manager { return a.manager }

// Ledger returns the batch ledger, nil when persistence is disabled.
func (a *App) Ledger() *postgres.LedgerRepo {
	if a.db == nil {
		return nil
	}
	return postgres.NewLedgerRepo(a.db)
}

// CacheStats returns per-tier cache statistics.
func (a *App) CacheStats() cache.TwoLevelStats { return a.cached.CacheStats() }

// BreakerState returns the circuit breaker state string.
func (a *App) BreakerState() string { return a.resilient.Breaker().State().String() }
