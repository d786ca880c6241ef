package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	pollcatalog "livepolls/contexts/live-polls/poll-catalog"
	catalogpostgres "livepolls/contexts/live-polls/poll-catalog/adapters/postgres"
	voteengine "livepolls/contexts/live-polls/vote-engine"
	badgeradapter "livepolls/contexts/live-polls/vote-engine/adapters/badger"
	catalogadapter "livepolls/contexts/live-polls/vote-engine/adapters/catalog"
	votepostgres "livepolls/contexts/live-polls/vote-engine/adapters/postgres"
	"livepolls/contexts/live-polls/vote-engine/application/workers"
	"livepolls/internal/platform/config"
	"livepolls/internal/platform/db"
	"livepolls/internal/platform/httpserver"
	"livepolls/internal/platform/kv"
	"livepolls/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server     *httpserver.Server
	reconciler workers.LedgerReconciler
	cfg        config.Config
	postgres   *db.Postgres
	ledger     *badger.DB
	logger     *slog.Logger
}

// RepairApp runs one reconciliation pass over the ledger and exits. It owns
// the same stores as the API, so the API must be stopped first: badger holds
// an exclusive lock on the ledger directory.
type RepairApp struct {
	reconciler workers.LedgerReconciler
	postgres   *db.Postgres
	ledger     *badger.DB
	logger     *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	if cfg.UseMemoryStores {
		return buildMemoryAPI(cfg, logger)
	}

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required unless USE_MEMORY_STORES is set")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := catalogpostgres.Migrate(pg.DB); err != nil {
		_ = pg.Close()
		return nil, err
	}
	if err := votepostgres.Migrate(pg.DB); err != nil {
		_ = pg.Close()
		return nil, err
	}

	ledgerDB, err := kv.Open(cfg.LedgerPath)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	hub := messaging.NewHub(cfg.SubscriberBuffer, logger)
	catalogRepo := catalogpostgres.NewRepository(pg.DB, logger)
	catalogModule := pollcatalog.NewModule(pollcatalog.Dependencies{
		Repository:  catalogRepo,
		Clock:       catalogpostgres.SystemClock{},
		IDGenerator: catalogpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	voteModule := voteengine.NewModule(voteengine.Dependencies{
		Registry:    votepostgres.NewRepository(pg.DB, logger),
		Ledger:      badgeradapter.NewLedger(ledgerDB, logger),
		Directory:   catalogadapter.NewDirectory(catalogRepo),
		Publisher:   hub,
		Clock:       votepostgres.SystemClock{},
		IDGenerator: votepostgres.UUIDGenerator{},
		Logger:      logger,
	})

	return &APIApp{
		server:     httpserver.New(catalogModule, voteModule, hub, logger, normalizeAddr(cfg.HTTPPort)),
		reconciler: voteModule.Reconciler,
		cfg:        cfg,
		postgres:   pg,
		ledger:     ledgerDB,
		logger:     logger,
	}, nil
}

func buildMemoryAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	hub := messaging.NewHub(cfg.SubscriberBuffer, logger)
	catalogModule := pollcatalog.NewInMemoryModule(nil, logger)
	voteModule := voteengine.NewInMemoryModule(
		catalogadapter.NewDirectory(catalogModule.Store),
		hub,
		logger,
	)
	return &APIApp{
		server:     httpserver.New(catalogModule, voteModule, hub, logger, normalizeAddr(cfg.HTTPPort)),
		reconciler: voteModule.Reconciler,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func BuildRepair() (*RepairApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "repair")

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ledgerDB, err := kv.Open(cfg.LedgerPath)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	catalogRepo := catalogpostgres.NewRepository(pg.DB, logger)
	return &RepairApp{
		reconciler: workers.LedgerReconciler{
			Registry:  votepostgres.NewRepository(pg.DB, logger),
			Ledger:    badgeradapter.NewLedger(ledgerDB, logger),
			Directory: catalogadapter.NewDirectory(catalogRepo),
			Logger:    logger,
		},
		postgres: pg,
		ledger:   ledgerDB,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.cfg.EnableLedgerReconciler {
		go a.runReconciler(ctx)
	}
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Run(ctx)
}

// runReconciler repairs registry/ledger drift on a timer inside the API
// process. Badger's single-process lock rules out a separate always-on
// worker against the same ledger directory.
func (a *APIApp) runReconciler(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := a.reconciler.RunOnce(ctx); err != nil {
			a.logger.Error("ledger reconcile cycle failed",
				"event", "bootstrap_reconcile_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
}

func (a *APIApp) Close() error {
	var firstErr error
	if a.ledger != nil {
		firstErr = a.ledger.Close()
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *RepairApp) Run(ctx context.Context) error {
	r.logger.Info("repair app started",
		"event", "bootstrap_repair_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return r.reconciler.RunOnce(ctx)
}

func (r *RepairApp) Close() error {
	var firstErr error
	if r.ledger != nil {
		firstErr = r.ledger.Close()
	}
	if r.postgres != nil {
		if err := r.postgres.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
