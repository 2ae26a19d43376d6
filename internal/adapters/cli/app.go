package cli

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	"github.com/andrescamacho/gangsim/internal/adapters/persistence"
	appLogging "github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/application/setup"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
	"github.com/andrescamacho/gangsim/internal/infrastructure/database"
	"github.com/andrescamacho/gangsim/internal/infrastructure/logging"
	"github.com/andrescamacho/gangsim/internal/infrastructure/world"
)

// application is a running economy wired to its journal
type application struct {
	cfg      *config.Config
	db       *gorm.DB
	world    *world.World
	mediator mediator.Mediator
	logger   *logging.LogrusLogger
	closers  []io.Closer
}

// loadConfig loads the system config and applies verbose
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openDatabase connects to the configured database, or a fresh in-memory one
// when ephemeral, and migrates the journal tables
func openDatabase(cfg *config.Config, ephemeral bool) (*gorm.DB, error) {
	dbCfg := cfg.Database
	if ephemeral {
		dbCfg = config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}
	}
	db, err := database.NewConnection(&dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newApplication builds the world from layout and wires it to the journal
func newApplication(ctx context.Context, cfg *config.Config, layout world.Layout, clock shared.Clock, ephemeral bool) (*application, context.Context, error) {
	logger, logCloser, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, ctx, err
	}
	app := &application{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}
	ctx = appLogging.WithLogger(ctx, logger)

	var commandMetrics *metrics.CommandMetricsCollector
	if cfg.Metrics.Enabled {
		if commandMetrics, err = initMetrics(); err != nil {
			app.Close()
			return nil, ctx, err
		}
	}

	if app.db, err = openDatabase(cfg, ephemeral); err != nil {
		app.Close()
		return nil, ctx, err
	}

	if app.world, err = world.Build(ctx, layout, cfg.Economy, clock); err != nil {
		app.Close()
		return nil, ctx, fmt.Errorf("failed to build world: %w", err)
	}

	registry := setup.NewHandlerRegistry(setup.Dependencies{
		World:           app.world,
		Graph:           app.world.Graph,
		Registry:        app.world.Registry,
		Balances:        app.world.Ledger,
		Currencies:      app.world.Bank,
		Ledger:          app.world.Ledger,
		TransactionRepo: persistence.NewGormTransactionRepository(app.db),
		AttackHistory:   persistence.NewGormAttackLogRepository(app.db),
		CommandMetrics:  commandMetrics,
	})
	if app.mediator, err = registry.CreateConfiguredMediator(); err != nil {
		app.Close()
		return nil, ctx, fmt.Errorf("failed to configure mediator: %w", err)
	}
	return app, ctx, nil
}

// Close releases the database and the log output
func (a *application) Close() {
	if a.db != nil {
		database.Close(a.db)
	}
	for _, c := range a.closers {
		c.Close()
	}
}

func initMetrics() (*metrics.CommandMetricsCollector, error) {
	metrics.InitRegistry()

	economy := metrics.NewEconomyMetricsCollector()
	if err := economy.Register(); err != nil {
		return nil, fmt.Errorf("failed to register economy metrics: %w", err)
	}
	metrics.SetGlobalEconomyCollector(economy)

	commands := metrics.NewCommandMetricsCollector()
	if err := commands.Register(); err != nil {
		return nil, fmt.Errorf("failed to register command metrics: %w", err)
	}
	return commands, nil
}

// loadLayout loads path, falling back to the user default and world.path
func loadLayout(path string) (world.Layout, error) {
	layout, err := world.Load(path)
	if err != nil {
		return world.Layout{}, fmt.Errorf("failed to load world %q: %w", path, err)
	}
	return layout, nil
}

// resolveWorldPath picks --world, then the user default, then world.path
func resolveWorldPath(cfg *config.Config) string {
	if worldPath != "" {
		return worldPath
	}
	if h, err := config.NewUserConfigHandler(); err == nil {
		if userCfg, err := h.Load(); err == nil && userCfg.DefaultWorld != "" {
			return userCfg.DefaultWorld
		}
	}
	return cfg.World.Path
}
