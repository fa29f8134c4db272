// Package main provides the all-in-one development server for the quest bot.
// It wires together configuration, database, the quest engine, and an
// operator console on stdin.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fablebot/fablebot/internal/config"
	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/engine"
	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
	"github.com/fablebot/fablebot/internal/observability"
	"github.com/fablebot/fablebot/internal/scripting"
	"github.com/fablebot/fablebot/internal/server"
	"github.com/fablebot/fablebot/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting fablebot quest server",
		zap.Int("window_open", cfg.Quest.WindowOpenHour),
		zap.Int("window_close", cfg.Quest.WindowCloseHour),
		zap.Int("daily_cap", cfg.Quest.DailyCap),
	)

	// Connect to PostgreSQL
	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	// Load authored content
	catalog, err := quest.LoadDirectory(cfg.Content.QuestDir)
	if err != nil {
		logger.Fatal("loading quest templates", zap.Error(err))
	}
	parts := loot.DefaultParts()
	if cfg.Content.PartsFile != "" {
		parts, err = loot.LoadParts(cfg.Content.PartsFile)
		if err != nil {
			logger.Fatal("loading loot parts", zap.Error(err))
		}
	}
	logger.Info("content loaded", zap.Int("quests", catalog.Len()))

	// Load reward hooks
	var hooks *scripting.Hooks
	if cfg.Scripting.Enabled {
		hooks = scripting.NewHooks(logger)
		if err := hooks.LoadDirectory(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			logger.Fatal("loading reward hooks", zap.Error(err))
		}
		defer hooks.Close()
	}

	// Build the engine
	store := postgres.NewStore(pool)
	src := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(src, logger)
	generator := loot.NewGenerator(parts, store.Items(), src, logger)
	eng, err := engine.New(store, catalog, generator, hooks, engine.SystemClock(), src, logger, cfg.Quest)
	if err != nil {
		logger.Fatal("building engine", zap.Error(err))
	}

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	health := server.NewTickerService(30*time.Second, func(ctx context.Context) error {
		return pool.Health(ctx, 5*time.Second)
	})
	health.OnError = func(err error) {
		logger.Warn("database health check failed", zap.Error(err))
	}
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: health.Start,
		StopFn: func() {
			health.Stop()
			pool.Close()
		},
	})

	sweep := server.NewTickerService(cfg.Quest.SweepInterval, func(ctx context.Context) error {
		_, err := eng.SweepExpired(ctx)
		return err
	})
	sweep.OnError = func(err error) {
		logger.Warn("assignment sweep failed", zap.Error(err))
	}
	lifecycle.Add("sweeper", sweep)

	d20, err := dice.Parse("1d20")
	if err != nil {
		logger.Fatal("parsing d20 expression", zap.Error(err))
	}
	console := server.NewConsole(eng, store, func() int {
		return roller.Roll(d20).Total()
	}, logger, os.Stdin, os.Stdout)
	lifecycle.Add("console", console)

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
