package main

import (
	"context"
	"fmt"
	"time"

	rand "math/rand/v2"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/housielabs/housie/cmd/housie/shared"
	"github.com/housielabs/housie/internal/game"
	"github.com/housielabs/housie/internal/history"
	"github.com/housielabs/housie/internal/randutil"
	"github.com/housielabs/housie/internal/server"
)

// ServeCmd contains core server configuration. Flags override the
// config file where both are given.
type ServeCmd struct {
	Addr            string `kong:"help='Server address (overrides config)'"`
	Config          string `kong:"default='housie.hcl',help='Path to HCL config file'"`
	Mode            string `kong:"enum=',rooms,global',default='',help='Game mode: rooms or global (overrides config)'"`
	DataDir         string `kong:"help='Directory for session history (overrides config)'"`
	IntervalSeconds int    `kong:"help='Auto-draw interval in seconds (overrides config)'"`
	Debug           bool   `kong:"help='Enable debug logging'"`
	Seed            *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	NoHistory       bool   `kong:"help='Disable session archiving and the leaderboard'"`
}

func (c *ServeCmd) Run() error {
	_ = godotenv.Load()

	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Mode != "" {
		cfg.Game.Mode = c.Mode
	}
	if c.DataDir != "" {
		cfg.Server.DataDir = c.DataDir
	}
	if c.IntervalSeconds > 0 {
		cfg.Game.DrawIntervalSeconds = c.IntervalSeconds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.GetServerAddress()
	}

	var rng *rand.Rand
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng = randutil.New(seed)

	var store *history.Store
	if !c.NoHistory {
		store, err = history.NewStore(history.StoreConfig{Dir: cfg.Server.DataDir}, shared.SetupHistoryLogger(c.Debug))
		if err != nil {
			return err
		}
	}

	registry := game.NewRegistry(game.Config{
		SingleSession:  cfg.Game.Mode == "global",
		DrawInterval:   time.Duration(cfg.Game.DrawIntervalSeconds) * time.Second,
		MinAutoPlayers: cfg.Game.MinAutoPlayers,
		Retention:      time.Duration(cfg.Game.RetentionHours) * time.Hour,
	}, logger, rng, nil, archiveFor(store))

	srv := server.NewServer(addr, logger, registry, store)

	// Stale sessions are swept on a fixed cadence.
	sweeper := cron.New()
	_, err = sweeper.AddFunc(fmt.Sprintf("@every %dm", cfg.Game.CleanupEveryMinutes), func() {
		if n := registry.Cleanup(); n > 0 {
			logger.Info("cleanup sweep", "evicted", n)
		}
	})
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	logger.Info("starting housie server",
		"addr", addr,
		"mode", cfg.Game.Mode,
		"draw_interval", cfg.Game.DrawIntervalSeconds,
		"history", !c.NoHistory,
	)

	ctx := shared.SetupSignalHandler(logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// archiveFor avoids handing the registry a non-nil interface wrapping a
// nil *Store.
func archiveFor(store *history.Store) game.Archive {
	if store == nil {
		return nil
	}
	return store
}
