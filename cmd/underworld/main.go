// Command underworld runs the tycoon simulation server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/underworld/internal/api"
	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/config"
	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/engine"
	"github.com/talgya/underworld/internal/entropy"
	"github.com/talgya/underworld/internal/metrics"
	"github.com/talgya/underworld/internal/persistence"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/roster"
	"github.com/talgya/underworld/internal/territory"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return err
		}
		slog.Info("catalog loaded", "path", cfg.CatalogPath)
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// The demand field must survive restarts, so the first seed sticks.
	seed := cfg.Seed
	if v, err := db.GetMeta("seed"); err == nil {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = s
		}
	} else if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		return fmt.Errorf("save seed: %w", err)
	}

	// ── Entropy ───────────────────────────────────────────────────────
	var rng entropy.Source = entropy.NewSeeded(seed)
	if pool := entropy.NewPool(cfg.RandomOrgKey); pool != nil {
		rng = pool
		slog.Info("random.org entropy enabled")
	}

	// ── Simulation ────────────────────────────────────────────────────
	wallet := player.NewWallet(cfg.Player.StartingCash, cfg.Player.StartingLevel)
	crew := roster.New()
	biz := business.New(cat, rng, business.WithLogger(logger.With("store", "business")))
	terr := territory.New(cat, rng, territory.WithLogger(logger.With("store", "territory")))
	sim := engine.NewSimulation(biz, terr, wallet, crew,
		engine.WithLuck(cfg.Player.Luck),
		engine.WithDemand(economy.NewDemandField(seed)),
		engine.WithLogger(logger),
	)

	loaded, err := db.LoadGame(sim)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if !loaded {
		slog.Info("no saved game found, starting fresh", "cash", cfg.Player.StartingCash)
		for _, d := range cfg.Player.Dealers {
			if _, err := crew.Hire(d.Name, d.Type, d.Level); err != nil {
				return fmt.Errorf("starting crew: %w", err)
			}
		}
		if err := db.SaveGame(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Observers ─────────────────────────────────────────────────────
	collector := metrics.New(biz)
	hub := api.NewHub(cfg.API.StreamInterval)
	sim.AddObserver(collector)
	sim.AddObserver(hub)
	sim.AddObserver(db)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Minutes = sim.GameMinutes()
	eng.Interval = cfg.Clock.Interval
	eng.MinutesPerTick = cfg.Clock.MinutesPerTick
	eng.SetSpeed(*cfg.Clock.Speed)

	eng.OnTick = func(elapsed, minutes float64) {
		sim.Advance(elapsed, minutes, time.Now())
	}
	eng.OnHour = func(hour int64) {
		if hour%int64(cfg.Clock.SaveEvery) != 0 {
			return
		}
		if err := db.SaveGame(sim); err != nil {
			slog.Error("autosave failed", "error", err)
		}
	}
	eng.OnDay = func(day int64) {
		sim.DailyReport(day)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn(config.EnvAdminKey + " not set, admin POST endpoints will be disabled")
	}
	limiter := api.NewRateLimiter(cfg.API.RatePerSecond, cfg.API.RateBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Metrics:  collector,
		Hub:      hub,
		Limiter:  limiter,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
		Origins:  cfg.API.CORSOrigins,
	}
	apiServer.Start()

	fmt.Printf("\nUnderworld is open for business: $%.0f in the bank, %d dealers on the crew.\n",
		wallet.Cash(), len(crew.List()))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	if loaded {
		fmt.Printf("Resuming at %s\n", engine.SimTime(sim.GameMinutes()))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}

	slog.Info("final save...")
	if err := db.SaveGame(sim); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	fmt.Println("Simulation stopped. Game saved.")
	return nil
}
