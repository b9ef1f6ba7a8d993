package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"crumbs/internal/catalog"
	"crumbs/internal/clock"
	"crumbs/internal/config"
	"crumbs/internal/domain"
	"crumbs/internal/events"
	"crumbs/internal/save"
	"crumbs/internal/service"
	"crumbs/internal/store/postgres"
	"crumbs/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults are used when empty)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
	}
	logger.Debug("catalog ready", "entries", cat.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	store, sink, closeStore, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	opts := []service.Option{service.WithLogger(logger), service.WithStore(store)}
	if sink != nil {
		opts = append(opts, service.WithSink(sink))
	}
	svc := service.NewGameService(cfg, clock.RealClock{}, cat, opts...)
	logger.Info("session started", "session", svc.SessionID(), "storage", cfg.Storage.Driver)

	h := newHost(svc, Settings{SoundEnabled: cfg.Audio.Sound()}, os.Stdout)
	if ledger, ok := sink.(eventLog); ok {
		h.ledger = ledger
	}
	h.load(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	h.prompt()
	for {
		select {
		case <-ctx.Done():
			h.save(context.Background())
			return
		case <-ticker.C:
			h.tick(ctx)
		case line, ok := <-lines:
			if !ok {
				h.save(context.Background())
				return
			}
			if !h.handle(ctx, line) {
				h.save(context.Background())
				return
			}
			h.prompt()
		}
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (save.Store, events.Sink, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(filepath.Join(cfg.Path, "crumbs.db"))
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewStore(db, cfg.Slot), sqlite.NewLedger(db), func() { db.Close() }, nil
	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewStore(pool, cfg.Slot), nil, pool.Close, nil
	case "file", "":
		return save.NewFileStore(filepath.Join(cfg.Path, cfg.Slot)), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// loadMessage explains a failed load to the player.
func loadMessage(err error) string {
	var le *domain.LoadError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "No save found. Starting a new bakery."
	case errors.As(err, &le):
		return fmt.Sprintf("Your save could not be read (%v). Starting a new bakery.", le)
	default:
		return fmt.Sprintf("Load failed: %v", err)
	}
}
