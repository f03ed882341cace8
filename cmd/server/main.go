package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/codenames/internal/config"
	"github.com/udisondev/codenames/internal/db"
	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/server"
	"github.com/udisondev/codenames/internal/users"
)

const ConfigPath = "config/server.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	slog.Info("codenames server starting")

	// Load config
	cfgPath := ConfigPath
	if p := os.Getenv("CODENAMES_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Optional positional override: codenames-server [host port]
	if args := os.Args[1:]; len(args) >= 2 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port argument %q: %w", args[1], err)
		}
		cfg.BindAddress = args[0]
		cfg.Port = port
	}
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port, "workers", cfg.Workers)

	// Connect to database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	store := users.NewStore(db.NewPostgresUserRepository(database.Pool()))

	words, err := game.LoadWordList(cfg.WordList)
	if err != nil {
		return fmt.Errorf("loading word list: %w", err)
	}
	slog.Info("word list loaded", "words", words.Len())

	srv := server.NewServer(cfg, store, words)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("game server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
