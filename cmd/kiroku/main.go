package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ymatsuda/kiroku/internal/config"
	"github.com/ymatsuda/kiroku/internal/server"
	"github.com/ymatsuda/kiroku/internal/services"
	"github.com/ymatsuda/kiroku/internal/store"
	"github.com/ymatsuda/kiroku/internal/version"
	"github.com/ymatsuda/kiroku/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Rebuild at the configured level now that config is available.
	if l, err := buildLogger(cfg.Log.Level); err == nil {
		logger = l
	}
	defer logger.Sync()

	logger.Info("kiroku starting",
		zap.String("version", version.Version),
		zap.String("db", cfg.Database.Path),
	)

	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("failed to create data directory", zap.Error(err))
		}
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Migrate(ctx, services.EntryMigrations()); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	if cfg.Database.Seed {
		if err := services.SeedSampleEntries(ctx, st.DB()); err != nil {
			logger.Fatal("failed to seed sample entries", zap.Error(err))
		}
		logger.Info("sample entries seeded")
	}

	entries := services.NewSQLiteEntryRepository(st.DB())
	handler := web.NewHandler(entries, cfg.Session.Secret, cfg.Database.Path, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := server.New(cfg.Addr(), mux, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("kiroku ready", zap.String("addr", cfg.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("kiroku stopped")
}

// buildLogger creates a production logger at the configured level.
func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	return cfg.Build()
}
