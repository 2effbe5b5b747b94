package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gowol-homelab/internal/config"
	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/fgeck/gowol-homelab/internal/services/history"
	"github.com/fgeck/gowol-homelab/internal/services/runner"
	"github.com/fgeck/gowol-homelab/internal/storage"
	"github.com/rs/zerolog/log"
)

// loadConfig reads --config if given, otherwise defaults plus environment.
func loadConfig() (*models.Config, error) {
	parser := config.NewParser()

	if configFile == "" {
		cfg, err := parser.LoadDefaults()
		if err != nil {
			log.Error().Err(err).Msg("invalid configuration")
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return nil, err
	}

	log.Debug().
		Str("config", configFile).
		Str("api", cfg.API.BaseURL).
		Msg("configuration loaded")

	return cfg, nil
}

// openHistory opens the configured history backend and loads the stored
// entries. The returned closer releases the backend.
func openHistory(cfg *models.Config) (*history.Store, io.Closer, error) {
	var (
		store  *history.Store
		closer io.Closer
	)

	switch cfg.History.Backend {
	case config.BackendSQLite:
		db, err := storage.NewSQLiteStore(cfg.History.Path, storage.DefaultNamespace)
		if err != nil {
			return nil, nil, fmt.Errorf("opening history database: %w", err)
		}
		store, closer = history.New(log.Logger, db), db
	default:
		store, closer = history.New(log.Logger, storage.NewFileStore(cfg.History.Path)), nopCloser{}
	}

	store.Restore()

	log.Debug().
		Str("backend", cfg.History.Backend).
		Str("path", cfg.History.Path).
		Msg("history opened")

	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newRunner wires the orchestrator for cfg. The caller must Close both the
// runner and the returned closer.
func newRunner(cfg *models.Config) (*runner.Impl, io.Closer, error) {
	store, closer, err := openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	return runner.New(log.Logger, *cfg, store), closer, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
