// Package common holds dependency wiring shared by the CLI commands.
package common

import (
	"context"
	"fmt"

	"github.com/newsperspective/pipeline/internal/config"
	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/reliability"
)

// Deps bundles the objects every command needs before doing anything useful.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewDeps loads configuration and builds the logger. The debug flag forces
// debug-level logging regardless of configuration.
func NewDeps(cfgFile string, debug bool) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// OpenReliabilityStore builds the persistence backend selected in config.
// The returned closer is a no-op for the file backend.
func OpenReliabilityStore(cfg config.ReliabilityConfig) (reliability.Store, func() error, error) {
	switch cfg.Backend {
	case "", "file":
		return reliability.NewFileStore(cfg.FilePath), func() error { return nil }, nil
	case "redis":
		store, err := reliability.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, store.Close, nil
	case "postgres":
		store, err := reliability.NewPostgresStore(postgresDSN(cfg.Postgres))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown reliability backend %q", cfg.Backend)
	}
}

// NewTracker opens the configured store and loads the tracker from it.
func NewTracker(ctx context.Context, cfg config.ReliabilityConfig, log logger.Logger) (*reliability.Tracker, func() error, error) {
	store, closer, err := OpenReliabilityStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return reliability.NewTracker(ctx, store, log), closer, nil
}

func postgresDSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}
