package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shruggr/fpgrowth/cache"
	"github.com/shruggr/fpgrowth/cache/memory"
	"github.com/shruggr/fpgrowth/config"
	"github.com/shruggr/fpgrowth/kvstore"
	"github.com/shruggr/fpgrowth/kvstore/badger"
	kvmemory "github.com/shruggr/fpgrowth/kvstore/memory"
	"github.com/shruggr/fpgrowth/metadata"
	"github.com/shruggr/fpgrowth/metadata/sqlite"
	"github.com/shruggr/fpgrowth/processor"
	"github.com/shruggr/fpgrowth/snapshot"
	"github.com/spf13/cobra"
)

var version = "dev"

// Global flags
var (
	configPath  string
	logLevel    string
	storageType string
	dataDir     string
	dbPath      string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fpgrowth",
		Short:        "Parallel FP-growth frequent itemset mining",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&storageType, "storage", "", "Snapshot storage: memory or badger")
	pf.StringVar(&dataDir, "data-dir", "", "Data directory for BadgerDB")
	pf.StringVar(&dbPath, "db", "", "SQLite run history database (empty disables history)")

	root.AddCommand(newMineCmd(), newServeCmd(), newRunsCmd(), newVersionCmd())
	return root
}

// loadConfig applies flags on top of file and environment settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("storage") {
		cfg.Storage.Type = storageType
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("db") {
		cfg.Metadata.DBPath = dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout carries only results
func newLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return logger
}

// stack holds the opened stores behind a processor
type stack struct {
	proc   *processor.Processor
	badger *badger.Store // nil unless storage is badger
	closer []func() error
}

func (s *stack) Close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		if err := s.closer[i](); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}
}

func openStack(cfg *config.Config, logger *slog.Logger) (*stack, error) {
	s := &stack{}

	var store kvstore.KVStore
	switch cfg.Storage.Type {
	case config.StorageMemory:
		logger.Debug("Using in-memory snapshot storage")
		store = kvmemory.New()
	case config.StorageBadger:
		logger.Debug("Using BadgerDB snapshot storage", "data_dir", cfg.Storage.DataDir)
		db, err := badger.New(&badger.Config{
			DataDir: cfg.Storage.DataDir,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize BadgerDB: %w", err)
		}
		s.badger = db
		store = db
	default:
		return nil, fmt.Errorf("unknown storage type: %s (use 'memory' or 'badger')", cfg.Storage.Type)
	}
	s.closer = append(s.closer, store.Close)

	var runs metadata.Store
	if cfg.Metadata.DBPath != "" {
		db, err := sqlite.New(&sqlite.Config{DBPath: cfg.Metadata.DBPath})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		runs = db
		s.closer = append(s.closer, db.Close)
	}

	var results cache.ResultCache
	if cfg.Cache.Size > 0 {
		c, err := memory.New(cfg.Cache.Size)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		results = c
	}

	s.proc = processor.NewProcessor(processor.Config{
		Snapshots:  snapshot.New(store),
		Cache:      results,
		Runs:       runs,
		Workers:    cfg.Workers,
		MaxWorkers: cfg.Server.MaxWorkers,
		Logger:     logger,
	})
	return s, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fpgrowth", version)
		},
	}
}
