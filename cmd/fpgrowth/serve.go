package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/shruggr/fpgrowth/api"
	"github.com/shruggr/fpgrowth/kvstore/badger"
	"github.com/spf13/cobra"
)

const gcInterval = 10 * time.Minute

func newServeCmd() *cobra.Command {
	var addr string
	var workers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mining HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}

			logger := newLogger(cfg)
			st, err := openStack(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			// Handle graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if st.badger != nil {
				go runGC(ctx, st.badger, logger)
			}

			logger.Info("Starting fpgrowth API", "version", version, "storage", cfg.Storage.Type, "workers", cfg.Workers)
			return api.NewServer(st.proc, logger).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel branches per request (default: half the CPUs)")
	return cmd
}

// runGC reclaims value log space on a ticker until ctx is done
func runGC(ctx context.Context, store *badger.Store, logger *slog.Logger) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.RunGC(0.5); err != nil {
				logger.Warn("BadgerDB GC failed", "error", err)
			}
		}
	}
}
