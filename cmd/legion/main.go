// Command legion is the turn-resolution engine's CLI: a one-shot resolve
// command for scripting/cron use, a serve loop that polls a configured set
// of guilds on an interval, and a tasks worker that drains the Hawky
// scheduled-task queue. It is deliberately much smaller than the teacher's
// own cmd/bd/main.go, which carries a daemon/RPC/auto-flush surface this
// engine has no equivalent of — grounded instead on the teacher's smaller
// cmd/bd-examples/main.go root-command shape.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/legionforge/engine/internal/config"
	"github.com/legionforge/engine/internal/engine"
	"github.com/legionforge/engine/internal/observability"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/store/sqlstore"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "legion",
	Short:         "Resolve wargame turns against the legion store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to legion.yaml (searched in . if unset)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tasksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "legion: "+err.Error())
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM, the same
// shutdown trigger the teacher's daemon commands listen for.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStore(ctx context.Context, cfg *config.EngineConfig) (store.Store, *sql.DB, error) {
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Path:     cfg.StorePath,
		Database: cfg.StoreDatabase,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return sqlstore.New(db), db, nil
}

func initObservability(ctx context.Context, cfg *config.EngineConfig, logger *slog.Logger) func(context.Context) error {
	if !cfg.TracingEnabled && !cfg.MetricsEnabled {
		return func(context.Context) error { return nil }
	}
	shutdown, err := observability.Init(ctx, "legion-engine")
	if err != nil {
		logger.Warn("observability disabled: init failed", "error", err)
		return func(context.Context) error { return nil }
	}
	return shutdown
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [guild-id]",
	Short: "Resolve one turn for a single guild and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var guildID int
		if _, err := fmt.Sscanf(args[0], "%d", &guildID); err != nil {
			return fmt.Errorf("invalid guild id %q: %w", args[0], err)
		}

		cfg, _, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := signalContext()
		defer cancel()

		shutdown := initObservability(ctx, cfg, logger)
		defer func() { _ = shutdown(ctx) }()

		s, db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := engine.ResolveTurn(ctx, s, guildID)
		if err != nil {
			return fmt.Errorf("resolve turn: %w", err)
		}
		logger.Info("resolved turn", "guild_id", guildID, "events", len(events))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll every configured guild and resolve turns on an interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, v, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := signalContext()
		defer cancel()

		shutdown := initObservability(ctx, cfg, logger)
		defer func() { _ = shutdown(ctx) }()

		s, db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		pool := engine.NewPool(s)

		interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
		config.WatchEngineConfig(v, func(updated config.EngineConfig) {
			logger.Info("config reloaded", "poll_interval_seconds", updated.PollIntervalSeconds, "guild_ids", updated.GuildIDs)
			cfg = &updated
		})

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("serve starting", "guild_ids", cfg.GuildIDs, "interval", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("serve shutting down")
				return nil
			case <-ticker.C:
				if err := pool.ResolveAll(ctx, cfg.GuildIDs); err != nil {
					logger.Error("resolve all failed", "error", err)
				}
			}
		}
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Commands for the Hawky scheduled-task queue",
}

var tasksWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Poll the scheduled-task queue and log each claimed task",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := signalContext()
		defer cancel()

		s, db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("tasks worker starting", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("tasks worker shutting down")
				return nil
			case <-ticker.C:
				task, err := s.ClaimNextTask(ctx, time.Now())
				if err != nil {
					if !errors.Is(err, store.ErrNotFound) {
						logger.Error("claim task failed", "error", err)
					}
					continue
				}
				logger.Info("claimed task", "task_id", task.ID, "guild_id", task.GuildID, "task", task.Task)
			}
		}
	},
}

func init() {
	tasksCmd.AddCommand(tasksWorkerCmd)
}
