package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/vmunix/fetcharr/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the acquisition daemon",
	Long: `Run starts the daemon: it syncs the catalog, scouts candidates,
schedules downloads and delivers finished transfers on a fixed tick
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Server.LogLevel)

		// One daemon per database. The lock lives beside the db file so
		// two instances pointed at the same data refuse to start.
		lock := flock.New(cfg.Database.Path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire instance lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("another instance is already running (lock: %s)", lock.Path())
		}
		defer func() { _ = lock.Unlock() }()

		engine, st, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting daemon", "version", version, "tick", cfg.Server.TickInterval.Std())
		runner := server.NewRunner(engine, server.Config{
			TickInterval: cfg.Server.TickInterval.Std(),
		}, logger.With("component", "runner"))
		return runner.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
