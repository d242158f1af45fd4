package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/fetcharr/internal/orchestrator"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single engine tick and exit",
	Long: `Once initializes the engine, runs one full update (catalog sync,
scouting, download scheduling, delivery) and exits. Useful from cron or
for smoke-testing a config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Server.LogLevel)

		engine, st, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		defer engine.Stop()

		ctx := cmd.Context()
		switch status := engine.Initialize(ctx); status {
		case orchestrator.StatusStarted:
		case orchestrator.StatusAuthRequired:
			return fmt.Errorf("catalog authentication required")
		default:
			return fmt.Errorf("initialize failed: %s", status)
		}

		switch status := engine.Update(ctx); status {
		case orchestrator.StatusUpdated:
			logger.Info("update complete")
			return nil
		case orchestrator.StatusAuthRequired:
			return fmt.Errorf("catalog authentication required")
		default:
			return fmt.Errorf("update failed: %s", status)
		}
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
