package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/fetcharr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.toml"
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a config file",
	Long:  "Check parses the config, substitutes environment variables and runs validation without starting the daemon.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			var err error
			if path, err = config.Discover(); err != nil {
				return err
			}
		}

		cfg, err := config.Load(path)
		if err != nil {
			var cfgErr *config.ConfigError
			if errors.As(err, &cfgErr) {
				printConfigErrors(cfgErr)
				return fmt.Errorf("configuration invalid")
			}
			return err
		}

		printConfigSummary(path, cfg)
		fmt.Println("Configuration valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
	}
	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}

func printConfigSummary(path string, cfg *config.Config) {
	fmt.Printf("Configuration: %s\n", path)
	fmt.Printf("  Database:  %s\n", cfg.Database.Path)
	fmt.Printf("  Tick:      %s, scout every %s\n", cfg.Server.TickInterval.Std(), cfg.Scout.Frequency.Std())

	kinds := make([]string, 0, len(cfg.Scout.Requirements))
	for kind := range cfg.Scout.Requirements {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	fmt.Printf("  Scouting:  %s\n", strings.Join(kinds, ", "))

	enabled := []string{}
	for name, ic := range cfg.Indexers {
		if ic.Enabled {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)
	fmt.Printf("  Indexers:  %s\n", strings.Join(enabled, ", "))

	if cfg.Cleanup.Enabled {
		fmt.Println("  Cleanup:   enabled")
	}
}
