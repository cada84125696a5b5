package main

import (
	"fmt"

	"focus-guard/agent/internal/config"
	"focus-guard/agent/internal/initialize"
	"focus-guard/agent/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	logLevelFlag string
	app          *initialize.App
)

var rootCmd = &cobra.Command{
	Use:   "guardctl",
	Short: "Inspect and edit the focus guard policy and audit trail",
	Long: `guardctl works on the same database as the agent. Settings edits
made here are picked up by the agent on its next read.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Init(cfgFile)
		level := cfg.LogLevel
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		if err := logger.Init(cfg.LogPath, level); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if cmd.Name() == "token" {
			return nil
		}
		built, err := initialize.Build(cfg)
		if err != nil {
			return err
		}
		app = built
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "log level (overrides config)")
}
