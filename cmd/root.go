// Package cmd wires the floatchat command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linanwx/floatchat/config"
	"github.com/linanwx/floatchat/logger"
)

var (
	configDirFlag string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "floatchat",
	Short: "Floating chat widget for the terminal",
	Long: `floatchat opens a draggable chat panel in the terminal. Each message is
posted to a webhook and the reply is shown in the panel. History is kept
in a local store and restored on the next start.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.floatchat)")
	rootCmd.AddGroup(&cobra.Group{ID: "chat", Title: "Chat:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup:"})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	config.SetConfigDir(configDirFlag)

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	configDir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), configDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	return nil
}
