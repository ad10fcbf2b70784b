package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier renders layered character images",
	Long: `Atelier composes character renders from layered SVG trait assets.
It serves them over HTTP and MCP, and renders, hashes and inspects tokens from the command line.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (.yaml, .json or .toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("assets", "", "Local asset directory (overrides assets.dir)")
	rootCmd.PersistentFlags().String("tokens", "", "Token fixtures file (overrides tokens)")
}

// loadConfig resolves the configuration of cmd: file, then environment,
// then flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	flags := cmd.Flags()
	cfg, err := config.Read(stringFlag(cmd, "config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = stringFlag(cmd, "log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = stringFlag(cmd, "log-format")
	}
	if flags.Changed("assets") {
		cfg.Assets.Dir = stringFlag(cmd, "assets")
	}
	if flags.Changed("tokens") {
		cfg.Tokens = stringFlag(cmd, "tokens")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(level, cfg.LogFormat), nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
