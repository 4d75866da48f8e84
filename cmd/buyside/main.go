// Package main provides the entry point for the Buyside campaign API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/config"
	"github.com/jonathan/buyside/internal/logging"
)

var (
	configPath string
	logLevel   string
	devLogs    bool

	// Populated by the root PersistentPreRunE.
	appConfig *config.Config
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "buyside",
	Short: "Buyside campaign dashboard backend",
	Long: `Buyside creates ad campaigns, enriches them with AI-generated keywords, a brand-safety
verdict and a semantic description, and serves the campaign dashboard over REST.

Configuration comes from the environment (a .env file is loaded if present) and can be
overlaid with a JSON file using --config.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (overlays environment values)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "Human-readable development logs")
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.New(logging.Options{Level: cfg.LogLevel, Development: devLogs})
	if err != nil {
		return err
	}

	for _, name := range cfg.MissingRemote() {
		l.Warn("missing configuration; dependent features will fail when used", zap.String("setting", name))
	}

	appConfig = cfg
	logger = l
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
