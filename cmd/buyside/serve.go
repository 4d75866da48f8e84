package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/buyside/internal/config"
	"github.com/jonathan/buyside/internal/server"
	"github.com/jonathan/buyside/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the campaign dashboard endpoints: list, stats, create and streaming create.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtConfig, err := resolveJWTConfig(appConfig.AuthEnabled)
	if err != nil {
		return err
	}

	rateConfig, err := ratelimit.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load rate limit config: %w", err)
	}

	a, err := newApp(ctx, appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(context.Background())

	srv, err := server.New(server.Config{
		Port:        servePort,
		AuthEnabled: appConfig.AuthEnabled,
		JWT:         jwtConfig,
		RateLimit:   rateConfig,
		Logger:      logger.Named("http"),
	}, a.campaigns, a.pipeline)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// resolveJWTConfig requires JWT_SECRET when auth is enforced. Otherwise a missing
// secret falls back to a per-process one so /login still issues tokens.
func resolveJWTConfig(authEnabled bool) (*config.JWTConfig, error) {
	jwtConfig, err := config.NewJWTConfig()
	if err == nil {
		return jwtConfig, nil
	}
	if authEnabled {
		return nil, fmt.Errorf("auth is enabled: %w", err)
	}
	if os.Getenv("JWT_SECRET") != "" {
		return nil, err
	}
	return config.EphemeralJWTConfig(), nil
}
