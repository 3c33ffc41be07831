package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the SensorBoard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sensor relay",
	Long: `Start the SensorBoard relay.

The server will:
  - Load .env from the working directory, if present
  - Load configuration from the YAML file, or use defaults without one
  - Apply PORT and KEY (ngrok auth token) from the environment
  - Serve the API and dashboard, and poll any configured devices

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sensorboard serve
  PORT=8000 KEY=<ngrok-token> sensorboard serve
  sensorboard serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	serveCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}

// loadDotenv loads the env file into the process environment. A missing file
// is not an error; variables already set are not overridden.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the config file when given, else the defaults, and
// overlays the environment.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadDotenv(envFile); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"file", configFile,
		"mode", cfg.Mode,
		"devices", len(cfg.Devices),
		"tunnel", cfg.Tunnel.IsEnabled(),
	)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	sb, err := sensorboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create SensorBoard: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- sb.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
