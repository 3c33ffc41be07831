package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SensorBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields, and builds every device decoder.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := config.BuildDevices(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Mode:          %s\n", cfg.Mode)
	fmt.Printf("  Push:          %t\n", cfg.Push)
	fmt.Printf("  Report:        %t\n", cfg.Report)
	fmt.Printf("  Tunnel:        %t\n", cfg.Tunnel.IsEnabled())
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Devices:       %d\n", len(cfg.Devices))

	return nil
}
