// Package main is the entry point for the sensorboard CLI.
//
// SensorBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	sensorboard serve                   # Replace-mode relay on $PORT (5000)
//	sensorboard serve -c config.yaml    # Start with a config file
//	sensorboard validate -c config.yaml # Validate configuration
//	sensorboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorboard",
	Short: "Relay accelerometer and EMG samples to a live dashboard",
	Long: `SensorBoard receives accelerometer and EMG samples from a sensor board
(ESP32 POST /update, a MATLAB script, or a polled device) and serves them
back over HTTP, WebSocket/SSE push, and a PDF report.

Quick start:
  1. Point the board at http://<host>:5000/update
  2. Run: sensorboard serve
  3. Open http://localhost:5000 in your browser

Example config:
  mode: append
  push: true
  report: true
  tunnel:
    enabled: true
    authtoken: ${KEY}`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sensorboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
