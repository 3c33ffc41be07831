package sensorboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// sbConfig holds mutable state during SensorBoard construction.
type sbConfig struct {
	title           string
	port            int
	mode            Mode
	historyLimit    int
	emg             bool
	push            bool
	report          bool
	tunnelToken     string
	devices         []Device
	pollingInterval time.Duration
	maxConcurrency  int
	logger          *slog.Logger
	sampleCallbacks []func(Sample)
}

// Option is a function that configures a [SensorBoard] during construction.
// Options return an error if validation fails.
type Option func(*sbConfig) error

// WithPort sets the local HTTP port. Defaults to 5000.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *sbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMode selects replace or append mode. Defaults to [ModeReplace].
func WithMode(m Mode) Option {
	return func(cfg *sbConfig) error {
		switch m {
		case ModeReplace, ModeAppend:
			cfg.mode = m
			return nil
		default:
			return fmt.Errorf("unknown mode %q", m)
		}
	}
}

// WithHistoryLimit caps the history kept in append mode; the oldest sample
// is evicted first. Zero, the default, keeps everything.
func WithHistoryLimit(n int) Option {
	return func(cfg *sbConfig) error {
		if n < 0 {
			return errors.New("history limit cannot be negative")
		}
		cfg.historyLimit = n
		return nil
	}
}

// WithEMG adds the emg channel to the zero record served before the first
// ingest.
func WithEMG(enabled bool) Option {
	return func(cfg *sbConfig) error {
		cfg.emg = enabled
		return nil
	}
}

// WithPush enables the WebSocket (/ws) and Server-Sent Events (/api/sse)
// push channels. Each ingested sample is pushed as a "nuevos_datos" event.
func WithPush(enabled bool) Option {
	return func(cfg *sbConfig) error {
		cfg.push = enabled
		return nil
	}
}

// WithReport enables GET /download-pdf. Requires [ModeAppend]; [New] fails
// otherwise.
func WithReport(enabled bool) Option {
	return func(cfg *sbConfig) error {
		cfg.report = enabled
		return nil
	}
}

// WithTitle sets the dashboard and report title. Defaults to "SensorBoard".
func WithTitle(title string) Option {
	return func(cfg *sbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTunnel exposes the board through a public ngrok endpoint using the
// given auth token, in addition to the local port.
//
// If the tunnel cannot be opened at start, a warning is logged and the board
// keeps serving locally.
func WithTunnel(authtoken string) Option {
	return func(cfg *sbConfig) error {
		if authtoken == "" {
			return errors.New("tunnel auth token cannot be empty")
		}
		cfg.tunnelToken = authtoken
		return nil
	}
}

// WithDevice adds a [Device] to poll. Polled samples are ingested exactly
// like POST /update bodies.
func WithDevice(d Device) Option {
	return func(cfg *sbConfig) error {
		cfg.devices = append(cfg.devices, d)
		return nil
	}
}

// WithDevices adds several devices at once.
func WithDevices(devices ...Device) Option {
	return func(cfg *sbConfig) error {
		cfg.devices = append(cfg.devices, devices...)
		return nil
	}
}

// WithPollingInterval sets how often devices are polled. Defaults to 1
// second. Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *sbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithMaxConcurrency limits how many devices are polled simultaneously.
// Defaults to 4. Returns an error if n is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *sbConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithSampleCallback registers a function called with every committed
// sample, whether it arrived through POST /update or a device poll.
//
// Callbacks run after the sample is stored, on the ingesting goroutine, in
// registration order. They must not block. Panics are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithSampleCallback(cb func(Sample)) Option {
	return func(cfg *sbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.sampleCallbacks = append(cfg.sampleCallbacks, cb)
		return nil
	}
}
