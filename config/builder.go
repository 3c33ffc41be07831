package config

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jpalmerr/sensorboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The tunnel is only requested when it is enabled. An enabled tunnel with an
// empty auth token is logged as a warning and skipped, so the board still
// serves locally.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]sensorboard.Option, error) {
	opts := []sensorboard.Option{
		sensorboard.WithPort(cfg.Port),
		sensorboard.WithMode(sensorboard.Mode(cfg.Mode)),
		sensorboard.WithHistoryLimit(cfg.HistoryLimit),
		sensorboard.WithEMG(cfg.EMG),
		sensorboard.WithPush(cfg.Push),
		sensorboard.WithReport(cfg.Report),
		sensorboard.WithPollingInterval(cfg.PollInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, sensorboard.WithTitle(cfg.Title))
	}
	if cfg.MaxConcurrency > 0 {
		opts = append(opts, sensorboard.WithMaxConcurrency(cfg.MaxConcurrency))
	}
	if logger != nil {
		opts = append(opts, sensorboard.WithLogger(logger))
	}

	switch {
	case !cfg.Tunnel.IsEnabled():
	case cfg.Tunnel.Authtoken == "":
		warnLogger := logger
		if warnLogger == nil {
			warnLogger = slog.Default()
		}
		warnLogger.Warn("tunnel enabled without authtoken, serving locally only",
			"hint", "set tunnel.authtoken or "+EnvAuthtoken)
	default:
		opts = append(opts, sensorboard.WithTunnel(cfg.Tunnel.Authtoken))
	}

	devices, err := BuildDevices(cfg)
	if err != nil {
		return nil, err
	}
	if len(devices) > 0 {
		opts = append(opts, sensorboard.WithDevices(devices...))
	}

	return opts, nil
}

// BuildDevices converts device configuration into SDK Device objects.
func BuildDevices(cfg *Config) ([]sensorboard.Device, error) {
	devices := make([]sensorboard.Device, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		d, err := buildDevice(dc)
		if err != nil {
			return nil, fmt.Errorf("device (%s): %w", dc.Name, err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// buildDevice converts a single DeviceConfig to an SDK Device.
func buildDevice(dc DeviceConfig) (sensorboard.Device, error) {
	var opts []sensorboard.DeviceOption

	if dc.Timeout != 0 {
		opts = append(opts, sensorboard.WithDeviceTimeout(dc.Timeout.Duration()))
	}

	if dc.Interval != 0 {
		opts = append(opts, sensorboard.WithDeviceInterval(dc.Interval.Duration()))
	}

	if len(dc.Headers) > 0 {
		opts = append(opts, sensorboard.WithDeviceHeaders(mapToKeyValuePairs(dc.Headers)...))
	}

	if len(dc.Fields) > 0 {
		dec, err := sensorboard.FieldDecoder(dc.Fields)
		if err != nil {
			return sensorboard.Device{}, err
		}
		opts = append(opts, sensorboard.WithDecoder(dec))
	}

	return sensorboard.NewDevice(dc.Name, dc.URL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
