package sensorboard

import (
	"errors"
	"time"
)

// deviceConfig holds mutable state during device construction.
type deviceConfig struct {
	headers  map[string]string
	timeout  time.Duration
	decoder  Decoder
	interval time.Duration
}

// DeviceOption configures a [Device] during construction.
//
// Built-in options: [WithDeviceTimeout], [WithDeviceInterval],
// [WithDeviceHeaders], [WithDecoder].
type DeviceOption func(*deviceConfig) error

// WithDeviceHeaders adds HTTP headers sent with every poll of this device.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	dev, err := sensorboard.NewDevice("esp32", url,
//	    sensorboard.WithDeviceHeaders("X-Device-Token", token),
//	)
func WithDeviceHeaders(keyValues ...string) DeviceOption {
	return func(cfg *deviceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithDeviceHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithDeviceTimeout sets the HTTP request timeout for this device.
// Defaults to 5 seconds. Returns an error if d is zero or negative.
func WithDeviceTimeout(d time.Duration) DeviceOption {
	return func(cfg *deviceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithDeviceInterval polls this device at d instead of the global polling
// interval.
//
// The interval must be between 100ms and 1 hour. Sensor boards are usually
// polled much faster than health endpoints, hence the low floor.
func WithDeviceInterval(d time.Duration) DeviceOption {
	return func(cfg *deviceConfig) error {
		if d < 100*time.Millisecond {
			return errors.New("interval must be at least 100ms")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithDecoder sets how the device's response body becomes a [Sample].
// Defaults to [JSONDecoder]. A nil decoder keeps the default.
func WithDecoder(d Decoder) DeviceOption {
	return func(cfg *deviceConfig) error {
		cfg.decoder = d
		return nil
	}
}
