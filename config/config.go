// Package config provides YAML configuration parsing for SensorBoard.
//
// This package enables running SensorBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Acelerómetro ESP32
//	port: 5000
//	mode: append
//	push: true
//	report: true
//
//	tunnel:
//	  enabled: true
//	  authtoken: ${KEY}
//
//	devices:
//	  - name: esp32
//	    url: http://192.168.1.40/sensor
//	    fields: {ax: accel.x, ay: accel.y, az: accel.z}
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 5000
	defaultPollInterval = time.Second

	// minPollInterval keeps aggressive configs from flooding a board.
	minPollInterval = 100 * time.Millisecond
)

// environment variables read by ApplyEnv
const (
	EnvPort      = "PORT"
	EnvAuthtoken = "KEY"
)

// Config is the root configuration structure for SensorBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [Default] to create a Config.
type Config struct {
	// Title is the dashboard and report title.
	Title string `yaml:"title"`

	// Port is the local HTTP port. Defaults to 5000.
	Port int `yaml:"port"`

	// Mode is "replace" (default) or "append".
	Mode string `yaml:"mode"`

	// HistoryLimit bounds the append-mode history. 0 keeps everything.
	HistoryLimit int `yaml:"history_limit"`

	// EMG adds emg: 0 to the zero record.
	EMG bool `yaml:"emg"`

	// Push enables the WebSocket and SSE push channels.
	Push bool `yaml:"push"`

	// Report enables GET /download-pdf. Requires append mode.
	Report bool `yaml:"report"`

	// Tunnel configures the public ngrok endpoint.
	Tunnel TunnelConfig `yaml:"tunnel"`

	// PollInterval is the default time between device polls.
	// Accepts duration strings like "1s", "500ms". Defaults to 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// MaxConcurrency limits simultaneous device polls. 0 keeps the SDK
	// default.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Devices are boards polled for samples.
	Devices []DeviceConfig `yaml:"devices"`
}

// TunnelConfig configures the public tunnel.
type TunnelConfig struct {
	// Enabled is nil when the file does not say; KEY may then enable it.
	Enabled *bool `yaml:"enabled"`

	// Authtoken is the ngrok auth token.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}.
	// An unset variable leaves the token empty and the tunnel is skipped.
	Authtoken string `yaml:"authtoken"`
}

// IsEnabled reports whether the tunnel was requested.
func (t TunnelConfig) IsEnabled() bool {
	return t.Enabled != nil && *t.Enabled
}

// DeviceConfig defines a single polled board.
type DeviceConfig struct {
	// Name identifies the device in logs. Must be unique.
	Name string `yaml:"name"`

	// URL returns the board's latest reading.
	// Supports environment variable substitution.
	URL string `yaml:"url"`

	// Timeout is the request timeout. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`

	// Interval overrides poll_interval for this device.
	// Must be between 100ms and 1h.
	Interval Duration `yaml:"interval"`

	// Headers are sent with each request. Values support environment
	// variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Fields maps sample fields (ax, ay, az, emg) to dot-notation paths in
	// the device response. Empty means the body is already {"ax":..}.
	Fields map[string]string `yaml:"fields"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
// An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	return expand(s, true)
}

// expandOptionalEnvVars is like expandEnvVars but unset variables expand to
// the empty string.
func expandOptionalEnvVars(s string) string {
	out, _ := expand(s, false)
	return out
}

func expand(s string, strict bool) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			if !strict {
				return ""
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given: a
// replace-mode relay on port 5000 with no tunnel and no devices.
func Default() *Config {
	return &Config{
		Port:         defaultPort,
		Mode:         "replace",
		PollInterval: Duration(defaultPollInterval),
	}
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in tunnel.authtoken, device URLs and
// header values. Defaults are applied for Port (5000), Mode (replace) and
// PollInterval (1s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Mode == "" {
		cfg.Mode = "replace"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overlays environment settings read through lookup:
// PORT replaces the port, and KEY supplies the tunnel auth token when none
// is configured. KEY also enables the tunnel unless the file set
// tunnel.enabled explicitly.
//
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q: %w", EnvPort, v, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s: port must be between 1 and 65535, got %d", EnvPort, port)
		}
		c.Port = port
	}

	if v, ok := lookup(EnvAuthtoken); ok && v != "" && c.Tunnel.Authtoken == "" {
		c.Tunnel.Authtoken = v
		if c.Tunnel.Enabled == nil {
			enabled := true
			c.Tunnel.Enabled = &enabled
		}
	}
	return nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Mode {
	case "replace":
		if c.Report {
			return fmt.Errorf("report requires mode: append")
		}
	case "append":
	default:
		return fmt.Errorf("mode must be replace or append, got %q", c.Mode)
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit cannot be negative, got %d", c.HistoryLimit)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	// a missing token is not fatal; the tunnel is skipped with a warning
	c.Tunnel.Authtoken = expandOptionalEnvVars(c.Tunnel.Authtoken)

	seen := make(map[string]struct{}, len(c.Devices))
	for i := range c.Devices {
		d := &c.Devices[i]

		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("devices[%d] (%s): duplicate device name", i, d.Name)
		}
		seen[d.Name] = struct{}{}

		if d.URL == "" {
			return fmt.Errorf("devices[%d] (%s): url is required", i, d.Name)
		}
		expanded, err := expandEnvVars(d.URL)
		if err != nil {
			return fmt.Errorf("devices[%d] (%s): url: %w", i, d.Name, err)
		}
		d.URL = expanded

		parsedURL, err := url.Parse(d.URL)
		if err != nil {
			return fmt.Errorf("devices[%d] (%s): invalid url: %w", i, d.Name, err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("devices[%d] (%s): url scheme must be http or https, got %q", i, d.Name, parsedURL.Scheme)
		}

		for k, v := range d.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("devices[%d] (%s): headers[%s]: %w", i, d.Name, k, err)
			}
			d.Headers[k] = expanded
		}

		if d.Timeout.Duration() < 0 {
			return fmt.Errorf("devices[%d] (%s): timeout cannot be negative, got %s",
				i, d.Name, d.Timeout.Duration())
		}

		if d.Interval != 0 {
			if d.Interval.Duration() < minPollInterval {
				return fmt.Errorf("devices[%d] (%s): interval must be at least %s, got %s",
					i, d.Name, minPollInterval, d.Interval.Duration())
			}
			if d.Interval.Duration() > time.Hour {
				return fmt.Errorf("devices[%d] (%s): interval must not exceed 1h, got %s",
					i, d.Name, d.Interval.Duration())
			}
		}

		for field, path := range d.Fields {
			switch field {
			case "ax", "ay", "az", "emg":
			default:
				return fmt.Errorf("devices[%d] (%s): fields: unknown sample field %q", i, d.Name, field)
			}
			if path == "" {
				return fmt.Errorf("devices[%d] (%s): fields[%s]: path is required", i, d.Name, field)
			}
		}
	}

	return nil
}
