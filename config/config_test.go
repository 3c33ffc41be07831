package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(`title: Bench`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.Mode != "replace" {
		t.Errorf("Mode = %q, want replace", cfg.Mode)
	}
	if cfg.PollInterval.Duration() != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval.Duration())
	}
	if cfg.Title != "Bench" {
		t.Errorf("Title = %q, want Bench", cfg.Title)
	}
	if cfg.Tunnel.IsEnabled() {
		t.Error("Tunnel should default to disabled")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
}

func TestParse_FullConfig(t *testing.T) {
	t.Setenv("TEST_NGROK_KEY", "secret-token")
	t.Setenv("TEST_BOARD_HOST", "192.168.1.40")

	yaml := `
title: Acelerómetro ESP32
port: 8000
mode: append
history_limit: 500
emg: true
push: true
report: true
tunnel:
  enabled: true
  authtoken: ${TEST_NGROK_KEY}
poll_interval: 250ms
max_concurrency: 2
devices:
  - name: esp32
    url: http://${TEST_BOARD_HOST}/sensor
    timeout: 2s
    interval: 500ms
    headers:
      X-Device-Token: abc
    fields:
      ax: accel.x
      ay: accel.y
      az: accel.z
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8000 || cfg.Mode != "append" || cfg.HistoryLimit != 500 {
		t.Errorf("Port/Mode/HistoryLimit = %d/%s/%d", cfg.Port, cfg.Mode, cfg.HistoryLimit)
	}
	if !cfg.EMG || !cfg.Push || !cfg.Report {
		t.Errorf("EMG/Push/Report = %v/%v/%v, want all true", cfg.EMG, cfg.Push, cfg.Report)
	}
	if !cfg.Tunnel.IsEnabled() || cfg.Tunnel.Authtoken != "secret-token" {
		t.Errorf("Tunnel = %+v", cfg.Tunnel)
	}
	if cfg.PollInterval.Duration() != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval.Duration())
	}
	if cfg.MaxConcurrency != 2 {
		t.Errorf("MaxConcurrency = %d, want 2", cfg.MaxConcurrency)
	}

	if len(cfg.Devices) != 1 {
		t.Fatalf("len(Devices) = %d, want 1", len(cfg.Devices))
	}
	d := cfg.Devices[0]
	if d.URL != "http://192.168.1.40/sensor" {
		t.Errorf("URL = %q, want expanded host", d.URL)
	}
	if d.Timeout.Duration() != 2*time.Second || d.Interval.Duration() != 500*time.Millisecond {
		t.Errorf("Timeout/Interval = %v/%v", d.Timeout.Duration(), d.Interval.Duration())
	}
	if d.Headers["X-Device-Token"] != "abc" {
		t.Errorf("Headers = %v", d.Headers)
	}
	if d.Fields["ax"] != "accel.x" || len(d.Fields) != 3 {
		t.Errorf("Fields = %v", d.Fields)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
tunnel:
  enabled: true
  authtoken: ${TEST_UNSET_NGROK_KEY:-fallback}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Tunnel.Authtoken != "fallback" {
		t.Errorf("Authtoken = %q, want fallback", cfg.Tunnel.Authtoken)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
devices:
  - name: esp32
    url: http://${TEST_UNSET_BOARD_HOST}/sensor
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "TEST_UNSET_BOARD_HOST") {
		t.Errorf("error = %v, want it to name the variable", err)
	}
}

func TestParse_UnsetAuthtokenIsEmpty(t *testing.T) {
	yaml := `
tunnel:
  enabled: true
  authtoken: ${TEST_UNSET_NGROK_KEY}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v, want unset token to expand to empty", err)
	}
	if cfg.Tunnel.Authtoken != "" {
		t.Errorf("Authtoken = %q, want empty", cfg.Tunnel.Authtoken)
	}
	if !cfg.Tunnel.IsEnabled() {
		t.Error("tunnel should stay enabled so the missing token is reported at startup")
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "port out of range",
			yaml:    `port: 70000`,
			wantErr: "port must be between",
		},
		{
			name:    "unknown mode",
			yaml:    `mode: ring`,
			wantErr: "mode must be replace or append",
		},
		{
			name:    "report in replace mode",
			yaml:    "mode: replace\nreport: true",
			wantErr: "report requires mode: append",
		},
		{
			name:    "negative history limit",
			yaml:    "mode: append\nhistory_limit: -1",
			wantErr: "history_limit cannot be negative",
		},
		{
			name:    "negative max concurrency",
			yaml:    `max_concurrency: -2`,
			wantErr: "max_concurrency cannot be negative",
		},
		{
			name:    "poll interval too short",
			yaml:    `poll_interval: 10ms`,
			wantErr: "poll_interval must be at least 100ms",
		},
		{
			name: "device without name",
			yaml: `
devices:
  - url: http://10.0.0.1/`,
			wantErr: "name is required",
		},
		{
			name: "device without url",
			yaml: `
devices:
  - name: esp32`,
			wantErr: "url is required",
		},
		{
			name: "device with bad scheme",
			yaml: `
devices:
  - name: esp32
    url: ftp://10.0.0.1/`,
			wantErr: "url scheme must be http or https",
		},
		{
			name: "duplicate device names",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
  - name: esp32
    url: http://10.0.0.2/`,
			wantErr: "duplicate device name",
		},
		{
			name: "device interval too short",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
    interval: 50ms`,
			wantErr: "interval must be at least",
		},
		{
			name: "device interval too long",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
    interval: 2h`,
			wantErr: "interval must not exceed 1h",
		},
		{
			name: "negative timeout",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
    timeout: -1s`,
			wantErr: "timeout cannot be negative",
		},
		{
			name: "unknown field",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
    fields: {gx: gyro.x}`,
			wantErr: "unknown sample field",
		},
		{
			name: "empty field path",
			yaml: `
devices:
  - name: esp32
    url: http://10.0.0.1/
    fields: {ax: ""}`,
			wantErr: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want 'failed to parse YAML'", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte(`poll_interval: often`))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want 'invalid duration'", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != 5000 || cfg.Mode != "replace" || cfg.PollInterval.Duration() != time.Second {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.Push || cfg.Report || cfg.Tunnel.IsEnabled() || len(cfg.Devices) != 0 {
		t.Errorf("Default() should enable nothing optional: %+v", cfg)
	}
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func boolPtr(b bool) *bool { return &b }

func TestParse_ExplicitTunnelDisableSurvivesKey(t *testing.T) {
	cfg, err := Parse([]byte("tunnel:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := cfg.ApplyEnv(mapLookup(map[string]string{"KEY": "tok"})); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Tunnel.IsEnabled() {
		t.Error("KEY enabled a tunnel the file disabled")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		env         map[string]string
		wantPort    int
		wantToken   string
		wantEnabled bool
		wantErr     bool
	}{
		{
			name:     "no env",
			cfg:      Config{Port: 5000},
			env:      map[string]string{},
			wantPort: 5000,
		},
		{
			name:     "port override",
			cfg:      Config{Port: 5000},
			env:      map[string]string{"PORT": "8080"},
			wantPort: 8080,
		},
		{
			name:        "key enables tunnel",
			cfg:         Config{Port: 5000},
			env:         map[string]string{"KEY": "tok"},
			wantPort:    5000,
			wantToken:   "tok",
			wantEnabled: true,
		},
		{
			name:        "configured token wins",
			cfg:         Config{Port: 5000, Tunnel: TunnelConfig{Enabled: boolPtr(true), Authtoken: "file"}},
			env:         map[string]string{"KEY": "env"},
			wantPort:    5000,
			wantToken:   "file",
			wantEnabled: true,
		},
		{
			name:        "explicit disable wins over key",
			cfg:         Config{Port: 5000, Tunnel: TunnelConfig{Enabled: boolPtr(false)}},
			env:         map[string]string{"KEY": "tok"},
			wantPort:    5000,
			wantToken:   "tok",
			wantEnabled: false,
		},
		{
			name:     "empty values ignored",
			cfg:      Config{Port: 5000},
			env:      map[string]string{"PORT": "", "KEY": ""},
			wantPort: 5000,
		},
		{
			name:    "invalid port",
			cfg:     Config{Port: 5000},
			env:     map[string]string{"PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			cfg:     Config{Port: 5000},
			env:     map[string]string{"PORT": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.ApplyEnv(mapLookup(tt.env))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.Tunnel.Authtoken != tt.wantToken || cfg.Tunnel.IsEnabled() != tt.wantEnabled {
				t.Errorf("Tunnel = %+v, want token %q enabled %v", cfg.Tunnel, tt.wantToken, tt.wantEnabled)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_SET", "value")
	t.Setenv("TEST_EXPAND_EMPTY", "")

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${TEST_EXPAND_SET}", "value", false},
		{"a-${TEST_EXPAND_SET}-b", "a-value-b", false},
		{"${TEST_EXPAND_EMPTY}", "", false},
		{"${TEST_EXPAND_UNSET:-dflt}", "dflt", false},
		{"${TEST_EXPAND_UNSET:-}", "", false},
		{"${TEST_EXPAND_SET:-dflt}", "value", false},
		{"${TEST_EXPAND_UNSET}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandEnvVars(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
