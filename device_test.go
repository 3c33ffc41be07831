package sensorboard

import (
	"testing"
	"time"
)

func TestNewDevice_Valid(t *testing.T) {
	d, err := NewDevice("esp32", "http://192.168.1.40/sensor")
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}

	if d.Name() != "esp32" {
		t.Errorf("Name() = %v, want esp32", d.Name())
	}
	if d.URL() != "http://192.168.1.40/sensor" {
		t.Errorf("URL() = %v", d.URL())
	}
	if d.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", d.Timeout())
	}
	if d.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", d.Interval())
	}
	if d.Decoder() != nil {
		t.Error("Decoder() should be nil by default")
	}
}

func TestNewDevice_Invalid(t *testing.T) {
	tests := []struct {
		name string
		dev  string
		url  string
	}{
		{"empty name", "", "http://10.0.0.1/"},
		{"no scheme", "esp32", "10.0.0.1/sensor"},
		{"bad url", "esp32", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDevice(tt.dev, tt.url); err == nil {
				t.Errorf("NewDevice(%q, %q) expected error, got nil", tt.dev, tt.url)
			}
		})
	}
}

func TestWithDeviceHeaders(t *testing.T) {
	d, err := NewDevice("esp32", "http://10.0.0.1/", WithDeviceHeaders("X-Token", "abc", "Accept-Language", "es"))
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	h := d.Headers()
	if h["X-Token"] != "abc" || h["Accept-Language"] != "es" {
		t.Errorf("Headers() = %v", h)
	}

	// returned map is a copy
	h["X-Token"] = "changed"
	if d.Headers()["X-Token"] != "abc" {
		t.Error("modifying Headers() result affected the device")
	}
}

func TestWithDeviceHeaders_OddArgs(t *testing.T) {
	if _, err := NewDevice("esp32", "http://10.0.0.1/", WithDeviceHeaders("X-Token")); err == nil {
		t.Error("expected error for odd header arguments")
	}
}

func TestWithDeviceTimeout(t *testing.T) {
	d, err := NewDevice("esp32", "http://10.0.0.1/", WithDeviceTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	if d.Timeout() != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", d.Timeout())
	}

	if _, err := NewDevice("esp32", "http://10.0.0.1/", WithDeviceTimeout(0)); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestWithDeviceInterval(t *testing.T) {
	tests := []struct {
		interval time.Duration
		wantErr  bool
	}{
		{100 * time.Millisecond, false},
		{time.Second, false},
		{time.Hour, false},
		{50 * time.Millisecond, true},
		{2 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.interval.String(), func(t *testing.T) {
			d, err := NewDevice("esp32", "http://10.0.0.1/", WithDeviceInterval(tt.interval))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.Interval() != tt.interval {
				t.Errorf("Interval() = %v, want %v", d.Interval(), tt.interval)
			}
		})
	}
}

func TestWithDecoder(t *testing.T) {
	called := false
	dec := Decoder(func(body []byte) (Sample, error) {
		called = true
		return Sample{AX: 1}, nil
	})

	d, err := NewDevice("esp32", "http://10.0.0.1/", WithDecoder(dec))
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	if d.Decoder() == nil {
		t.Fatal("Decoder() = nil")
	}
	s, _ := d.Decoder()(nil)
	if !called || s.AX != 1 {
		t.Error("Decoder() did not return the configured decoder")
	}
}

func TestToPollerDevices_HeadersCopied(t *testing.T) {
	d, _ := NewDevice("esp32", "http://10.0.0.1/", WithDeviceHeaders("X-Token", "abc"))
	sb, _ := New(WithDevice(d))

	devices := sb.toPollerDevices()
	devices[0].Headers["X-Token"] = "changed"

	if sb.devices[0].headers["X-Token"] != "abc" {
		t.Error("poller device headers share the device map")
	}
}

func TestToPollerDevices_DecoderWrapped(t *testing.T) {
	emg := 0.4
	dec := Decoder(func(body []byte) (Sample, error) {
		return Sample{AX: 1, AY: 2, AZ: 3, EMG: &emg}, nil
	})
	d, _ := NewDevice("esp32", "http://10.0.0.1/", WithDecoder(dec), WithDeviceInterval(time.Second))
	sb, _ := New(WithDevice(d))

	pd := sb.toPollerDevices()[0]
	if pd.Interval != time.Second {
		t.Errorf("Interval = %v, want 1s", pd.Interval)
	}
	s, err := pd.Decoder(nil)
	if err != nil {
		t.Fatalf("Decoder() error = %v", err)
	}
	if s.AX != 1 || s.AY != 2 || s.AZ != 3 || s.EMG == nil || *s.EMG != 0.4 {
		t.Errorf("Decoder() = %+v", s)
	}
}

func TestToPollerDevices_NilDecoder(t *testing.T) {
	d, _ := NewDevice("esp32", "http://10.0.0.1/")
	sb, _ := New(WithDevice(d))

	if sb.toPollerDevices()[0].Decoder != nil {
		t.Error("nil decoder should stay nil so the poller uses its default")
	}
}
