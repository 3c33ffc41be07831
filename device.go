package sensorboard

import (
	"errors"
	"net/url"
	"time"
)

const defaultDeviceTimeout = 5 * time.Second

// Device is a sensor board that serves its latest reading over HTTP and is
// polled instead of pushing to POST /update.
//
// Device is immutable after creation via [NewDevice].
type Device struct {
	name     string
	url      string
	headers  map[string]string
	timeout  time.Duration
	decoder  Decoder
	interval time.Duration
}

// Name returns the device name used in logs.
func (d Device) Name() string {
	return d.name
}

// URL returns the polled URL.
func (d Device) URL() string {
	return d.url
}

// Headers returns a copy of the headers sent with each poll.
func (d Device) Headers() map[string]string {
	return copyMap(d.headers)
}

// Timeout returns the per-request timeout.
func (d Device) Timeout() time.Duration {
	return d.timeout
}

// Decoder returns the configured decoder, or nil for [JSONDecoder].
func (d Device) Decoder() Decoder {
	return d.decoder
}

// Interval returns the per-device interval, or 0 for the global one.
func (d Device) Interval() time.Duration {
	return d.interval
}

// NewDevice creates a [Device] with the given name, URL, and options.
//
// Returns an error if the name is empty or the URL has no scheme.
//
// Example:
//
//	dev, err := sensorboard.NewDevice("esp32", "http://192.168.1.40/sensor",
//	    sensorboard.WithDeviceTimeout(2 * time.Second),
//	)
func NewDevice(name, rawURL string, opts ...DeviceOption) (Device, error) {
	if name == "" {
		return Device{}, errors.New("device name cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Device{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme == "" {
		return Device{}, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &deviceConfig{
		headers: make(map[string]string),
		timeout: defaultDeviceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Device{}, err
		}
	}

	return Device{
		name:     name,
		url:      rawURL,
		headers:  cfg.headers,
		timeout:  cfg.timeout,
		decoder:  cfg.decoder,
		interval: cfg.interval,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
