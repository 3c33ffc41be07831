package sensorboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/sensorboard/dashboard"
	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/poller"
	"github.com/jpalmerr/sensorboard/internal/server"
	"github.com/jpalmerr/sensorboard/internal/store"
	"github.com/jpalmerr/sensorboard/internal/tunnel"
)

const (
	defaultPort            = 5000
	defaultPollingInterval = time.Second
	defaultMaxConcurrency  = 4
)

// SensorBoard relays sensor samples from a board to dashboard viewers.
//
// Samples arrive through POST /update or by polling configured devices, are
// kept in replace or append mode, and are read back through GET /data, the
// push channels, and (in append mode) the PDF report.
//
// The typical lifecycle is:
//
//	sb, err := sensorboard.New(sensorboard.WithMode(sensorboard.ModeAppend))
//	if err != nil {
//	    slog.Error("failed to create sensorboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sb.Start(ctx) // blocks until context cancelled
type SensorBoard struct {
	title           string
	port            int
	mode            Mode
	historyLimit    int
	emg             bool
	push            bool
	report          bool
	devices         []Device
	pollingInterval time.Duration
	maxConcurrency  int
	logger          *slog.Logger
	sampleCallbacks []func(Sample)
	opener          tunnel.Opener
}

// New creates a new [SensorBoard] with the given options.
//
// Defaults: port 5000, replace mode, no push, no report, no tunnel, no
// devices, 1s polling interval, 4 concurrent polls.
//
// Returns an error if any option is invalid, if the report is enabled
// outside append mode, or if two devices share a name.
func New(opts ...Option) (*SensorBoard, error) {
	cfg := &sbConfig{
		port:            defaultPort,
		mode:            ModeReplace,
		pollingInterval: defaultPollingInterval,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.report && cfg.mode != ModeAppend {
		return nil, errors.New("report requires append mode")
	}

	// names key the per-device interval tracking in the poller
	seen := make(map[string]bool, len(cfg.devices))
	for _, d := range cfg.devices {
		if seen[d.name] {
			return nil, fmt.Errorf("duplicate device name: %q", d.name)
		}
		seen[d.name] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	sb := &SensorBoard{
		title:           cfg.title,
		port:            cfg.port,
		mode:            cfg.mode,
		historyLimit:    cfg.historyLimit,
		emg:             cfg.emg,
		push:            cfg.push,
		report:          cfg.report,
		devices:         cfg.devices,
		pollingInterval: cfg.pollingInterval,
		maxConcurrency:  cfg.maxConcurrency,
		logger:          logger,
		sampleCallbacks: cfg.sampleCallbacks,
	}
	if cfg.tunnelToken != "" {
		sb.opener = tunnel.NewNgrok(cfg.tunnelToken)
	}
	return sb, nil
}

// Start serves the board until ctx is cancelled.
//
// On start the HTTP server binds the local port, the tunnel (if any) is
// opened, and device polling begins. Start returns nil on graceful shutdown
// and an error only if the local port cannot be bound. A tunnel failure is
// logged as a warning.
func (sb *SensorBoard) Start(ctx context.Context) error {
	sb.logger.Info("sensorboard starting",
		"port", sb.port,
		"mode", sb.mode.String(),
		"push", sb.push,
		"report", sb.report,
		"device_count", len(sb.devices),
	)

	if ctx.Err() != nil {
		return nil
	}

	mem := store.NewMemoryStore(store.Config{
		Mode:         store.Mode(sb.mode),
		HistoryLimit: sb.historyLimit,
		EMG:          sb.emg,
	})
	st := &callbackStore{MemoryStore: mem, callbacks: sb.sampleCallbacks, logger: sb.logger}

	httpServer := server.NewServer(st, server.Config{
		Port:    sb.port,
		Title:   sb.title,
		Push:    sb.push,
		Report:  sb.report,
		Assets:  dashboard.Assets,
		Metrics: metrics.New(mem),
		Logger:  sb.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	sb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sb.port))

	if sb.opener != nil {
		sb.openTunnel(ctx, httpServer)
	}

	var wg sync.WaitGroup
	var scheduler *poller.Scheduler
	if len(sb.devices) > 0 {
		scheduler = poller.NewScheduler(sb.toPollerDevices(), sb.pollingInterval, sb.maxConcurrency, sb.logger)
		scheduler.Start(ctx)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for result := range scheduler.Results() {
				sb.handlePollResult(st, result)
			}
		}()
	}

	<-ctx.Done()
	if scheduler != nil {
		scheduler.Stop() // closes results channel
	}
	wg.Wait()
	sb.logger.Info("sensorboard stopped")
	return nil
}

func (sb *SensorBoard) openTunnel(ctx context.Context, httpServer *server.Server) {
	ln, publicURL, err := sb.opener.Open(ctx)
	if err != nil {
		sb.logger.Warn("tunnel unavailable, serving locally only", "error", err)
		return
	}
	if err := httpServer.Serve(ln); err != nil {
		sb.logger.Warn("tunnel listener not served", "error", err)
		_ = ln.Close()
		return
	}
	sb.logger.Info("public tunnel open", "url", publicURL)
}

func (sb *SensorBoard) handlePollResult(st store.Store, result poller.Result) {
	logAttrs := []any{
		"device", result.Device,
		"url", result.URL,
		"latency_ms", result.Latency.Milliseconds(),
	}
	if result.Error != nil {
		sb.logger.Warn("poll failed", append(logAttrs, "error", result.Error.Error())...)
		return
	}
	st.Ingest(result.Sample)
	sb.logger.Debug("poll completed", logAttrs...)
}

// toPollerDevices converts the Device slice to the poller's format.
func (sb *SensorBoard) toPollerDevices() []poller.Device {
	result := make([]poller.Device, len(sb.devices))

	for i, d := range sb.devices {
		var decoder poller.Decoder
		if d.decoder != nil {
			dec := d.decoder
			decoder = func(body []byte) (store.Sample, error) {
				s, err := dec(body)
				if err != nil {
					return store.Sample{}, err
				}
				return s.toStore(), nil
			}
		}

		result[i] = poller.Device{
			Name:     d.name,
			URL:      d.url,
			Headers:  copyMap(d.headers),
			Timeout:  d.timeout,
			Decoder:  decoder,
			Interval: d.interval,
		}
	}
	return result
}

// Devices returns a copy of the configured devices.
func (sb *SensorBoard) Devices() []Device {
	cp := make([]Device, len(sb.devices))
	copy(cp, sb.devices)
	return cp
}

// Port returns the configured local HTTP port.
func (sb *SensorBoard) Port() int {
	return sb.port
}

// Mode returns the configured store mode.
func (sb *SensorBoard) Mode() Mode {
	return sb.mode
}

// callbackStore invokes sample callbacks after each commit.
type callbackStore struct {
	*store.MemoryStore
	callbacks []func(Sample)
	logger    *slog.Logger
}

func (c *callbackStore) Ingest(sample store.Sample) {
	c.MemoryStore.Ingest(sample)
	if len(c.callbacks) == 0 {
		return
	}
	for _, cb := range c.callbacks {
		invokeCallbackSafe(cb, sampleFromStore(sample), c.logger)
	}
}

// invokeCallbackSafe calls a sample callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Sample), sample Sample, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sample callback panicked", "panic", r)
		}
	}()
	cb(sample)
}
