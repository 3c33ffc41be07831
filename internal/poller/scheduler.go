package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// ErrUnexpectedStatus is wrapped when a device answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Decoder turns a device response body into a sample.
type Decoder func(body []byte) (store.Sample, error)

// Device contains the configuration needed to poll a single device.
type Device struct {
	// Name identifies the device in logs.
	Name string

	// URL is the device endpoint returning the latest reading.
	URL string

	// Headers are sent with each request.
	Headers map[string]string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Decoder parses the body. Nil means [store.ParseSample].
	Decoder Decoder

	// Interval overrides the scheduler's interval when non-zero.
	Interval time.Duration
}

// Result holds the outcome of fetching a single device.
type Result struct {
	// Device is the name of the polled device.
	Device string

	// URL is the endpoint that was fetched.
	URL string

	// Sample is the decoded reading. Only meaningful when Error is nil.
	Sample store.Sample

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time

	// StatusCode is the HTTP status code, zero on transport failure.
	StatusCode int

	// Error describes why no sample was produced.
	Error error
}

// Scheduler manages periodic polling of devices.
//
// It polls every device immediately on start, then ticks at the GCD of all
// device intervals and polls only devices that are due. Results are emitted
// on [Scheduler.Results].
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	devices        []Device
	interval       time.Duration
	maxConcurrency int
	client         *Client
	results        chan Result
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	lastPolledAt map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a new polling [Scheduler].
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(devices []Device, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Scheduler{
		devices:        devices,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		client:         NewClient(),
		results:        make(chan Result, len(devices)),
		logger:         logger,
	}
}

// Results returns a receive-only channel of poll results.
// The channel is closed when the scheduler stops.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// calculateBaseInterval returns the GCD of all device intervals, floored at
// 100ms.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.devices) == 0 {
		return s.interval
	}

	result := time.Duration(0)
	for _, d := range s.devices {
		interval := d.Interval
		if interval <= 0 {
			interval = s.interval
		}
		result = gcdDuration(result, interval)
	}

	if result < 100*time.Millisecond {
		result = 100 * time.Millisecond
	}
	return result
}

// gcdDuration calculates the greatest common divisor of two durations.
func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the polling loop in a background goroutine.
//
// Start is idempotent; calls after the first are no-ops, as is Start after
// Stop. A nil ctx means context.Background().
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastPolledAt = make(map[string]time.Time, len(s.devices))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.pollDue(pollCtx, true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				s.pollDue(pollCtx, false)
			}
		}
	}()
}

// Stop halts the scheduler and waits for in-flight polls to finish.
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	if s.client != nil {
		s.client.Close()
	}

	s.closeOnce.Do(func() { close(s.results) })
}

// pollDue polls devices whose interval has elapsed. If immediate is true,
// polls all devices.
//
// lastPolledAt is updated when a poll starts, so the effective interval of a
// slow device is its interval plus the fetch duration.
func (s *Scheduler) pollDue(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]Device, 0, len(s.devices))

	s.mu.Lock()
	for _, d := range s.devices {
		interval := d.Interval
		if interval <= 0 {
			interval = s.interval
		}

		last, seen := s.lastPolledAt[d.Name]
		if immediate || !seen || now.Sub(last) >= interval {
			due = append(due, d)
			s.lastPolledAt[d.Name] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}
	s.pollDevices(ctx, due)
}

// pollDevices polls devices concurrently, respecting maxConcurrency.
func (s *Scheduler) pollDevices(ctx context.Context, devices []Device) {
	jobs := make(chan Device, len(devices))

	var wg sync.WaitGroup
	for i := 0; i < s.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				result := s.pollDevice(ctx, d)
				select {
				case s.results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, d := range devices {
		select {
		case jobs <- d:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)

	wg.Wait()
}

// pollDevice fetches and decodes a single device reading.
func (s *Scheduler) pollDevice(ctx context.Context, d Device) Result {
	resp := s.client.Fetch(ctx, d.URL, d.Headers, d.Timeout)

	result := Result{
		Device:     d.Name,
		URL:        d.URL,
		Latency:    resp.Latency,
		FetchedAt:  time.Now(),
		StatusCode: resp.StatusCode,
		Error:      resp.Error,
	}
	if resp.Error != nil {
		return result
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		return result
	}

	decoder := d.Decoder
	if decoder == nil {
		decoder = store.ParseSample
	}
	result.Sample, result.Error = s.safeDecode(decoder, resp.Body)
	return result
}

// safeDecode calls the decoder with panic recovery. A panic is logged with a
// correlation ID, which is also returned in the error.
func (s *Scheduler) safeDecode(decoder Decoder, body []byte) (sample store.Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			s.logger.Error("decoder panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			sample = store.Sample{}
			err = fmt.Errorf("decoder panic (correlation_id: %s)", correlationID)
		}
	}()
	return decoder(body)
}
