package store

import (
	"sync"
	"sync/atomic"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 100

// Config controls the behaviour of a [MemoryStore].
type Config struct {
	// Mode selects replace or append semantics. Empty means [ModeReplace].
	Mode Mode

	// HistoryLimit bounds the history in append mode. Zero means unbounded;
	// with a positive limit the oldest sample is evicted first.
	HistoryLimit int

	// EMG adds emg: 0 to the zero record.
	EMG bool
}

// MemoryStore is an in-memory implementation of [Store].
//
// In replace mode it holds one sample that each ingest overwrites. In append
// mode it holds the history in completion order, and [MemoryStore.Latest]
// returns its last element.
//
// Mutations are serialised by a mutex, so the last ingest to complete wins.
// Broadcast happens after the commit and outside the lock; two concurrent
// ingests may therefore reach subscribers in a different order than they
// were committed.
type MemoryStore struct {
	mode         Mode
	historyLimit int
	zero         Sample

	mu       sync.RWMutex
	latest   Sample
	history  []Sample
	ingested uint64

	subscribers map[chan Sample]struct{}
	subMu       sync.RWMutex
	dropped     atomic.Uint64
}

// NewMemoryStore creates a new in-memory [Store] holding the zero record.
func NewMemoryStore(cfg Config) *MemoryStore {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeReplace
	}
	limit := cfg.HistoryLimit
	if limit < 0 {
		limit = 0
	}

	zero := ZeroSample(cfg.EMG)
	return &MemoryStore{
		mode:         mode,
		historyLimit: limit,
		zero:         zero,
		latest:       zero.Clone(),
		history:      []Sample{},
		subscribers:  make(map[chan Sample]struct{}),
	}
}

// Mode reports how the store commits samples.
func (m *MemoryStore) Mode() Mode {
	return m.mode
}

// Ingest commits the sample and notifies all subscribers.
func (m *MemoryStore) Ingest(sample Sample) {
	sample = sample.Clone()

	m.mu.Lock()
	m.latest = sample
	if m.mode == ModeAppend {
		if m.historyLimit > 0 && len(m.history) >= m.historyLimit {
			// evict oldest, keep capacity
			copy(m.history, m.history[1:])
			m.history[len(m.history)-1] = sample
		} else {
			m.history = append(m.history, sample)
		}
	}
	m.ingested++
	m.mu.Unlock()

	m.notifySubscribers(sample)
}

// Latest returns the current sample.
func (m *MemoryStore) Latest() Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest.Clone()
}

// History returns a copy of the sample history.
func (m *MemoryStore) History() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Sample, len(m.history))
	for i, s := range m.history {
		out[i] = s.Clone()
	}
	return out
}

// Subscribe creates a new subscription and returns a channel for receiving
// samples.
//
// The returned channel has a buffer of 100 samples. If the buffer fills,
// new samples are dropped for this subscriber.
func (m *MemoryStore) Subscribe() <-chan Sample {
	ch := make(chan Sample, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Sample) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Stats returns current counters.
func (m *MemoryStore) Stats() Stats {
	m.mu.RLock()
	historyLen := len(m.history)
	ingested := m.ingested
	m.mu.RUnlock()

	m.subMu.RLock()
	subscribers := len(m.subscribers)
	m.subMu.RUnlock()

	return Stats{
		Subscribers: subscribers,
		HistoryLen:  historyLen,
		Ingested:    ingested,
		Dropped:     m.dropped.Load(),
	}
}

// notifySubscribers sends the sample to all active subscribers without
// blocking. A full buffer drops the sample for that subscriber.
func (m *MemoryStore) notifySubscribers(sample Sample) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- sample.Clone():
		default:
			m.dropped.Add(1)
		}
	}
}
