package store

import "fmt"

// Mode selects how [Store.Ingest] commits a sample.
type Mode string

const (
	// ModeReplace keeps a single latest sample; each ingest overwrites it.
	ModeReplace Mode = "replace"

	// ModeAppend keeps the ordered history of every ingested sample.
	ModeAppend Mode = "append"
)

// ParseMode converts a configuration string into a [Mode].
// An empty string selects [ModeReplace].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected %q or %q)", s, ModeReplace, ModeAppend)
	}
}

// Stats is a point-in-time view of store counters, used for metrics.
type Stats struct {
	// Subscribers is the number of currently registered subscribers.
	Subscribers int

	// HistoryLen is the number of samples held in append mode.
	HistoryLen int

	// Ingested counts every sample committed since startup.
	Ingested uint64

	// Dropped counts broadcast deliveries skipped because a subscriber's
	// buffer was full.
	Dropped uint64
}

// Store defines the shared sample store used by the HTTP layer.
//
// Store implementations must be safe for concurrent access. Reads return
// copies; modifying them does not affect the store.
type Store interface {
	// Ingest commits a sample and then broadcasts it to all subscribers.
	Ingest(sample Sample)

	// Latest returns the most recently committed sample, or the zero record
	// if nothing has been ingested.
	Latest() Sample

	// History returns every sample held in append mode, oldest first.
	// Returns an empty slice in replace mode.
	History() []Sample

	// Mode reports how the store commits samples.
	Mode() Mode

	// Subscribe returns a channel that receives each committed sample.
	// Slow consumers may miss updates. Caller must call Unsubscribe.
	Subscribe() <-chan Sample

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Sample)

	// Stats returns current counters.
	Stats() Stats
}
