package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jpalmerr/sensorboard/internal/store"
)

type fixedStats store.Stats

func (f fixedStats) Stats() store.Stats { return store.Stats(f) }

func TestMetrics_StoreCollectors(t *testing.T) {
	st := store.NewMemoryStore(store.Config{Mode: store.ModeAppend})
	m := New(st)

	st.Ingest(store.Sample{AX: 1})
	st.Ingest(store.Sample{AX: 2})
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	expected := `
# HELP sensorboard_history_samples Number of samples held in the history
# TYPE sensorboard_history_samples gauge
sensorboard_history_samples 2
# HELP sensorboard_ingest_total Total samples committed to the store
# TYPE sensorboard_ingest_total counter
sensorboard_ingest_total 2
# HELP sensorboard_push_subscribers Number of currently connected push subscribers
# TYPE sensorboard_push_subscribers gauge
sensorboard_push_subscribers 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"sensorboard_history_samples", "sensorboard_ingest_total", "sensorboard_push_subscribers")
	if err != nil {
		t.Errorf("GatherAndCompare() error = %v", err)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(fixedStats{})

	m.IngestRejected()
	m.IngestRejected()
	m.ReportRendered()

	if got := testutil.ToFloat64(m.rejected); got != 2 {
		t.Errorf("rejected = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reports); got != 1 {
		t.Errorf("reports = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(fixedStats{Dropped: 7})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "sensorboard_broadcast_dropped_total 7") {
		t.Errorf("body missing dropped counter, got:\n%s", body)
	}
}
