package core

import (
	"sync"
	"testing"
	"time"
)

// recordingPanicHandler is a mock PanicHandler for testing.
type recordingPanicHandler struct {
	mu    sync.Mutex
	calls []PanicCall
}

type PanicCall struct {
	WorkerIndex int32
	PanicInfo   any
}

func (h *recordingPanicHandler) HandlePanic(workerIndex int32, u Unit, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, PanicCall{WorkerIndex: workerIndex, PanicInfo: panicInfo})
}

func (h *recordingPanicHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func TestDefaultPanicHandler(t *testing.T) {
	handler := &DefaultPanicHandler{}
	j := newJob(nil, func() {}, AnyWorker)
	// Should not panic.
	handler.HandlePanic(0, j, "boom", []byte("stack"))
}

// recordingMetrics is a mock Metrics for testing.
type recordingMetrics struct {
	mu          sync.Mutex
	durations   []time.Duration
	panics      int
	queueDepths map[string]int
	inFlight    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{queueDepths: make(map[string]int)}
}

func (m *recordingMetrics) RecordJobDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, d)
}

func (m *recordingMetrics) RecordJobPanic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics++
}

func (m *recordingMetrics) RecordQueueDepth(queue string, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepths[queue] = depth
}

func (m *recordingMetrics) IncCoroutinesInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *recordingMetrics) DecCoroutinesInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func TestNilMetrics(t *testing.T) {
	metrics := &NilMetrics{}
	metrics.RecordJobDuration(time.Second)
	metrics.RecordJobPanic()
	metrics.RecordQueueDepth("central", 10)
	metrics.IncCoroutinesInFlight()
	metrics.DecCoroutinesInFlight()
}

func TestRecordingMetrics(t *testing.T) {
	metrics := newRecordingMetrics()

	metrics.RecordJobDuration(100 * time.Millisecond)
	metrics.RecordJobDuration(200 * time.Millisecond)
	metrics.RecordJobPanic()
	metrics.RecordQueueDepth("central", 5)
	metrics.IncCoroutinesInFlight()
	metrics.IncCoroutinesInFlight()
	metrics.DecCoroutinesInFlight()

	if len(metrics.durations) != 2 {
		t.Fatalf("expected 2 durations, got %d", len(metrics.durations))
	}
	if metrics.panics != 1 {
		t.Fatalf("expected 1 panic, got %d", metrics.panics)
	}
	if metrics.queueDepths["central"] != 5 {
		t.Fatalf("expected central depth 5, got %d", metrics.queueDepths["central"])
	}
	if metrics.inFlight != 1 {
		t.Fatalf("expected 1 in flight, got %d", metrics.inFlight)
	}
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	if cfg.Logger == nil {
		t.Error("Logger should not be nil")
	}
	if cfg.PanicHandler == nil {
		t.Error("PanicHandler should not be nil")
	}
	if cfg.Metrics == nil {
		t.Error("Metrics should not be nil")
	}
	if _, ok := cfg.PanicHandler.(*DefaultPanicHandler); !ok {
		t.Errorf("PanicHandler should be *DefaultPanicHandler, got %T", cfg.PanicHandler)
	}
	if _, ok := cfg.Metrics.(*NilMetrics); !ok {
		t.Errorf("Metrics should be *NilMetrics, got %T", cfg.Metrics)
	}
}
