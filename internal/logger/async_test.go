package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingHandler collects slog.Records for test assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	delay   time.Duration // optional per-record processing delay
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestAsyncHandler_BasicWrite(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 100, 1)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	if err := ah.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	ah.Close()

	if got := inner.count(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestAsyncHandler_ConcurrentWrites(t *testing.T) {
	const goroutines = 100
	const perGoroutine = 100
	total := goroutines * perGoroutine

	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10000, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				rec := slog.NewRecord(time.Now(), slog.LevelInfo, "concurrent", 0)
				_ = ah.Handle(context.Background(), rec)
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != total {
		t.Fatalf("expected %d records, got %d", total, got)
	}
}

// attrRecorder records, per handled record, which attr keys the handler
// carried at the time. Derived handlers share the sink.
type attrRecorder struct {
	mu   *sync.Mutex
	sink *[]string
	keys []string
}

func newAttrRecorder() *attrRecorder {
	return &attrRecorder{mu: &sync.Mutex{}, sink: &[]string{}}
}

func (h *attrRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *attrRecorder) Handle(_ context.Context, _ slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.mu.Lock()
	*h.sink = append(*h.sink, strings.Join(h.keys, ","))
	h.mu.Unlock()
	return nil
}

func (h *attrRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	keys := append([]string(nil), h.keys...)
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	return &attrRecorder{mu: h.mu, sink: h.sink, keys: keys}
}

func (h *attrRecorder) WithGroup(string) slog.Handler { return h }

func TestAsyncHandler_DerivedHandlerKeepsAttrs(t *testing.T) {
	inner := newAttrRecorder()
	ah := NewAsyncHandler(inner, 10, 1)

	derived := ah.WithAttrs([]slog.Attr{slog.String("request_id", "r1")})
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "derived", 0)
	if err := derived.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	ah.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if len(*inner.sink) != 1 {
		t.Fatalf("expected 1 record, got %d", len(*inner.sink))
	}
	if (*inner.sink)[0] != "request_id" {
		t.Fatalf("record drained without derived attrs, got %q", (*inner.sink)[0])
	}
}

func TestAsyncHandler_CloseFlushesRemaining(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 1000, 2)

	const total = 200
	for range total {
		rec := slog.NewRecord(time.Now(), slog.LevelInfo, "flush-test", 0)
		_ = ah.Handle(context.Background(), rec)
	}

	ah.Close()

	if got := inner.count(); got != total {
		t.Fatalf("expected %d records after close, got %d", total, got)
	}
}
