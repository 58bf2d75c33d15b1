package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops the async logging pipeline.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// queuedRecord pairs a record with the handler it was enqueued through,
// so attrs and groups added via WithAttrs/WithGroup survive the queue.
type queuedRecord struct {
	h   slog.Handler
	rec slog.Record
}

// asyncCore is the queue and worker pool shared by an AsyncHandler and
// every handler derived from it.
type asyncCore struct {
	ch      chan queuedRecord
	wg      sync.WaitGroup
	dropped atomic.Int64
}

func (c *asyncCore) drain() {
	defer c.wg.Done()
	for q := range c.ch {
		_ = q.h.Handle(context.Background(), q.rec)
	}
}

// AsyncHandler decouples log emission from the terminal handler behind a
// bounded queue. When the queue is full records are dropped and counted
// rather than blocking the caller.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// NewAsyncHandler wraps inner with a queue of the given capacity drained
// by the given number of workers.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	core := &asyncCore{ch: make(chan queuedRecord, chanSize)}
	for range workers {
		core.wg.Add(1)
		go core.drain()
	}
	return &AsyncHandler{inner: inner, core: core}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.core.ch <- queuedRecord{h: h.inner, rec: rec}:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

// WithAttrs derives a handler that shares the queue. Records written
// through it drain with the derived attrs applied.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

// WithGroup derives a handler that shares the queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount returns how many records were discarded on a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close stops intake and waits until every queued record is handled.
// Close must be called on at most one handler of a derived family.
func (h *AsyncHandler) Close() {
	close(h.core.ch)
	h.core.wg.Wait()
}
