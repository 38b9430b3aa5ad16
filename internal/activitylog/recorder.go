package activitylog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"enroll/pkg/attrs"
	"enroll/pkg/requestcontext"
)

// Recorder hands entries to a sink, synchronously by default or through a
// bounded buffer drained by one goroutine.
type Recorder struct {
	sink   Sink
	logger *slog.Logger

	buffer  int
	queue   chan queued
	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool
}

type queued struct {
	ctx   context.Context
	entry Entry
}

type Option func(*Recorder)

// WithAsyncBuffer queues up to n entries; entries beyond that are dropped
// with a warning.
func WithAsyncBuffer(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func NewRecorder(sink Sink, opts ...Option) *Recorder {
	r := &Recorder{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.buffer > 0 {
		r.queue = make(chan queued, r.buffer)
		r.wg.Add(1)
		go r.run()
	}
	return r
}

// Info records an informational entry built from a key-value list.
func (r *Recorder) Info(ctx context.Context, kind Kind, msg string, kv ...any) {
	r.Record(ctx, kind, LevelInfo, msg, kv...)
}

func (r *Recorder) Warn(ctx context.Context, kind Kind, msg string, kv ...any) {
	r.Record(ctx, kind, LevelWarn, msg, kv...)
}

func (r *Recorder) Error(ctx context.Context, kind Kind, msg string, kv ...any) {
	r.Record(ctx, kind, LevelError, msg, kv...)
}

func (r *Recorder) Record(ctx context.Context, kind Kind, level Level, msg string, kv ...any) {
	r.Emit(ctx, Entry{
		Timestamp: requestcontext.Now(ctx),
		Kind:      kind,
		Level:     level,
		Message:   msg,
		Data:      attrs.ToMap(kv),
		RequestID: requestcontext.RequestID(ctx),
	})
}

// Emit writes e. Sink errors are logged and swallowed.
func (r *Recorder) Emit(ctx context.Context, e Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if r.queue == nil {
		r.write(ctx, e)
		return
	}

	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		r.write(ctx, e)
		return
	}
	select {
	case r.queue <- queued{ctx: context.WithoutCancel(ctx), entry: e}:
	default:
		r.logger.WarnContext(ctx, "activity log buffer full, entry dropped",
			"kind", string(e.Kind),
			"message", e.Message,
		)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for q := range r.queue {
		r.write(q.ctx, q.entry)
	}
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	if err := r.sink.Write(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "activity log write failed",
			"request_id", e.RequestID,
			"kind", string(e.Kind),
			"error", err,
		)
	}
}

// Close drains queued entries.
func (r *Recorder) Close() {
	if r == nil || r.queue == nil {
		return
	}
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.closeMu.Unlock()
	r.wg.Wait()
}
