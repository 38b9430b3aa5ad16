package activitylog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/pkg/requestcontext"
)

func TestRecorder_SyncModeBuildsEntry(t *testing.T) {
	sink := &MemorySink{}
	rec := NewRecorder(sink)
	defer rec.Close()

	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), now)
	rec.Info(ctx, KindRegistration, "registration created", "registrant_id", "r1", "installments", 3)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, KindRegistration, e.Kind)
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, map[string]any{"registrant_id": "r1", "installments": 3}, e.Data)
}

func TestRecorder_AsyncDrainsOnClose(t *testing.T) {
	sink := &MemorySink{}
	rec := NewRecorder(sink, WithAsyncBuffer(100))

	for range 10 {
		rec.Warn(context.Background(), KindWebhook, "registrant not found")
	}
	rec.Close()

	assert.Len(t, sink.Entries(KindWebhook), 10, "all entries should be drained on close")

	rec.Error(context.Background(), KindWebhook, "after close")
	assert.Len(t, sink.Entries(), 11, "entries after close are written inline")
}

func TestRecorder_BufferFullDropsEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := &MemorySink{}
	rec := NewRecorder(sink, WithAsyncBuffer(1), WithLogger(logger))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Info(context.Background(), KindPayment, "payment created")
		}()
	}
	wg.Wait()
	rec.Close()

	assert.LessOrEqual(t, len(sink.Entries()), 50)
	assert.NotEmpty(t, sink.Entries())
}

func TestRecorder_SinkErrorIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewRecorder(&MemorySink{Err: errors.New("quota exceeded")}, WithLogger(logger))

	assert.NotPanics(t, func() {
		rec.Info(context.Background(), KindPayment, "payment created")
	})
	assert.Contains(t, buf.String(), "activity log write failed")
	assert.Contains(t, buf.String(), "quota exceeded")
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Info(context.Background(), KindPayment, "ignored")
		rec.Close()
	})
}
