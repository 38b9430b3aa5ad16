package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/pkg/requestcontext"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), time.Second)
	err := s.Add("reconcile", "every tuesday", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.NoError(t, s.Add("reconcile", "@hourly", func(context.Context) error { return nil }))
}

func TestWrappedJobGetsRequestScope(t *testing.T) {
	var logs bytes.Buffer
	s := New(slog.New(slog.NewTextHandler(&logs, nil)), time.Second)

	var gotID string
	var gotNow time.Time
	s.wrap("reconcile", func(ctx context.Context) error {
		gotID = requestcontext.RequestID(ctx)
		gotNow = requestcontext.Now(ctx)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})()

	assert.True(t, strings.HasPrefix(gotID, "job-"))
	assert.WithinDuration(t, time.Now(), gotNow, time.Second)
	assert.Contains(t, logs.String(), "scheduled job completed")

	s.wrap("reconcile", func(context.Context) error { return errors.New("sheet unavailable") })()
	assert.Contains(t, logs.String(), "sheet unavailable")
}

func TestRunStopsWithContext(t *testing.T) {
	s := New(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), time.Second)
	require.NoError(t, s.Add("noop", "@every 1h", func(context.Context) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
