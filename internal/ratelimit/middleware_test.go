package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("redis down")
}

func serve(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/registrations/lookup", nil)
	if ip != "" {
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "", ""))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	logger := slog.New(slog.DiscardHandler)

	t.Run("rejects after the limit", func(t *testing.T) {
		h := Middleware(NewMemory(), Limit{Requests: 2, Window: time.Minute}, logger)(ok)

		rec := serve(h, "203.0.113.7")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, http.StatusOK, serve(h, "203.0.113.7").Code)

		rec = serve(h, "203.0.113.7")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), `"error":"rate_limit_exceeded"`)

		assert.Equal(t, http.StatusOK, serve(h, "198.51.100.1").Code)
	})

	t.Run("store failure lets requests through", func(t *testing.T) {
		h := Middleware(failingStore{}, Limit{Requests: 1, Window: time.Minute}, logger)(ok)
		assert.Equal(t, http.StatusOK, serve(h, "203.0.113.7").Code)
		assert.Equal(t, http.StatusOK, serve(h, "203.0.113.7").Code)
	})

	t.Run("disabled without a limit", func(t *testing.T) {
		h := Middleware(NewMemory(), Limit{}, logger)(ok)
		rec := serve(h, "203.0.113.7")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("requests without a client ip pass", func(t *testing.T) {
		h := Middleware(NewMemory(), Limit{Requests: 1, Window: time.Minute}, logger)(ok)
		assert.Equal(t, http.StatusOK, serve(h, "").Code)
		assert.Equal(t, http.StatusOK, serve(h, "").Code)
	})
}
