package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"enroll/pkg/platform/httputil"
	"enroll/pkg/requestcontext"
)

// Limit is the number of requests a client may make per window.
type Limit struct {
	Requests int
	Window   time.Duration
}

type exceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// Middleware limits requests per client IP, as captured by the client metadata
// middleware. Store failures let the request through.
func Middleware(store Store, limit Limit, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || limit.Requests <= 0 || limit.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := store.Allow(ctx, "ip:"+ip, limit.Requests, limit.Window)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "Too many requests. Please try again later.",
					RetryAfter:       result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
