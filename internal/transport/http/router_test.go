package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"enroll/internal/platform/middleware"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/testutil"
)

type stubRoutes struct{}

func (stubRoutes) Register(r chi.Router) {
	r.Post("/things", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusCreated, map[string]string{"ok": "true"})
	})
	r.Post("/webhooks/stub", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (stubRoutes) RegisterAdmin(r chi.Router) {
	r.Post("/admin/things", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"ok": "true"})
	})
}

type RouterSuite struct {
	suite.Suite
	tokens *middleware.AdminTokens
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.tokens = middleware.NewAdminTokens("router-test-key", "enroll")
}

func (s *RouterSuite) router(health map[string]HealthCheck) http.Handler {
	return NewRouter(Options{
		AdminTokens:    s.tokens,
		CORSOrigins:    []string{"https://inscricoes.example.com"},
		MetricsHandler: http.NotFoundHandler(),
		Health:         health,
	}, stubRoutes{})
}

func (s *RouterSuite) TestHealth() {
	rec := testutil.DoRequest(s.router(nil), httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	rec = testutil.DoRequest(s.router(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}), httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"status":"degraded","checks":{"redis":"connection refused"}}`, rec.Body.String())
}

func (s *RouterSuite) TestPublicRoutesRequireJSON() {
	h := s.router(nil)
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(h, req), http.StatusBadRequest, "bad_request")

	rec := testutil.DoRequest(h, testutil.NewJSONRequest(s.T(), http.MethodPost, "/things", `{}`))
	s.Equal(http.StatusCreated, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestWebhooksAcceptAnyContentType() {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stub", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.DoRequest(s.router(nil), req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdminRoutes() {
	h := s.router(nil)
	rec := testutil.DoRequest(h, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/things", `{}`))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")

	token, err := s.tokens.Issue("ops@example.com", time.Now(), time.Hour)
	s.Require().NoError(err)
	rec = testutil.DoRequest(h, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/things", `{}`), token))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdminRoutesClosedWithoutSigningKey() {
	h := NewRouter(Options{MetricsHandler: http.NotFoundHandler()}, stubRoutes{})
	token, err := s.tokens.Issue("ops@example.com", time.Now(), time.Hour)
	s.Require().NoError(err)
	rec := testutil.DoRequest(h, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/things", `{}`), token))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/things", nil)
	req.Header.Set("Origin", "https://inscricoes.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := testutil.DoRequest(s.router(nil), req)
	s.Equal("https://inscricoes.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *RouterSuite) TestRateLimitSkipsWebhooks() {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := NewRouter(Options{MetricsHandler: http.NotFoundHandler(), RateLimit: deny}, stubRoutes{})

	rec := testutil.DoRequest(h, testutil.NewJSONRequest(s.T(), http.MethodPost, "/things", `{}`))
	s.Equal(http.StatusTooManyRequests, rec.Code)

	rec = testutil.DoRequest(h, testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/stub", `{}`))
	s.Equal(http.StatusOK, rec.Code)
}
