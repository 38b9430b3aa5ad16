package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"enroll/internal/ledger"
	"enroll/internal/platform/middleware"
	"enroll/internal/registrant/handler/mocks"
	"enroll/internal/registrant/models"
	dErrors "enroll/pkg/domain-errors"
)

type RegistrantHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *middleware.AdminTokens
	router  chi.Router
}

func TestRegistrantHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrantHandlerSuite))
}

func (s *RegistrantHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.tokens = middleware.NewAdminTokens("test-signing-key", "enroll")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.tokens, logger))
		h.RegisterAdmin(r)
	})
	s.router = r
}

func (s *RegistrantHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RegistrantHandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RegistrantHandlerSuite) adminToken() string {
	token, err := s.tokens.Issue("ops@example.com", time.Now(), time.Hour)
	s.Require().NoError(err)
	return token
}

func sampleRegistrant() *models.Registrant {
	created := ledger.Date(2025, time.January, 5)
	sched, _ := ledger.GenerateSchedule(45000, 3, 10, created)
	return models.New("r1", created, models.Identity{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
		TaxID:    "12345678909",
	}, 45000, 10, sched)
}

func validCreate() map[string]any {
	return map[string]any{
		"full_name":          "Ana Souza",
		"email":              "ana@example.com",
		"phone":              "(11) 91234-5678",
		"city_country":       "São Paulo, Brasil",
		"adult":              true,
		"consent_terms":      true,
		"consent_withdrawal": true,
		"installments":       3,
	}
}

func (s *RegistrantHandlerSuite) TestCreate() {
	s.Run("created", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateRequest) (*models.Registrant, error) {
				s.Equal(3, req.Installments)
				s.Equal("ana@example.com", req.Email)
				return sampleRegistrant(), nil
			})

		rec := s.do(http.MethodPost, "/registrations", validCreate(), "")
		s.Equal(http.StatusCreated, rec.Code)

		var resp models.CreateResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("r1", resp.ID)
		s.Equal(3, resp.Installments)
		s.InDelta(150.0, resp.InstallmentAmount, 0.001)
	})

	s.Run("malformed body never reaches the service", func() {
		req := httptest.NewRequest(http.MethodPost, "/registrations", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "bad_request")
	})

	s.Run("missing consent is a validation error", func() {
		body := validCreate()
		body["consent_terms"] = false
		rec := s.do(http.MethodPost, "/registrations", body, "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "validation_error")
	})

	s.Run("storage failure is a 500 without description", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeStorage, "sheet unavailable"))
		rec := s.do(http.MethodPost, "/registrations", validCreate(), "")
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Contains(rec.Body.String(), "storage_error")
	})
}

func (s *RegistrantHandlerSuite) TestLookup() {
	s.Run("post body", func() {
		s.service.EXPECT().LookupByTaxID(gomock.Any(), "12345678909").Return(sampleRegistrant(), nil)
		rec := s.do(http.MethodPost, "/registrations/lookup", map[string]string{"tax_id": "123.456.789-09"}, "")
		s.Equal(http.StatusOK, rec.Code)

		var resp models.RegistrantResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("r1", resp.ID)
		s.Len(resp.Schedule, 3)
		s.Equal(ledger.StatusPending, resp.Status)
	})

	s.Run("query parameter", func() {
		s.service.EXPECT().LookupByTaxID(gomock.Any(), "12345678909").Return(sampleRegistrant(), nil)
		rec := s.do(http.MethodGet, "/registrations/lookup?tax_id=12345678909", nil, "")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("unknown tax id", func() {
		s.service.EXPECT().LookupByTaxID(gomock.Any(), "98765432100").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "registrant not found"))
		rec := s.do(http.MethodGet, "/registrations/lookup?tax_id=98765432100", nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("empty tax id", func() {
		rec := s.do(http.MethodGet, "/registrations/lookup", nil, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RegistrantHandlerSuite) TestAdminRoutesRequireToken() {
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/admin/installments/mark-paid"},
		{http.MethodPost, "/admin/reconcile"},
		{http.MethodPost, "/admin/due-dates/backfill"},
		{http.MethodGet, "/admin/due-dates/audit"},
	} {
		s.Run(tc.path, func() {
			rec := s.do(tc.method, tc.path, nil, "")
			s.Equal(http.StatusUnauthorized, rec.Code)

			rec = s.do(tc.method, tc.path, nil, "not-a-token")
			s.Equal(http.StatusUnauthorized, rec.Code)
		})
	}
}

func (s *RegistrantHandlerSuite) TestManualOverride() {
	s.service.EXPECT().ManualOverride(gomock.Any(), &models.MarkPaidRequest{TaxID: "12345678909", Slot: 2}).
		Return(&models.MarkPaidResponse{
			RegistrantID: "r1",
			TaxID:        "12345678909",
			Slot:         2,
			PaidDate:     "05/01/2025",
			Status:       ledger.StatusPartial,
			PaidCount:    1,
		}, nil)

	rec := s.do(http.MethodPost, "/admin/installments/mark-paid",
		map[string]any{"tax_id": "123.456.789-09", "installment": 2}, s.adminToken())
	s.Equal(http.StatusOK, rec.Code)

	var resp models.MarkPaidResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal(ledger.StatusPartial, resp.Status)
	s.False(resp.AlreadyPaid)

	s.Run("slot out of range", func() {
		rec := s.do(http.MethodPost, "/admin/installments/mark-paid",
			map[string]any{"tax_id": "12345678909", "installment": 12}, s.adminToken())
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RegistrantHandlerSuite) TestMaintenanceRoutes() {
	token := s.adminToken()

	s.service.EXPECT().ReconcileAll(gomock.Any()).
		Return(&models.ReconcileStats{Total: 4, WithPayment: 1, WithoutPayment: 2, Skipped: 1, FieldsUpdated: 3}, nil)
	rec := s.do(http.MethodPost, "/admin/reconcile", nil, token)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"total":4,"with_payment":1,"without_payment":2,"skipped":1,"fields_updated":3}`, rec.Body.String())

	s.service.EXPECT().BackfillDueDates(gomock.Any()).
		Return(&models.BackfillResult{Registrants: 1, FieldsUpdated: 2, Filled: []models.MissingDueDate{}}, nil)
	rec = s.do(http.MethodPost, "/admin/due-dates/backfill", nil, token)
	s.Equal(http.StatusOK, rec.Code)

	s.service.EXPECT().AuditDueDates(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeStorage, "sheet unavailable"))
	rec = s.do(http.MethodGet, "/admin/due-dates/audit", nil, token)
	s.Equal(http.StatusInternalServerError, rec.Code)
}
