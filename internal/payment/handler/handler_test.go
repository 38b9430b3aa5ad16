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

	"enroll/internal/payment/handler/mocks"
	"enroll/internal/payment/models"
	"enroll/internal/platform/middleware"
	dErrors "enroll/pkg/domain-errors"
)

type PaymentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *middleware.AdminTokens
	router  chi.Router
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerSuite))
}

func (s *PaymentHandlerSuite) SetupTest() {
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

func (s *PaymentHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PaymentHandlerSuite) post(path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *PaymentHandlerSuite) TestCreatePix() {
	s.Run("success", func() {
		s.service.EXPECT().CreatePix(gomock.Any(), &models.PixRequest{Email: "ana@example.com", Installments: 3}).
			Return(&models.PixResponse{OrderID: "ORDE_1", QRCodeText: "0002", Amount: 150, Installment: 1}, nil)

		rec := s.post("/payments/pix", []byte(`{"email":" Ana@Example.com","installments":3}`), nil)
		s.Equal(http.StatusOK, rec.Code)
		var resp models.PixResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("ORDE_1", resp.OrderID)
	})

	s.Run("missing email", func() {
		rec := s.post("/payments/pix", []byte(`{"installments":3}`), nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("gateway rejection keeps upstream status", func() {
		s.service.EXPECT().CreatePix(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUpstreamGateway, "payment gateway rejected create order").
				WithUpstream(http.StatusUnprocessableEntity, "PIX key not found"))

		rec := s.post("/payments/pix", []byte(`{"email":"ana@example.com","installments":1}`), nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), `"upstream_description":"PIX key not found"`)
	})

	s.Run("timeout is distinct", func() {
		s.service.EXPECT().CreatePix(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUpstreamTimeout, "payment gateway timed out"))
		rec := s.post("/payments/pix", []byte(`{"email":"ana@example.com","installments":1}`), nil)
		s.Equal(http.StatusGatewayTimeout, rec.Code)
	})
}

func (s *PaymentHandlerSuite) TestCreateCard() {
	s.service.EXPECT().CreateCard(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req *models.CardRequest) (*models.CardResponse, error) {
			s.Equal(1, req.CardInstallments)
			s.Equal("Ana Souza", req.HolderName)
			return &models.CardResponse{OrderID: "ORDE_2", ChargeID: "CHAR_2", Status: "PAID", Approved: true}, nil
		})

	body := `{"registrant_id":"r1","full_name":"Ana Souza","email":"ana@example.com","tax_id":"12345678909",
		"phone":"11987654321","total_amount":450,"encrypted_card":"enc"}`
	rec := s.post("/payments/card", []byte(body), nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"approved":true`)
}

func (s *PaymentHandlerSuite) TestPublicKey() {
	s.service.EXPECT().PublicKey(gomock.Any()).
		Return(&models.PublicKeyResponse{PublicKey: "PUB", Environment: "sandbox"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/payments/public-key", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"public_key":"PUB","environment":"sandbox"}`, rec.Body.String())

	s.service.EXPECT().PublicKey(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConfiguration, "configuration incomplete: PAGBANK_PUBLIC_KEY is not set"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/public-key", nil))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Body.String(), "configuration_incomplete")
}

func (s *PaymentHandlerSuite) TestRotatePublicKeyRequiresAdmin() {
	rec := s.post("/admin/payments/public-key", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	token, err := s.tokens.Issue("ops", time.Now(), time.Minute)
	s.Require().NoError(err)
	s.service.EXPECT().RotatePublicKey(gomock.Any()).
		Return(&models.RotatedKeyResponse{PublicKey: "NEW", Environment: "sandbox"}, nil)
	rec = s.post("/admin/payments/public-key", nil, http.Header{"Authorization": {"Bearer " + token}})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *PaymentHandlerSuite) TestWebhookAlwaysAnswers200() {
	body := []byte(`{"id":"ORDE_1","reference_id":"r1.1","charges":[]}`)

	s.Run("acknowledged", func() {
		s.service.EXPECT().HandleNotification(gomock.Any(), body, "sig").
			Return(models.Acknowledged("ORDE_1", "r1.1", models.ActionInstallmentPaid))
		rec := s.post("/webhooks/pagbank", body, http.Header{"X-Authenticity-Token": {"sig"}})
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"received":true,"order_id":"ORDE_1","reference_id":"r1.1","outcome":"installment_paid"}`, rec.Body.String())
	})

	s.Run("internal error is still 200", func() {
		s.service.EXPECT().HandleNotification(gomock.Any(), body, "").
			Return(models.AcknowledgedWithInternalError("ORDE_1", "r1.1", "registrant not found for email:x@y.z"))
		rec := s.post("/webhooks/pagbank", body, nil)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"outcome":"acknowledged_with_internal_error"`)
		s.NotContains(rec.Body.String(), "x@y.z")
	})
}
