package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"enroll/internal/payment/models"
	"enroll/internal/platform/middleware"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
)

const maxWebhookBytes = 1 << 20

// Service is the payment operations the HTTP layer needs.
type Service interface {
	CreatePix(ctx context.Context, req *models.PixRequest) (*models.PixResponse, error)
	CreateCard(ctx context.Context, req *models.CardRequest) (*models.CardResponse, error)
	PublicKey(ctx context.Context) (*models.PublicKeyResponse, error)
	RotatePublicKey(ctx context.Context) (*models.RotatedKeyResponse, error)
	HandleNotification(ctx context.Context, body []byte, authenticity string) models.Outcome
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/payments/pix", h.handleCreatePix)
	r.Post("/payments/card", h.handleCreateCard)
	r.Get("/payments/public-key", h.handlePublicKey)
	r.Post("/webhooks/pagbank", h.handleWebhook)
}

// RegisterAdmin mounts the operator routes behind the caller's admin guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/payments/public-key", h.handleRotatePublicKey)
}

func (h *Handler) handleCreatePix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[models.PixRequest](r)
	if err != nil {
		h.fail(ctx, w, err, "invalid pix request")
		return
	}
	resp, err := h.service.CreatePix(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "failed to create pix order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[models.CardRequest](r)
	if err != nil {
		h.fail(ctx, w, err, "invalid card request")
		return
	}
	resp, err := h.service.CreateCard(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "failed to create card order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.PublicKey(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err, "public key unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRotatePublicKey(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.RotatePublicKey(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err, "public key rotation failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleWebhook always answers 200; the gateway redelivers anything else.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read webhook body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		out := models.AcknowledgedWithInternalError("", "", "unreadable body")
		httputil.WriteJSON(w, http.StatusOK, out.Response())
		return
	}
	out := h.service.HandleNotification(ctx, body, r.Header.Get(models.AuthenticityHeader))
	httputil.WriteJSON(w, http.StatusOK, out.Response())
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := middleware.GetRequestID(ctx)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
	}
	httputil.WriteError(w, err)
}
