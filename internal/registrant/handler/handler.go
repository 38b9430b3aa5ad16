package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"enroll/internal/platform/middleware"
	"enroll/internal/registrant/models"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
)

// Service is the registrant operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Registrant, error)
	LookupByTaxID(ctx context.Context, taxID string) (*models.Registrant, error)
	ManualOverride(ctx context.Context, req *models.MarkPaidRequest) (*models.MarkPaidResponse, error)
	ReconcileAll(ctx context.Context) (*models.ReconcileStats, error)
	BackfillDueDates(ctx context.Context) (*models.BackfillResult, error)
	AuditDueDates(ctx context.Context) (*models.AuditReport, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.handleCreate)
	r.Post("/registrations/lookup", h.handleLookup)
	r.Get("/registrations/lookup", h.handleLookup)
}

// RegisterAdmin mounts the operator routes. The caller guards r with
// middleware.RequireAdmin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/installments/mark-paid", h.handleMarkPaid)
	r.Post("/admin/reconcile", h.handleReconcile)
	r.Post("/admin/due-dates/backfill", h.handleBackfill)
	r.Get("/admin/due-dates/audit", h.handleAudit)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[models.CreateRequest](r)
	if err != nil {
		h.fail(ctx, w, err, "invalid registration request")
		return
	}
	reg, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "failed to create registration")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewCreateResponse(reg))
}

// handleLookup accepts the tax id as a JSON body or a tax_id query parameter.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req *models.LookupRequest
	if r.Method == http.MethodGet {
		req = &models.LookupRequest{TaxID: r.URL.Query().Get("tax_id")}
		req.Normalize()
		if err := req.Validate(); err != nil {
			h.fail(ctx, w, err, "invalid lookup request")
			return
		}
	} else {
		var err error
		req, err = httputil.DecodeAndPrepare[models.LookupRequest](r)
		if err != nil {
			h.fail(ctx, w, err, "invalid lookup request")
			return
		}
	}

	reg, err := h.service.LookupByTaxID(ctx, req.TaxID)
	if err != nil {
		h.fail(ctx, w, err, "registrant lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRegistrantResponse(reg))
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[models.MarkPaidRequest](r)
	if err != nil {
		h.fail(ctx, w, err, "invalid mark-paid request")
		return
	}
	resp, err := h.service.ManualOverride(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "manual override failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ReconcileAll(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err, "reconciliation failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleBackfill(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.BackfillDueDates(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err, "due date backfill failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.AuditDueDates(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err, "due date audit failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// fail logs client errors at warn and everything else at error, then writes
// the mapped response.
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
