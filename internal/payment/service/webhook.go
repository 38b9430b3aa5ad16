package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"time"

	"enroll/internal/activitylog"
	"enroll/internal/ledger"
	"enroll/internal/payment/gateway"
	"enroll/internal/payment/models"
	rmodels "enroll/internal/registrant/models"
	regservice "enroll/internal/registrant/service"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/requestcontext"
)

// HandleNotification applies a gateway notification to the ledger. It never
// returns an error: every failure becomes an AcknowledgedWithInternalError
// outcome so the caller can still answer 200.
func (s *Service) HandleNotification(ctx context.Context, body []byte, authenticity string) models.Outcome {
	out := s.handleNotification(ctx, body, authenticity)
	s.metrics.IncrementWebhookOutcome(out.Label())

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"order_id", out.OrderID,
		"reference_id", out.ReferenceID,
		"outcome", out.Label(),
	}
	if out.Failed() {
		s.logger.ErrorContext(ctx, "webhook acknowledged with internal error", append(attrs, "details", out.Details)...)
		s.record(ctx, activitylog.KindWebhook, activitylog.LevelError, "webhook internal error",
			"order_id", out.OrderID, "reference_id", out.ReferenceID, "details", out.Details)
	} else {
		s.logger.InfoContext(ctx, "webhook acknowledged", attrs...)
	}
	return out
}

func (s *Service) handleNotification(ctx context.Context, body []byte, authenticity string) models.Outcome {
	if s.cfg.VerifyWebhooks && !s.authentic(body, authenticity) {
		return models.AcknowledgedWithInternalError("", "", "authenticity check failed")
	}

	var order gateway.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return models.AcknowledgedWithInternalError("", "", "unparseable notification: "+err.Error())
	}

	charge, ok := order.PaidCharge()
	if !ok {
		for _, c := range order.Charges {
			if c.Status == gateway.ChargeDeclined || c.Status == gateway.ChargeCanceled {
				s.record(ctx, activitylog.KindWebhook, activitylog.LevelWarn, "payment not completed",
					"order_id", order.ID, "charge_id", c.ID, "status", c.Status)
			}
		}
		return models.Acknowledged(order.ID, order.ReferenceID, models.ActionNoPaidCharge)
	}

	key := charge.ID
	if key == "" {
		key = order.ID
	}
	claimed, err := s.dedupe.Claim(ctx, key)
	if err != nil {
		// the ledger absorbs a duplicate, so a dedupe outage is not fatal
		s.logger.WarnContext(ctx, "webhook dedupe unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		claimed = true
	}
	if !claimed {
		return models.Acknowledged(order.ID, order.ReferenceID, models.ActionDuplicate)
	}

	ref := rmodels.Ref{ID: registrantIDFrom(order.ReferenceID), Email: order.Customer.Email}
	paidDate := paidDateOf(ctx, charge)

	var (
		mark   *rmodels.MarkOutcome
		action string
	)
	if charge.IsCard() {
		action = models.ActionAllPaid
		mark, err = s.registrants.MarkAllPaid(ctx, ref, paidDate, regservice.SourceCard)
	} else {
		action = models.ActionInstallmentPaid
		mark, err = s.registrants.MarkInstallmentPaid(ctx, ref, 1, paidDate, regservice.SourcePix)
	}
	if err != nil {
		if relErr := s.dedupe.Release(ctx, key); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release webhook claim", "error", relErr)
		}
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return models.AcknowledgedWithInternalError(order.ID, order.ReferenceID,
				"registrant not found for "+ref.String())
		}
		return models.AcknowledgedWithInternalError(order.ID, order.ReferenceID, err.Error())
	}

	out := models.Acknowledged(order.ID, order.ReferenceID, action)
	out.NewlyPaid = mark.NewlyPaid
	s.record(ctx, activitylog.KindWebhook, activitylog.LevelInfo, "payment confirmed",
		"order_id", order.ID,
		"charge_id", charge.ID,
		"registrant_id", mark.Registrant.ID,
		"method", charge.PaymentMethod.Type,
		"newly_paid", mark.NewlyPaid,
		"status", string(mark.Aggregates.Status),
	)
	return out
}

func (s *Service) authentic(body []byte, header string) bool {
	if s.cfg.WebhookToken == "" || header == "" {
		return false
	}
	sum := sha256.Sum256([]byte(s.cfg.WebhookToken + "-" + string(body)))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(header)) == 1
}

// paidDateOf uses the charge's paid_at calendar date as the gateway reported
// it, falling back to the request date.
func paidDateOf(ctx context.Context, charge gateway.Charge) time.Time {
	if t, err := time.Parse(time.RFC3339, charge.PaidAt); err == nil {
		return ledger.DateOf(t)
	}
	return ledger.DateOf(requestcontext.Now(ctx))
}
