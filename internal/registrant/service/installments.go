package service

import (
	"context"
	"time"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/requestcontext"
)

// MarkInstallmentPaid flags one slot as paid on paidDate. A slot that is
// already paid keeps its original date and the call still succeeds.
func (s *Service) MarkInstallmentPaid(ctx context.Context, ref models.Ref, slot int, paidDate time.Time, source string) (*models.MarkOutcome, error) {
	if err := ledger.ValidateSlot(slot); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ref, source, func(r *models.Registrant) ([]int, error) {
		if slot > r.Plan.Installments {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"installment %d is outside the registrant's %d-installment plan", slot, r.Plan.Installments)
		}
		changed, err := r.Ledger.MarkInstallmentPaid(slot, paidDate)
		if err != nil || !changed {
			return nil, err
		}
		return []int{slot}, nil
	})
}

// MarkAllPaid flags slots 1..N of the registrant's plan as paid on paidDate.
func (s *Service) MarkAllPaid(ctx context.Context, ref models.Ref, paidDate time.Time, source string) (*models.MarkOutcome, error) {
	return s.mutate(ctx, ref, source, func(r *models.Registrant) ([]int, error) {
		if r.Plan.Installments <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "registrant has no installments defined")
		}
		return r.Ledger.MarkAllPaid(r.Plan.Installments, paidDate)
	})
}

// ManualOverride is the admin path: mark one installment of the registrant with
// the given tax id as paid today.
func (s *Service) ManualOverride(ctx context.Context, req *models.MarkPaidRequest) (*models.MarkPaidResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := s.LookupByTaxID(ctx, req.TaxID)
	if err != nil {
		return nil, err
	}

	today := ledger.DateOf(requestcontext.Now(ctx))
	out, err := s.MarkInstallmentPaid(ctx, models.Ref{ID: r.ID}, req.Slot, today, SourceAdmin)
	if err != nil {
		return nil, err
	}

	already := len(out.NewlyPaid) == 0
	s.record(ctx, activitylog.KindAdminOverride, activitylog.LevelInfo, "installment marked paid by admin",
		"registrant_id", r.ID,
		"installment", req.Slot,
		"already_paid", already,
		"admin", requestcontext.AdminSubject(ctx),
	)
	return &models.MarkPaidResponse{
		RegistrantID: out.Registrant.ID,
		FullName:     out.Registrant.FullName,
		TaxID:        out.Registrant.TaxID,
		Slot:         req.Slot,
		PaidDate:     ledger.FormatDate(out.Registrant.Ledger.Slot(req.Slot).PaidDate),
		AlreadyPaid:  already,
		Status:       out.Aggregates.Status,
		PaidCount:    out.Aggregates.CountPaid,
	}, nil
}

// mutate resolves ref, then under the registrant's lock reloads it, applies fn
// and writes back only the fields that changed, aggregates included.
func (s *Service) mutate(ctx context.Context, ref models.Ref, source string, fn func(*models.Registrant) ([]int, error)) (*models.MarkOutcome, error) {
	target, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	var out models.MarkOutcome
	err = s.locker.WithLock(ctx, lockKey(target.ID), func(ctx context.Context) error {
		prev, err := s.store.FindByID(ctx, target.ID)
		if err != nil {
			return translate(err, "failed to load registrant")
		}
		next := prev.Clone()
		newly, err := fn(next)
		if err != nil {
			return err
		}
		if agg, ok := ledger.Reconcile(next.Plan, next.Ledger); ok {
			next.Aggregates = agg
		}

		changes := models.Diff(prev, next, models.AllFields())
		if len(changes) > 0 {
			if err := s.store.UpsertFields(ctx, next.ID, changes); err != nil {
				return translate(err, "failed to update installments")
			}
		}
		out = models.MarkOutcome{Registrant: next, NewlyPaid: newly, Aggregates: next.Aggregates}
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update installments")
	}

	if len(out.NewlyPaid) > 0 {
		s.logAudit(ctx, "installments_marked_paid",
			"registrant_id", out.Registrant.ID,
			"installments", out.NewlyPaid,
			"source", source,
			"status", string(out.Aggregates.Status),
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementInstallmentsMarked(source, len(out.NewlyPaid))
	}
	now := requestcontext.Now(ctx)
	amount := out.Registrant.Plan.InstallmentAmount()
	for _, slot := range out.NewlyPaid {
		e := events.New(events.TypeInstallmentPaid, out.Registrant.ID, now)
		e.Email = out.Registrant.Email
		e.Slot = slot
		e.AmountCents = int64(amount)
		e.Source = source
		s.publish(ctx, e)
	}
	return &out, nil
}
