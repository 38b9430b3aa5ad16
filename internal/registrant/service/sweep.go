package service

import (
	"context"
	"slices"

	"enroll/internal/activitylog"
	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
	"enroll/internal/registrant/store"
	"enroll/pkg/requestcontext"
)

// ReconcileAll recomputes aggregates for every registrant and writes the ones
// that drifted in a single batch. Running it twice without an intervening
// mutation writes nothing the second time.
func (s *Service) ReconcileAll(ctx context.Context) (*models.ReconcileStats, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		s.observeReconcile("error", 0)
		return nil, translate(err, "failed to list registrants")
	}
	missing := s.missingFields(ctx)

	stats := &models.ReconcileStats{Total: len(list)}
	var patches []models.Patch
	for _, r := range list {
		agg, ok := ledger.Reconcile(r.Plan, r.Ledger)
		if !ok {
			stats.Skipped++
			s.logger.DebugContext(ctx, "no installments defined, skipping", "registrant_id", r.ID)
			continue
		}
		if agg.CountPaid > 0 {
			stats.WithPayment++
		} else {
			stats.WithoutPayment++
		}
		next := r.Clone()
		next.Aggregates = agg
		changes := models.Diff(r, next, models.AggregateFields())
		for f := range changes {
			if missing[f] {
				delete(changes, f)
			}
		}
		if len(changes) == 0 {
			continue
		}
		stats.FieldsUpdated += len(changes)
		patches = append(patches, models.Patch{ID: r.ID, Values: changes})
	}

	if err := s.store.UpsertMany(ctx, patches); err != nil {
		s.observeReconcile("error", 0)
		return nil, translate(err, "failed to write reconciled aggregates")
	}

	s.observeReconcile("ok", stats.FieldsUpdated)
	s.logAudit(ctx, "reconcile_completed",
		"total", stats.Total,
		"with_payment", stats.WithPayment,
		"without_payment", stats.WithoutPayment,
		"skipped", stats.Skipped,
		"fields_updated", stats.FieldsUpdated,
	)
	if stats.FieldsUpdated > 0 {
		s.record(ctx, activitylog.KindReconcile, activitylog.LevelInfo, "payment status recalculated",
			"total", stats.Total,
			"fields_updated", stats.FieldsUpdated,
		)
	}
	return stats, nil
}

// BackfillDueDates fills empty due dates of used slots from the registrant's
// due day, anchored on the registration date, in a single batch.
func (s *Service) BackfillDueDates(ctx context.Context) (*models.BackfillResult, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, translate(err, "failed to list registrants")
	}
	missing := s.missingFields(ctx)
	now := requestcontext.Now(ctx)

	res := &models.BackfillResult{}
	var patches []models.Patch
	for _, r := range list {
		n := r.Plan.Installments
		if n < 1 || n > ledger.MaxSlots {
			continue
		}
		dueDay := r.Plan.DueDay
		if dueDay < 1 || dueDay > 31 {
			dueDay = s.defaultDueDay
		}
		reference := r.CreatedAt
		if reference.IsZero() {
			reference = now
		}
		sched, err := ledger.GenerateSchedule(r.Plan.Total, n, dueDay, reference)
		if err != nil {
			continue
		}

		vals := models.Values{}
		for i, inst := range sched.Populated() {
			slot := i + 1
			f := models.SlotDueDate(slot)
			if missing[f] || !r.Ledger.Slot(slot).DueDate.IsZero() {
				continue
			}
			vals[f] = inst.DueDate
			res.Filled = append(res.Filled, models.MissingDueDate{
				RegistrantID: r.ID,
				FullName:     r.FullName,
				Slot:         slot,
				DueDate:      ledger.FormatDate(inst.DueDate),
			})
		}
		if len(vals) == 0 {
			continue
		}
		res.Registrants++
		res.FieldsUpdated += len(vals)
		patches = append(patches, models.Patch{ID: r.ID, Values: vals})
	}

	if err := s.store.UpsertMany(ctx, patches); err != nil {
		return nil, translate(err, "failed to write due dates")
	}
	s.logAudit(ctx, "due_dates_backfilled",
		"registrants", res.Registrants,
		"fields_updated", res.FieldsUpdated,
	)
	return res, nil
}

// AuditDueDates reports used slots without a due date and ledger columns the
// store lacks. It writes nothing.
func (s *Service) AuditDueDates(ctx context.Context) (*models.AuditReport, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, translate(err, "failed to list registrants")
	}
	report := &models.AuditReport{Checked: len(list), GeneratedAt: requestcontext.Now(ctx)}

	missing := s.missingFields(ctx)
	for f := range missing {
		report.MissingColumns = append(report.MissingColumns, f.String())
	}
	slices.Sort(report.MissingColumns)

	report.Missing = []models.MissingDueDate{}
	for _, r := range list {
		for slot := 1; slot <= min(r.Plan.Installments, ledger.MaxSlots); slot++ {
			if r.Ledger.Slot(slot).DueDate.IsZero() {
				report.Missing = append(report.Missing, models.MissingDueDate{
					RegistrantID: r.ID,
					FullName:     r.FullName,
					Slot:         slot,
				})
			}
		}
	}
	return report, nil
}

// missingFields asks the store which fields it cannot hold. A failure is
// logged and treated as "none missing"; the store skips them on write anyway.
func (s *Service) missingFields(ctx context.Context) map[models.Field]bool {
	reporter, ok := s.store.(store.ColumnReporter)
	if !ok {
		return nil
	}
	fields, err := reporter.MissingColumns(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read store columns", "error", err)
		return nil
	}
	out := make(map[models.Field]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}

func (s *Service) observeReconcile(outcome string, fields int) {
	if s.metrics != nil {
		s.metrics.ObserveReconcile(outcome, fields)
	}
}
