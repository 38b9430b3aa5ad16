package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
	"enroll/pkg/contact"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/email"
	"enroll/pkg/platform/sentinel"
	"enroll/pkg/requestcontext"
)

// Create validates a registration, generates its schedule from the request time
// and stores it with every slot unpaid.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.Registrant, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dueDay := req.DueDay
	if dueDay == 0 {
		dueDay = s.defaultDueDay
	}
	now := requestcontext.Now(ctx)
	sched, err := ledger.GenerateSchedule(s.price, req.Installments, dueDay, now)
	if err != nil {
		return nil, err
	}

	r := models.New(uuid.NewString(), now, req.Identity(), s.price, dueDay, sched)
	if err := s.store.AppendNew(ctx, r); err != nil {
		return nil, translate(err, "failed to store registration")
	}

	s.logAudit(ctx, "registrant_created",
		"registrant_id", r.ID,
		"installments", r.Plan.Installments,
		"due_day", dueDay,
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistrationsCreated()
	}
	s.record(ctx, activitylog.KindRegistration, activitylog.LevelInfo, "registration created",
		"registrant_id", r.ID,
		"email", r.Email,
		"installments", r.Plan.Installments,
		"installment_amount", r.Plan.PerInstallment.String(),
	)

	e := events.New(events.TypeRegistrantCreated, r.ID, now)
	e.Email = r.Email
	e.AmountCents = int64(r.Plan.Total)
	s.publish(ctx, e)
	return r, nil
}

// LookupByTaxID returns the most recently created registrant with taxID.
func (s *Service) LookupByTaxID(ctx context.Context, taxID string) (*models.Registrant, error) {
	normalized, err := contact.NormalizeTaxID(taxID)
	if err != nil {
		return nil, err
	}
	r, err := s.store.FindByTaxID(ctx, normalized)
	if err != nil {
		return nil, translate(err, "failed to look up registrant")
	}
	return r, nil
}

// FindByEmail returns the most recently created registrant with addr.
func (s *Service) FindByEmail(ctx context.Context, addr string) (*models.Registrant, error) {
	r, err := s.store.FindByEmail(ctx, email.Normalize(addr))
	if err != nil {
		return nil, translate(err, "failed to look up registrant")
	}
	return r, nil
}

// Resolve finds a registrant by id, falling back to the most recent row with a
// matching email.
func (s *Service) Resolve(ctx context.Context, ref models.Ref) (*models.Registrant, error) {
	if ref.Empty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
	}
	if ref.ID != "" {
		r, err := s.store.FindByID(ctx, ref.ID)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translate(err, "failed to resolve registrant")
		}
	}
	if ref.Email == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
	}
	return s.FindByEmail(ctx, ref.Email)
}

// RecordTransaction stores the gateway's latest order id on the registrant.
func (s *Service) RecordTransaction(ctx context.Context, ref models.Ref, transactionID string) error {
	r, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	err = s.store.UpsertFields(ctx, r.ID, models.Values{models.FieldLastTransactionID: transactionID})
	return translate(err, "failed to record transaction")
}
