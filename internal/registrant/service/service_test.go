package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/ledger"
	"enroll/internal/platform/metrics"
	"enroll/internal/registrant/models"
	"enroll/internal/registrant/store/memory"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/requestcontext"
)

const planPrice = ledger.Cents(45000)

type ServiceSuite struct {
	suite.Suite
	store    *memory.InMemory
	events   *events.Recorder
	activity *activitylog.MemorySink
	metrics  *metrics.Metrics
	logs     *bytes.Buffer
	service  *Service
	now      time.Time
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.setup(memory.New())
}

func (s *ServiceSuite) setup(st *memory.InMemory) {
	s.store = st
	s.events = &events.Recorder{}
	s.activity = &activitylog.MemorySink{}
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	s.service = New(s.store, planPrice,
		WithLogger(slog.New(slog.NewTextHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithPublisher(s.events),
		WithActivityLog(activitylog.NewRecorder(s.activity)),
		WithMetrics(s.metrics),
	)
	s.now = time.Date(2025, time.January, 5, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) createRequest(taxID, addr string, n int) *models.CreateRequest {
	return &models.CreateRequest{
		FullName:          "Ana  Souza",
		Email:             addr,
		Phone:             "(11) 98765-4321",
		TaxID:             taxID,
		CityCountry:       "São Paulo / Brasil",
		Adult:             true,
		ConsentTerms:      true,
		ConsentWithdrawal: true,
		Installments:      n,
	}
}

func (s *ServiceSuite) create(taxID, addr string, n int) *models.Registrant {
	r, err := s.service.Create(s.ctx, s.createRequest(taxID, addr, n))
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) stored(id string) *models.Registrant {
	r, err := s.store.FindByID(context.Background(), id)
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) TestCreate() {
	s.Run("stores schedule from request time with default due day", func() {
		r := s.create("123.456.789-09", "Ana@Example.com ", 3)

		got := s.stored(r.ID)
		s.Equal("Ana Souza", got.FullName)
		s.Equal("ana@example.com", got.Email)
		s.Equal("11987654321", got.Phone)
		s.Equal("12345678909", got.TaxID)
		s.Equal(10, got.Plan.DueDay)
		s.Equal(ledger.Cents(15000), got.Plan.PerInstallment)
		s.Equal(planPrice, got.Plan.Total)
		s.Equal(ledger.Date(2025, time.January, 10), got.Ledger.Slot(1).DueDate)
		s.Equal(ledger.Date(2025, time.February, 10), got.Ledger.Slot(2).DueDate)
		s.Equal(ledger.Date(2025, time.March, 10), got.Ledger.Slot(3).DueDate)
		s.True(got.Ledger.Slot(4).DueDate.IsZero())
		s.Equal(ledger.StatusPending, got.Aggregates.Status)
		s.Equal(planPrice, got.Aggregates.Balance)

		created := s.events.Events(events.TypeRegistrantCreated)
		s.Require().Len(created, 1)
		s.Equal(r.ID, created[0].RegistrantID)
		s.Len(s.activity.Entries(activitylog.KindRegistration), 1)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistrationsCreated))
	})

	s.Run("explicit due day past reference day starts today", func() {
		req := s.createRequest("", "late@example.com", 2)
		req.DueDay = 3
		r, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(ledger.Date(2025, time.January, 5), r.Ledger.Slot(1).DueDate)
		s.Equal(ledger.Date(2025, time.February, 3), r.Ledger.Slot(2).DueDate)
	})

	s.Run("validation errors are reported before storing", func() {
		req := s.createRequest("", "x@example.com", 12)
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		req = s.createRequest("", "x@example.com", 2)
		req.ConsentTerms = false
		_, err = s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.FindByEmail(s.ctx, "x@example.com")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCreateSurvivesPublisherFailure() {
	s.events.Err = errors.New("broker down")
	r := s.create("", "ana@example.com", 1)
	s.NotEmpty(r.ID)
	s.Contains(s.logs.String(), "failed to publish event")
}

func (s *ServiceSuite) TestLookupAndResolve() {
	older := s.create("12345678909", "dup@example.com", 2)
	newer := s.create("12345678909", "DUP@example.com", 4)

	got, err := s.service.LookupByTaxID(s.ctx, "123.456.789-09")
	s.Require().NoError(err)
	s.Equal(newer.ID, got.ID, "most recent row wins")

	_, err = s.service.LookupByTaxID(s.ctx, "123")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.service.LookupByTaxID(s.ctx, "99999999999")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err = s.service.Resolve(s.ctx, models.Ref{ID: older.ID, Email: "dup@example.com"})
	s.Require().NoError(err)
	s.Equal(older.ID, got.ID, "id takes precedence")

	got, err = s.service.Resolve(s.ctx, models.Ref{ID: "unknown", Email: "  Dup@Example.com "})
	s.Require().NoError(err)
	s.Equal(newer.ID, got.ID, "email fallback")

	_, err = s.service.Resolve(s.ctx, models.Ref{ID: "unknown"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Resolve(s.ctx, models.Ref{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMarkInstallmentPaidFirstWriteWins() {
	r := s.create("", "ana@example.com", 3)
	d1 := ledger.Date(2025, time.January, 6)
	d2 := ledger.Date(2025, time.February, 1)

	out, err := s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, 2, d1, SourcePix)
	s.Require().NoError(err)
	s.Equal([]int{2}, out.NewlyPaid)
	s.Equal(ledger.StatusPartial, out.Aggregates.Status)

	out, err = s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, 2, d2, SourcePix)
	s.Require().NoError(err)
	s.Empty(out.NewlyPaid)

	got := s.stored(r.ID)
	s.True(got.Ledger.Slot(2).Paid)
	s.Equal(d1, got.Ledger.Slot(2).PaidDate)
	s.Equal(1, got.Aggregates.CountPaid)
	s.Equal(ledger.Cents(15000), got.Aggregates.AmountPaid)
	s.Equal(ledger.Cents(30000), got.Aggregates.Balance)
	s.Equal(33, got.Aggregates.PercentPaid)

	paid := s.events.Events(events.TypeInstallmentPaid)
	s.Require().Len(paid, 1)
	s.Equal(2, paid[0].Slot)
	s.Equal(int64(15000), paid[0].AmountCents)
	s.Equal(SourcePix, paid[0].Source)
}

func (s *ServiceSuite) TestMarkInstallmentPaidRejectsSlotOutsidePlan() {
	r := s.create("", "ana@example.com", 3)

	_, err := s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, 4, s.now, SourceAdmin)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, 12, s.now, SourceAdmin)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(0, s.stored(r.ID).Ledger.CountPaid())
}

func (s *ServiceSuite) TestMarkAllPaidSettlesPlan() {
	r := s.create("", "card@example.com", 5)
	paidAt := time.Date(2025, time.January, 7, 18, 30, 0, 0, time.UTC)

	out, err := s.service.MarkAllPaid(s.ctx, models.Ref{Email: "CARD@example.com"}, paidAt, SourceCard)
	s.Require().NoError(err)
	s.Equal([]int{1, 2, 3, 4, 5}, out.NewlyPaid)

	got := s.stored(r.ID)
	for n := 1; n <= 5; n++ {
		s.True(got.Ledger.Slot(n).Paid, "slot %d", n)
		s.Equal(ledger.Date(2025, time.January, 7), got.Ledger.Slot(n).PaidDate)
	}
	for n := 6; n <= ledger.MaxSlots; n++ {
		s.False(got.Ledger.Slot(n).Paid, "slot %d", n)
		s.True(got.Ledger.Slot(n).DueDate.IsZero(), "slot %d", n)
	}
	s.Equal(ledger.StatusPaid, got.Aggregates.Status)
	s.Equal(100, got.Aggregates.PercentPaid)
	s.Len(s.events.Events(events.TypeInstallmentPaid), 5)
}

func (s *ServiceSuite) TestStatusNeverMovesBackward() {
	r := s.create("", "mono@example.com", 4)
	prev := s.stored(r.ID).Aggregates
	for _, slot := range []int{3, 1, 3, 4, 2} {
		_, err := s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, slot, s.now, SourcePix)
		s.Require().NoError(err)
		cur := s.stored(r.ID).Aggregates
		s.GreaterOrEqual(cur.CountPaid, prev.CountPaid)
		s.GreaterOrEqual(cur.AmountPaid, prev.AmountPaid)
		s.GreaterOrEqual(cur.Status.Rank(), prev.Status.Rank())
		prev = cur
	}
	s.Equal(ledger.StatusPaid, prev.Status)
}

func (s *ServiceSuite) TestConcurrentMarksAllLand() {
	r := s.create("", "race@example.com", 11)

	var wg sync.WaitGroup
	for slot := 1; slot <= ledger.MaxSlots; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := s.service.MarkInstallmentPaid(s.ctx, models.Ref{ID: r.ID}, slot, s.now, SourcePix)
			s.NoError(err)
		}(slot)
	}
	wg.Wait()

	got := s.stored(r.ID)
	s.Equal(ledger.MaxSlots, got.Ledger.CountPaid())
	s.Equal(ledger.MaxSlots, got.Aggregates.CountPaid)
	s.Equal(ledger.StatusPaid, got.Aggregates.Status)
}

func (s *ServiceSuite) TestManualOverride() {
	r := s.create("12345678909", "ana@example.com", 3)
	ctx := requestcontext.WithAdminSubject(s.ctx, "ops@example.com")

	resp, err := s.service.ManualOverride(ctx, &models.MarkPaidRequest{TaxID: "123.456.789-09", Slot: 2})
	s.Require().NoError(err)
	s.Equal(r.ID, resp.RegistrantID)
	s.Equal("05/01/2025", resp.PaidDate)
	s.False(resp.AlreadyPaid)
	s.Equal(ledger.StatusPartial, resp.Status)

	later := requestcontext.WithTime(ctx, s.now.AddDate(0, 1, 0))
	resp, err = s.service.ManualOverride(later, &models.MarkPaidRequest{TaxID: "12345678909", Slot: 2})
	s.Require().NoError(err)
	s.True(resp.AlreadyPaid)
	s.Equal("05/01/2025", resp.PaidDate)

	entries := s.activity.Entries(activitylog.KindAdminOverride)
	s.Require().Len(entries, 2)
	s.Equal("ops@example.com", entries[0].Data["admin"])

	_, err = s.service.ManualOverride(ctx, &models.MarkPaidRequest{TaxID: "99999999999", Slot: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.ManualOverride(ctx, &models.MarkPaidRequest{TaxID: "12345678909", Slot: 0})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestReconcileAllRepairsDriftIdempotently() {
	drifted := s.create("", "a@example.com", 7)
	s.create("", "b@example.com", 2)
	s.Require().NoError(s.store.AppendNew(context.Background(), &models.Registrant{ID: "legacy", Email: "c@example.com"}))

	// direct edits bypass reconciliation, as an operator typing into the sheet would
	vals := models.Values{}
	for n := 1; n <= 7; n++ {
		vals[models.SlotPaid(n)] = true
	}
	s.Require().NoError(s.store.UpsertFields(context.Background(), drifted.ID, vals))

	stats, err := s.service.ReconcileAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(1, stats.WithPayment)
	s.Equal(1, stats.WithoutPayment)
	s.Equal(1, stats.Skipped)
	s.Equal(5, stats.FieldsUpdated)

	got := s.stored(drifted.ID)
	s.Equal(ledger.StatusPaid, got.Aggregates.Status)
	s.Equal(ledger.Cents(45003), got.Aggregates.AmountPaid)
	s.Equal(ledger.Cents(-3), got.Aggregates.Balance)
	s.True(got.Ledger.Slot(1).Paid, "paid flags are never altered")

	again, err := s.service.ReconcileAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, again.FieldsUpdated)
	s.Equal(got.Aggregates, s.stored(drifted.ID).Aggregates)
	s.Contains(s.logs.String(), "no installments defined")
}

func (s *ServiceSuite) TestReconcileAllSkipsMissingColumns() {
	s.setup(memory.New(memory.WithoutFields(models.FieldStatus, models.FieldPercentPaid)))
	r := s.create("", "a@example.com", 2)
	s.Require().NoError(s.store.UpsertFields(context.Background(), r.ID, models.Values{models.SlotPaid(1): true}))

	stats, err := s.service.ReconcileAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.FieldsUpdated)
	s.Equal(1, s.stored(r.ID).Aggregates.CountPaid)

	again, err := s.service.ReconcileAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, again.FieldsUpdated)
}

func (s *ServiceSuite) TestBackfillAndAuditDueDates() {
	r := s.create("", "a@example.com", 3)
	s.Require().NoError(s.store.UpsertFields(context.Background(), r.ID, models.Values{
		models.SlotDueDate(2): time.Time{},
		models.SlotDueDate(3): time.Time{},
	}))

	report, err := s.service.AuditDueDates(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Checked)
	s.Require().Len(report.Missing, 2)
	s.Equal(2, report.Missing[0].Slot)
	s.Equal(s.now, report.GeneratedAt)

	res, err := s.service.BackfillDueDates(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Registrants)
	s.Equal(2, res.FieldsUpdated)
	s.Equal("10/02/2025", res.Filled[0].DueDate)

	got := s.stored(r.ID)
	s.Equal(ledger.Date(2025, time.February, 10), got.Ledger.Slot(2).DueDate)
	s.Equal(ledger.Date(2025, time.March, 10), got.Ledger.Slot(3).DueDate)

	report, err = s.service.AuditDueDates(s.ctx)
	s.Require().NoError(err)
	s.Empty(report.Missing)

	res, err = s.service.BackfillDueDates(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, res.FieldsUpdated)
}

func (s *ServiceSuite) TestRecordTransaction() {
	r := s.create("", "a@example.com", 1)
	s.Require().NoError(s.service.RecordTransaction(s.ctx, models.Ref{Email: "a@example.com"}, "ORDE_123"))
	got := s.stored(r.ID)
	s.Require().NotNil(got.LastTransactionID)
	s.Equal("ORDE_123", *got.LastTransactionID)

	err := s.service.RecordTransaction(s.ctx, models.Ref{Email: "nobody@example.com"}, "ORDE_1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
