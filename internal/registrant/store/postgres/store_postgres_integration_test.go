//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
	"enroll/internal/registrant/store/postgres"
	"enroll/pkg/platform/sentinel"
	"enroll/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "registrants"))
}

func newRegistrant(email, taxID string, n int) *models.Registrant {
	sched, _ := ledger.GenerateSchedule(45000, n, 10, ledger.Date(2025, time.January, 5))
	return models.New(uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond), models.Identity{
		FullName: "Ana Souza",
		Email:    email,
		TaxID:    taxID,
	}, 45000, 10, sched)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	r := newRegistrant("Ana@Example.com", "12345678909", 4)
	s.Require().NoError(s.store.AppendNew(ctx, r))
	s.ErrorIs(s.store.AppendNew(ctx, r), sentinel.ErrConflict)

	found, err := s.store.FindByEmail(ctx, " ana@example.com")
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)
	s.Equal(r.Plan, found.Plan)
	s.Equal(ledger.Date(2025, time.April, 10), found.Ledger.Slot(4).DueDate)
	s.True(found.Ledger.Slot(5).DueDate.IsZero())
	s.Nil(found.LastTransactionID)

	_, err = s.store.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMostRecentWins() {
	ctx := context.Background()
	older := newRegistrant("dup@example.com", "11122233344", 2)
	newer := newRegistrant("dup@example.com", "11122233344", 3)
	s.Require().NoError(s.store.AppendNew(ctx, older))
	s.Require().NoError(s.store.AppendNew(ctx, newer))

	found, err := s.store.FindByTaxID(ctx, "11122233344")
	s.Require().NoError(err)
	s.Equal(newer.ID, found.ID)
}

func (s *PostgresStoreSuite) TestConcurrentSlotWritesDoNotClobber() {
	ctx := context.Background()
	r := newRegistrant("race@example.com", "", 11)
	s.Require().NoError(s.store.AppendNew(ctx, r))

	var wg sync.WaitGroup
	for n := 1; n <= ledger.MaxSlots; n++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			err := s.store.UpsertFields(ctx, r.ID, models.Values{
				models.SlotPaid(slot):     true,
				models.SlotPaidDate(slot): ledger.Date(2025, time.March, slot),
			})
			s.NoError(err)
		}(n)
	}
	wg.Wait()

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(ledger.MaxSlots, found.Ledger.CountPaid())
}

func (s *PostgresStoreSuite) TestUpsertManyIsAtomic() {
	ctx := context.Background()
	r := newRegistrant("atomic@example.com", "", 2)
	s.Require().NoError(s.store.AppendNew(ctx, r))

	err := s.store.UpsertMany(ctx, []models.Patch{
		{ID: r.ID, Values: models.Values{models.FieldCountPaid: 2}},
		{ID: "missing", Values: models.Values{models.FieldCountPaid: 1}},
	})
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(0, found.Aggregates.CountPaid)
}
