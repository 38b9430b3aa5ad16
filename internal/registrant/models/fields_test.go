package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/ledger"
)

func TestSlotFieldRoundTrip(t *testing.T) {
	for n := 1; n <= ledger.MaxSlots; n++ {
		for _, f := range []Field{SlotDueDate(n), SlotPaid(n), SlotPaidDate(n)} {
			slot, _, ok := f.Slot()
			require.True(t, ok, f.String())
			assert.Equal(t, n, slot)
			assert.True(t, f.Valid())
		}
	}
	_, kind, _ := SlotPaidDate(4).Slot()
	assert.Equal(t, SlotKindPaidDate, kind)

	_, _, ok := FieldEmail.Slot()
	assert.False(t, ok)
	assert.False(t, Field(0).Valid())
	assert.False(t, SlotDueDate(ledger.MaxSlots+1).Valid())
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "email", FieldEmail.String())
	assert.Equal(t, "slot_03_paid", SlotPaid(3).String())
	assert.Equal(t, "slot_11_paid_date", SlotPaidDate(11).String())
	assert.Len(t, AllFields(), len(ScalarFields())+3*ledger.MaxSlots)
}

func TestApplyAndGet(t *testing.T) {
	r := &Registrant{}
	paid := ledger.Date(2025, time.March, 10)

	require.NoError(t, ApplyAll(r, Values{
		FieldEmail:             "ana@example.com",
		FieldInstallments:      3,
		FieldTotal:             ledger.Cents(45000),
		FieldStatus:            ledger.StatusPartial,
		SlotPaid(2):            true,
		SlotPaidDate(2):        paid,
		FieldLastTransactionID: "ORDE_1",
	}))

	assert.Equal(t, "ana@example.com", r.Email)
	assert.Equal(t, 3, r.Plan.Installments)
	assert.Equal(t, ledger.Cents(45000), r.Plan.Total)
	assert.True(t, r.Ledger.Slot(2).Paid)
	assert.Equal(t, paid, Get(r, SlotPaidDate(2)))
	require.NotNil(t, r.LastTransactionID)
	assert.Equal(t, "ORDE_1", *r.LastTransactionID)

	require.NoError(t, Apply(r, FieldLastTransactionID, ""))
	assert.Nil(t, r.LastTransactionID)
}

func TestApplyRejectsWrongType(t *testing.T) {
	r := &Registrant{}
	assert.Error(t, Apply(r, FieldInstallments, "3"))
	assert.Error(t, Apply(r, SlotPaid(1), "1"))
	assert.Error(t, Apply(r, Field(999), "x"))
}

func TestDiff(t *testing.T) {
	sched, err := ledger.GenerateSchedule(45000, 3, 10, ledger.Date(2025, time.January, 5))
	require.NoError(t, err)
	prev := New("r1", time.Now(), Identity{Email: "a@b.co"}, 45000, 10, sched)
	next := prev.Clone()

	_, err = next.Ledger.MarkInstallmentPaid(1, ledger.Date(2025, time.January, 6))
	require.NoError(t, err)
	next.Aggregates, _ = ledger.Reconcile(next.Plan, next.Ledger)

	slotDiff := Diff(prev, next, []Field{SlotDueDate(1), SlotPaid(1), SlotPaidDate(1)})
	assert.Len(t, slotDiff, 2)
	assert.Equal(t, true, slotDiff[SlotPaid(1)])

	aggDiff := Diff(prev, next, AggregateFields())
	assert.Equal(t, ledger.StatusPartial, aggDiff[FieldStatus])
	assert.Equal(t, 1, aggDiff[FieldCountPaid])

	assert.Empty(t, Diff(next, next.Clone(), AllFields()))
}
