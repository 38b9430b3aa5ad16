package ledger

import (
	"time"

	dErrors "enroll/pkg/domain-errors"
)

// Slot is one installment position. PaidDate is set only on the unpaid→paid
// transition and never cleared.
type Slot struct {
	Number   int
	DueDate  time.Time
	Paid     bool
	PaidDate time.Time
}

// Ledger is the per-registrant set of MaxSlots slots.
type Ledger struct {
	Slots [MaxSlots]Slot
}

// NewLedger builds an all-unpaid ledger from a schedule.
func NewLedger(s Schedule) Ledger {
	var l Ledger
	for i, inst := range s.Installments {
		l.Slots[i] = Slot{Number: i + 1, DueDate: inst.DueDate}
	}
	return l
}

// ValidateSlot rejects slot numbers outside 1..MaxSlots.
func ValidateSlot(slot int) error {
	if slot < 1 || slot > MaxSlots {
		return dErrors.Newf(dErrors.CodeValidation, "installment number must be between 1 and %d", MaxSlots)
	}
	return nil
}

// Slot returns slot n (1-based). n must be valid.
func (l *Ledger) Slot(n int) Slot {
	s := l.Slots[n-1]
	s.Number = n
	return s
}

// MarkInstallmentPaid flags slot as paid on paidDate. Marking an already-paid slot
// succeeds without touching its original paid date; changed reports whether the
// slot transitioned.
func (l *Ledger) MarkInstallmentPaid(slot int, paidDate time.Time) (changed bool, err error) {
	if err := ValidateSlot(slot); err != nil {
		return false, err
	}
	s := &l.Slots[slot-1]
	s.Number = slot
	if s.Paid {
		if s.PaidDate.IsZero() {
			// legacy rows may carry the flag without a date
			s.PaidDate = DateOf(paidDate)
			return true, nil
		}
		return false, nil
	}
	s.Paid = true
	s.PaidDate = DateOf(paidDate)
	return true, nil
}

// MarkAllPaid marks slots 1..upTo with the same paid date, returning the slot
// numbers that transitioned.
func (l *Ledger) MarkAllPaid(upTo int, paidDate time.Time) ([]int, error) {
	if err := ValidateInstallmentCount(upTo); err != nil {
		return nil, err
	}
	var marked []int
	for n := 1; n <= upTo; n++ {
		changed, err := l.MarkInstallmentPaid(n, paidDate)
		if err != nil {
			return marked, err
		}
		if changed {
			marked = append(marked, n)
		}
	}
	return marked, nil
}

// CountPaid counts paid flags across all MaxSlots slots.
func (l *Ledger) CountPaid() int {
	n := 0
	for _, s := range l.Slots {
		if s.Paid {
			n++
		}
	}
	return n
}

// FirstUnpaid returns the lowest unpaid slot among 1..upTo, or 0 when all are paid.
func (l *Ledger) FirstUnpaid(upTo int) int {
	for n := 1; n <= min(upTo, MaxSlots); n++ {
		if !l.Slots[n-1].Paid {
			return n
		}
	}
	return 0
}
