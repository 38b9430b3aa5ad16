package ledger

import (
	"time"

	dErrors "enroll/pkg/domain-errors"
)

// MaxSlots is the fixed number of installment positions in every ledger.
const MaxSlots = 11

// Installment is one generated (due date, amount) pair.
type Installment struct {
	Number  int
	DueDate time.Time
	Amount  Cents
}

// Schedule holds N populated installments followed by MaxSlots-N zero placeholders.
type Schedule struct {
	Count          int
	PerInstallment Cents
	Installments   [MaxSlots]Installment
}

// Populated returns the first Count installments.
func (s Schedule) Populated() []Installment {
	return s.Installments[:s.Count]
}

// ValidateInstallmentCount rejects counts outside 1..MaxSlots.
func ValidateInstallmentCount(n int) error {
	if n < 1 || n > MaxSlots {
		return dErrors.Newf(dErrors.CodeValidation, "installment count must be between 1 and %d", MaxSlots)
	}
	return nil
}

// ValidateDueDay rejects days outside 1..31.
func ValidateDueDay(day int) error {
	if day < 1 || day > 31 {
		return dErrors.New(dErrors.CodeValidation, "due day must be between 1 and 31")
	}
	return nil
}

// GenerateSchedule spreads total over n monthly installments anchored on dueDay.
//
// The first installment is due on the reference date when its day is already at or
// past dueDay, otherwise on dueDay of the reference month. Each later installment
// is one calendar month after the previous, on dueDay clamped to the month length.
// Every installment carries total/n rounded to cents; the rounding remainder is not
// redistributed.
func GenerateSchedule(total Cents, n, dueDay int, reference time.Time) (Schedule, error) {
	if err := ValidateInstallmentCount(n); err != nil {
		return Schedule{}, err
	}
	if err := ValidateDueDay(dueDay); err != nil {
		return Schedule{}, err
	}
	if total < 0 {
		return Schedule{}, dErrors.New(dErrors.CodeValidation, "total amount must not be negative")
	}

	ref := DateOf(reference)
	first := ref
	if ref.Day() < dueDay {
		first = AddMonthsClamped(ref, 0, dueDay)
	}

	s := Schedule{Count: n, PerInstallment: total.Div(n)}
	for i := range n {
		due := first
		if i > 0 {
			due = AddMonthsClamped(first, i, dueDay)
		}
		s.Installments[i] = Installment{Number: i + 1, DueDate: due, Amount: s.PerInstallment}
	}
	for i := n; i < MaxSlots; i++ {
		s.Installments[i] = Installment{Number: i + 1}
	}
	return s, nil
}
