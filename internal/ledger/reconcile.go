package ledger

import "math"

// Status is the overall payment status of a plan.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPartial Status = "PARTIAL"
	StatusPaid    Status = "PAID"
)

// Rank orders statuses PENDING < PARTIAL < PAID. Unknown statuses rank lowest.
func (s Status) Rank() int {
	switch s {
	case StatusPartial:
		return 1
	case StatusPaid:
		return 2
	default:
		return 0
	}
}

// Plan is what a registrant owes.
type Plan struct {
	Total          Cents
	Installments   int
	DueDay         int
	PerInstallment Cents
}

// InstallmentAmount is the stored per-installment amount, or total/N when unset.
func (p Plan) InstallmentAmount() Cents {
	if p.PerInstallment > 0 {
		return p.PerInstallment
	}
	if p.Installments > 0 {
		return p.Total.Div(p.Installments)
	}
	return 0
}

// Aggregates are the fields derived from the raw paid flags.
type Aggregates struct {
	CountPaid   int
	AmountPaid  Cents
	Balance     Cents
	PercentPaid int
	Status      Status
}

// StatusFor derives the overall status from the paid count and plan size.
func StatusFor(countPaid, n int) Status {
	switch {
	case countPaid <= 0:
		return StatusPending
	case countPaid < n:
		return StatusPartial
	default:
		return StatusPaid
	}
}

// PercentOf returns round(paid/total*100), or 0 when total is not positive.
func PercentOf(paid, total Cents) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(paid) * 100 / float64(total)))
}

// Reconcile recomputes aggregates from the ledger. ok is false when the plan has
// no installment count, in which case nothing should be written.
func Reconcile(p Plan, l Ledger) (agg Aggregates, ok bool) {
	if p.Installments <= 0 {
		return Aggregates{}, false
	}
	count := l.CountPaid()
	paid := p.InstallmentAmount().Mul(count)
	return Aggregates{
		CountPaid:   count,
		AmountPaid:  paid,
		Balance:     p.Total - paid,
		PercentPaid: PercentOf(paid, p.Total),
		Status:      StatusFor(count, p.Installments),
	}, true
}
