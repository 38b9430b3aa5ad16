package models

import (
	"time"

	"enroll/internal/ledger"
	"enroll/pkg/email"
)

// Registrant is one person's registration: identity, plan, consents and ledger.
type Registrant struct {
	ID          string
	CreatedAt   time.Time
	FullName    string
	Email       string
	Phone       string
	TaxID       string
	CityCountry string

	Adult             bool
	ConsentTerms      bool
	ConsentWithdrawal bool

	Plan       ledger.Plan
	Ledger     ledger.Ledger
	Aggregates ledger.Aggregates

	LastTransactionID *string
}

// New builds a registrant with an unpaid ledger from a generated schedule.
func New(id string, now time.Time, identity Identity, total ledger.Cents, dueDay int, sched ledger.Schedule) *Registrant {
	r := &Registrant{
		ID:                id,
		CreatedAt:         now,
		FullName:          identity.FullName,
		Email:             identity.Email,
		Phone:             identity.Phone,
		TaxID:             identity.TaxID,
		CityCountry:       identity.CityCountry,
		Adult:             identity.Adult,
		ConsentTerms:      identity.ConsentTerms,
		ConsentWithdrawal: identity.ConsentWithdrawal,
		Plan: ledger.Plan{
			Total:          total,
			Installments:   sched.Count,
			DueDay:         dueDay,
			PerInstallment: sched.PerInstallment,
		},
		Ledger: ledger.NewLedger(sched),
	}
	r.Aggregates, _ = ledger.Reconcile(r.Plan, r.Ledger)
	return r
}

// Identity is the caller-supplied part of a registrant.
type Identity struct {
	FullName          string
	Email             string
	Phone             string
	TaxID             string
	CityCountry       string
	Adult             bool
	ConsentTerms      bool
	ConsentWithdrawal bool
}

// Clone returns a deep copy, so stores never hand out shared pointers.
func (r *Registrant) Clone() *Registrant {
	if r == nil {
		return nil
	}
	cp := *r
	if r.LastTransactionID != nil {
		tx := *r.LastTransactionID
		cp.LastTransactionID = &tx
	}
	return &cp
}

// MatchesEmail compares trimmed, case-folded addresses.
func (r *Registrant) MatchesEmail(addr string) bool {
	return email.Normalize(r.Email) == email.Normalize(addr)
}

// Ref identifies a registrant by immutable id, falling back to email.
type Ref struct {
	ID    string
	Email string
}

func (r Ref) Empty() bool { return r.ID == "" && r.Email == "" }

// String is used in logs.
func (r Ref) String() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "email:" + email.Normalize(r.Email)
}

// Installments renders the used slots for API consumers.
func (r *Registrant) Installments() []InstallmentView {
	amount := r.Plan.InstallmentAmount()
	views := make([]InstallmentView, 0, r.Plan.Installments)
	for n := 1; n <= min(r.Plan.Installments, ledger.MaxSlots); n++ {
		slot := r.Ledger.Slot(n)
		v := InstallmentView{
			Number: n,
			Amount: amount.Float(),
			Status: InstallmentPending,
		}
		if !slot.DueDate.IsZero() {
			d := slot.DueDate.Format(time.DateOnly)
			v.DueDate = &d
		}
		if slot.Paid {
			v.Status = InstallmentPaid
			if !slot.PaidDate.IsZero() {
				d := slot.PaidDate.Format(time.DateOnly)
				v.PaidDate = &d
			}
		}
		views = append(views, v)
	}
	return views
}

const (
	InstallmentPaid    = "paid"
	InstallmentPending = "pending"
)

// InstallmentView is one entry of the lookup response's installments array.
type InstallmentView struct {
	Number   int     `json:"number"`
	Amount   float64 `json:"amount"`
	DueDate  *string `json:"due_date"`
	Status   string  `json:"status"`
	PaidDate *string `json:"paid_date"`
}
