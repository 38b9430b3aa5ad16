package models

import (
	"time"

	"enroll/internal/ledger"
)

// CreateResponse is returned after a registration is stored.
type CreateResponse struct {
	ID                string  `json:"id"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Installments      int     `json:"installments"`
	InstallmentAmount float64 `json:"installment_amount"`
	TotalAmount       float64 `json:"total_amount"`
}

func NewCreateResponse(r *Registrant) CreateResponse {
	return CreateResponse{
		ID:                r.ID,
		FullName:          r.FullName,
		Email:             r.Email,
		Installments:      r.Plan.Installments,
		InstallmentAmount: r.Plan.InstallmentAmount().Float(),
		TotalAmount:       r.Plan.Total.Float(),
	}
}

// RegistrantResponse is the full record returned by lookup.
type RegistrantResponse struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	FullName          string            `json:"full_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	TaxID             string            `json:"tax_id"`
	CityCountry       string            `json:"city_country"`
	Installments      int               `json:"installment_count"`
	DueDay            int               `json:"due_day"`
	InstallmentAmount float64           `json:"installment_amount"`
	TotalAmount       float64           `json:"total_amount"`
	Status            ledger.Status     `json:"status"`
	PaidCount         int               `json:"paid_count"`
	AmountPaid        float64           `json:"amount_paid"`
	Balance           float64           `json:"balance"`
	PercentPaid       int               `json:"percent_paid"`
	LastTransactionID *string           `json:"last_transaction_id"`
	Schedule          []InstallmentView `json:"installments"`
}

func NewRegistrantResponse(r *Registrant) RegistrantResponse {
	return RegistrantResponse{
		ID:                r.ID,
		CreatedAt:         r.CreatedAt,
		FullName:          r.FullName,
		Email:             r.Email,
		Phone:             r.Phone,
		TaxID:             r.TaxID,
		CityCountry:       r.CityCountry,
		Installments:      r.Plan.Installments,
		DueDay:            r.Plan.DueDay,
		InstallmentAmount: r.Plan.InstallmentAmount().Float(),
		TotalAmount:       r.Plan.Total.Float(),
		Status:            r.Aggregates.Status,
		PaidCount:         r.Aggregates.CountPaid,
		AmountPaid:        r.Aggregates.AmountPaid.Float(),
		Balance:           r.Aggregates.Balance.Float(),
		PercentPaid:       r.Aggregates.PercentPaid,
		LastTransactionID: r.LastTransactionID,
		Schedule:          r.Installments(),
	}
}

// MarkPaidResponse echoes a manual override.
type MarkPaidResponse struct {
	RegistrantID string        `json:"registrant_id"`
	FullName     string        `json:"full_name"`
	TaxID        string        `json:"tax_id"`
	Slot         int           `json:"installment"`
	PaidDate     string        `json:"paid_date"`
	AlreadyPaid  bool          `json:"already_paid"`
	Status       ledger.Status `json:"status"`
	PaidCount    int           `json:"paid_count"`
}
