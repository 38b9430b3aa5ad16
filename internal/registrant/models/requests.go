package models

import (
	"strings"
	"time"

	"enroll/internal/ledger"
	"enroll/pkg/contact"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/email"
)

type CreateRequest struct {
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	TaxID             string `json:"tax_id,omitempty"`
	CityCountry       string `json:"city_country"`
	Adult             bool   `json:"adult"`
	ConsentTerms      bool   `json:"consent_terms"`
	ConsentWithdrawal bool   `json:"consent_withdrawal"`
	Installments      int    `json:"installments"`
	DueDay            int    `json:"due_day,omitempty"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.Join(strings.Fields(r.FullName), " ")
	r.Email = email.Normalize(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.CityCountry = strings.TrimSpace(r.CityCountry)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.FullName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be 200 characters or less")
	}
	if len(r.Email) > 254 {
		return dErrors.New(dErrors.CodeValidation, "email must be 254 characters or less")
	}
	if len(r.CityCountry) > 200 {
		return dErrors.New(dErrors.CodeValidation, "city_country must be 200 characters or less")
	}

	if r.FullName == "" || r.Email == "" || r.Phone == "" || r.CityCountry == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name, email, phone and city_country are required")
	}

	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	phone, err := contact.ParsePhone(r.Phone)
	if err != nil {
		return err
	}
	r.Phone = phone.String()
	if r.TaxID != "" {
		taxID, err := contact.NormalizeTaxID(r.TaxID)
		if err != nil {
			return err
		}
		r.TaxID = taxID
	}

	if !r.Adult {
		return dErrors.New(dErrors.CodeValidation, "registrant must be of age")
	}
	if !r.ConsentTerms {
		return dErrors.New(dErrors.CodeValidation, "data processing consent is required")
	}
	if !r.ConsentWithdrawal {
		return dErrors.New(dErrors.CodeValidation, "withdrawal terms must be acknowledged")
	}
	if err := ledger.ValidateInstallmentCount(r.Installments); err != nil {
		return err
	}
	if r.DueDay != 0 {
		if err := ledger.ValidateDueDay(r.DueDay); err != nil {
			return err
		}
	}
	return nil
}

// Identity extracts the registrant identity from a validated request.
func (r *CreateRequest) Identity() Identity {
	return Identity{
		FullName:          r.FullName,
		Email:             r.Email,
		Phone:             r.Phone,
		TaxID:             r.TaxID,
		CityCountry:       r.CityCountry,
		Adult:             r.Adult,
		ConsentTerms:      r.ConsentTerms,
		ConsentWithdrawal: r.ConsentWithdrawal,
	}
}

type LookupRequest struct {
	TaxID string `json:"tax_id"`
}

func (r *LookupRequest) Normalize() {
	if r == nil {
		return
	}
	r.TaxID = strings.TrimSpace(r.TaxID)
}

func (r *LookupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.TaxID == "" {
		return dErrors.New(dErrors.CodeValidation, "tax_id is required")
	}
	taxID, err := contact.NormalizeTaxID(r.TaxID)
	if err != nil {
		return err
	}
	r.TaxID = taxID
	return nil
}

// MarkPaidRequest is the admin manual override.
type MarkPaidRequest struct {
	TaxID string `json:"tax_id"`
	Slot  int    `json:"installment"`
}

func (r *MarkPaidRequest) Normalize() {
	if r == nil {
		return
	}
	r.TaxID = strings.TrimSpace(r.TaxID)
}

func (r *MarkPaidRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.TaxID == "" {
		return dErrors.New(dErrors.CodeValidation, "tax_id is required")
	}
	taxID, err := contact.NormalizeTaxID(r.TaxID)
	if err != nil {
		return err
	}
	r.TaxID = taxID
	return ledger.ValidateSlot(r.Slot)
}

// MarkOutcome reports what a ledger mutation changed.
type MarkOutcome struct {
	Registrant *Registrant
	NewlyPaid  []int
	Aggregates ledger.Aggregates
}

// ReconcileStats summarizes a full reconciliation sweep.
type ReconcileStats struct {
	Total          int `json:"total"`
	WithPayment    int `json:"with_payment"`
	WithoutPayment int `json:"without_payment"`
	Skipped        int `json:"skipped"`
	FieldsUpdated  int `json:"fields_updated"`
}

// BackfillResult summarizes a due date backfill.
type BackfillResult struct {
	Registrants   int              `json:"registrants"`
	FieldsUpdated int              `json:"fields_updated"`
	Filled        []MissingDueDate `json:"filled"`
}

// MissingDueDate is one used slot without a due date. DueDate is set when the
// backfill computed one.
type MissingDueDate struct {
	RegistrantID string `json:"registrant_id"`
	FullName     string `json:"full_name"`
	Slot         int    `json:"installment"`
	DueDate      string `json:"due_date,omitempty"`
}

// AuditReport lists registrants whose used slots lack due dates.
type AuditReport struct {
	Checked        int              `json:"checked"`
	MissingColumns []string         `json:"missing_columns,omitempty"`
	Missing        []MissingDueDate `json:"missing"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
