package models

import (
	"strings"

	"enroll/internal/ledger"
	"enroll/pkg/contact"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/email"
)

// AuthenticityHeader carries sha256(token + "-" + body) as lowercase hex on
// gateway notifications.
const AuthenticityHeader = "x-authenticity-token"

// PixRequest asks for the PIX charge of the first installment. Name, phone
// and tax id may be omitted when the email matches a registrant.
type PixRequest struct {
	Email        string `json:"email"`
	Installments int    `json:"installments"`
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	TaxID        string `json:"tax_id,omitempty"`
}

func (r *PixRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = email.Normalize(r.Email)
	r.FullName = strings.Join(strings.Fields(r.FullName), " ")
	r.Phone = strings.TrimSpace(r.Phone)
	r.TaxID = strings.TrimSpace(r.TaxID)
}

func (r *PixRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return ledger.ValidateInstallmentCount(r.Installments)
}

type CardRequest struct {
	RegistrantID     string  `json:"registrant_id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	TaxID            string  `json:"tax_id"`
	Phone            string  `json:"phone"`
	TotalAmount      float64 `json:"total_amount"`
	EncryptedCard    string  `json:"encrypted_card"`
	CardInstallments int     `json:"card_installments"`
	HolderName       string  `json:"holder_name,omitempty"`
}

func (r *CardRequest) Normalize() {
	if r == nil {
		return
	}
	r.RegistrantID = strings.TrimSpace(r.RegistrantID)
	r.FullName = strings.Join(strings.Fields(r.FullName), " ")
	r.Email = email.Normalize(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.EncryptedCard = strings.TrimSpace(r.EncryptedCard)
	r.HolderName = strings.Join(strings.Fields(r.HolderName), " ")
	if r.HolderName == "" {
		r.HolderName = r.FullName
	}
	if r.CardInstallments == 0 {
		r.CardInstallments = 1
	}
}

func (r *CardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.RegistrantID == "" || r.FullName == "" || r.Email == "" || r.TaxID == "" ||
		r.Phone == "" || r.TotalAmount <= 0 || r.EncryptedCard == "" {
		return dErrors.New(dErrors.CodeValidation,
			"registrant_id, full_name, email, tax_id, phone, total_amount and encrypted_card are required")
	}
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	taxID, err := contact.NormalizeTaxID(r.TaxID)
	if err != nil {
		return err
	}
	r.TaxID = taxID
	if _, err := contact.ParsePhone(r.Phone); err != nil {
		return err
	}
	if r.CardInstallments < 1 || r.CardInstallments > ledger.MaxSlots {
		return dErrors.Newf(dErrors.CodeValidation, "card_installments must be between 1 and %d", ledger.MaxSlots)
	}
	return nil
}

// Total returns the requested amount in cents.
func (r *CardRequest) Total() ledger.Cents {
	return ledger.FromFloat(r.TotalAmount)
}

type PixResponse struct {
	OrderID     string  `json:"order_id"`
	ReferenceID string  `json:"reference_id"`
	QRCodeText  string  `json:"qr_code_text"`
	QRCodeImage string  `json:"qr_code_image,omitempty"`
	Amount      float64 `json:"amount"`
	Installment int     `json:"installment"`
	ExpiresAt   string  `json:"expires_at"`
}

type CardResponse struct {
	OrderID     string `json:"order_id"`
	ReferenceID string `json:"reference_id"`
	ChargeID    string `json:"charge_id,omitempty"`
	Status      string `json:"status"`
	Approved    bool   `json:"approved"`
}

type PublicKeyResponse struct {
	PublicKey   string `json:"public_key"`
	Environment string `json:"environment"`
}

// RotatedKeyResponse carries a new key; operators copy it into
// PAGBANK_PUBLIC_KEY.
type RotatedKeyResponse struct {
	PublicKey   string `json:"public_key"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	Environment string `json:"environment"`
}

// WebhookResponse is always sent with status 200.
type WebhookResponse struct {
	Received    bool   `json:"received"`
	OrderID     string `json:"order_id,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
	Outcome     string `json:"outcome"`
}
