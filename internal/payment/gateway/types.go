package gateway

// Payment method types reported on charges.
const (
	MethodCreditCard = "CREDIT_CARD"
	MethodDebitCard  = "DEBIT_CARD"
	MethodPix        = "PIX"
)

// Charge statuses.
const (
	ChargeAuthorized = "AUTHORIZED"
	ChargePaid       = "PAID"
	ChargeInAnalysis = "IN_ANALYSIS"
	ChargeDeclined   = "DECLINED"
	ChargeCanceled   = "CANCELED"
	ChargeWaiting    = "WAITING"
)

type Phone struct {
	Country string `json:"country"`
	Area    string `json:"area"`
	Number  string `json:"number"`
	Type    string `json:"type"`
}

type Customer struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	TaxID  string  `json:"tax_id"`
	Phones []Phone `json:"phones,omitempty"`
}

type Item struct {
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
}

// Amount is in cents.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency,omitempty"`
}

type QRCodeRequest struct {
	Amount         Amount `json:"amount"`
	ExpirationDate string `json:"expiration_date"`
}

type Holder struct {
	Name string `json:"name"`
}

type Card struct {
	Encrypted string  `json:"encrypted"`
	Holder    *Holder `json:"holder,omitempty"`
}

type PaymentMethod struct {
	Type         string `json:"type"`
	Installments int    `json:"installments,omitempty"`
	Capture      bool   `json:"capture,omitempty"`
	Card         *Card  `json:"card,omitempty"`
}

type ChargeRequest struct {
	ReferenceID   string        `json:"reference_id"`
	Description   string        `json:"description"`
	Amount        Amount        `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// OrderRequest is the body of POST /orders. A PIX order carries QRCodes, a
// card order carries Charges.
type OrderRequest struct {
	ReferenceID      string          `json:"reference_id"`
	Customer         Customer        `json:"customer"`
	Items            []Item          `json:"items"`
	QRCodes          []QRCodeRequest `json:"qr_codes,omitempty"`
	Charges          []ChargeRequest `json:"charges,omitempty"`
	NotificationURLs []string        `json:"notification_urls,omitempty"`
}

type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Media string `json:"media,omitempty"`
	Type  string `json:"type,omitempty"`
}

type QRCode struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	ExpirationDate string `json:"expiration_date"`
	Amount         Amount `json:"amount"`
	Links          []Link `json:"links"`
}

// ImageURL returns the PNG link of the QR code, if any.
func (q QRCode) ImageURL() string {
	for _, l := range q.Links {
		if l.Rel == "QRCODE.PNG" {
			return l.Href
		}
	}
	return ""
}

type ChargeMethod struct {
	Type string `json:"type"`
}

type Charge struct {
	ID            string       `json:"id"`
	ReferenceID   string       `json:"reference_id"`
	Status        string       `json:"status"`
	PaidAt        string       `json:"paid_at,omitempty"`
	Amount        Amount       `json:"amount"`
	PaymentMethod ChargeMethod `json:"payment_method"`
}

// IsCard reports whether the charge was paid by credit or debit card.
func (c Charge) IsCard() bool {
	return c.PaymentMethod.Type == MethodCreditCard || c.PaymentMethod.Type == MethodDebitCard
}

// Order is both the create-order response and the webhook notification body.
type Order struct {
	ID          string   `json:"id"`
	ReferenceID string   `json:"reference_id"`
	CreatedAt   string   `json:"created_at,omitempty"`
	Customer    Customer `json:"customer"`
	QRCodes     []QRCode `json:"qr_codes,omitempty"`
	Charges     []Charge `json:"charges,omitempty"`
}

// PaidCharge returns the first charge with status PAID.
func (o Order) PaidCharge() (Charge, bool) {
	for _, c := range o.Charges {
		if c.Status == ChargePaid {
			return c, true
		}
	}
	return Charge{}, false
}

type PublicKey struct {
	PublicKey string `json:"public_key"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type errorBody struct {
	ErrorMessages []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Parameter   string `json:"parameter_name"`
	} `json:"error_messages"`
}
