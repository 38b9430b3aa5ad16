package models

import (
	"fmt"
	"time"

	"enroll/internal/ledger"
)

// Field names one persisted attribute of a registrant. Storage adapters map
// fields to their own column names; services only speak in fields.
type Field int

const (
	FieldID Field = iota + 1
	FieldCreatedAt
	FieldFullName
	FieldEmail
	FieldPhone
	FieldTaxID
	FieldCityCountry
	FieldAdult
	FieldConsentTerms
	FieldConsentWithdrawal
	FieldInstallments
	FieldDueDay
	FieldPerInstallment
	FieldTotal
	FieldStatus
	FieldCountPaid
	FieldAmountPaid
	FieldBalance
	FieldPercentPaid
	FieldLastTransactionID

	lastScalarField
)

// Slot fields are laid out after the scalars, three per slot.
const slotFieldBase Field = 100

// SlotKind distinguishes the three per-slot fields.
type SlotKind int

const (
	SlotKindDueDate SlotKind = iota
	SlotKindPaid
	SlotKindPaidDate
)

func slotField(slot int, kind SlotKind) Field {
	return slotFieldBase + Field((slot-1)*3) + Field(kind)
}

// SlotDueDate is the due date field of slot n (1..11).
func SlotDueDate(n int) Field { return slotField(n, SlotKindDueDate) }

// SlotPaid is the paid flag field of slot n (1..11).
func SlotPaid(n int) Field { return slotField(n, SlotKindPaid) }

// SlotPaidDate is the paid date field of slot n (1..11).
func SlotPaidDate(n int) Field { return slotField(n, SlotKindPaidDate) }

// Slot decomposes a slot field. ok is false for scalar fields.
func (f Field) Slot() (slot int, kind SlotKind, ok bool) {
	if f < slotFieldBase || f >= slotFieldBase+Field(ledger.MaxSlots*3) {
		return 0, 0, false
	}
	off := int(f - slotFieldBase)
	return off/3 + 1, SlotKind(off % 3), true
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	if f >= FieldID && f < lastScalarField {
		return true
	}
	_, _, ok := f.Slot()
	return ok
}

var scalarNames = map[Field]string{
	FieldID:                "id",
	FieldCreatedAt:         "created_at",
	FieldFullName:          "full_name",
	FieldEmail:             "email",
	FieldPhone:             "phone",
	FieldTaxID:             "tax_id",
	FieldCityCountry:       "city_country",
	FieldAdult:             "adult",
	FieldConsentTerms:      "consent_terms",
	FieldConsentWithdrawal: "consent_withdrawal",
	FieldInstallments:      "installments",
	FieldDueDay:            "due_day",
	FieldPerInstallment:    "installment_amount",
	FieldTotal:             "total_amount",
	FieldStatus:            "status",
	FieldCountPaid:         "paid_count",
	FieldAmountPaid:        "amount_paid",
	FieldBalance:           "balance",
	FieldPercentPaid:       "percent_paid",
	FieldLastTransactionID: "last_transaction_id",
}

func (f Field) String() string {
	if name, ok := scalarNames[f]; ok {
		return name
	}
	if slot, kind, ok := f.Slot(); ok {
		switch kind {
		case SlotKindDueDate:
			return fmt.Sprintf("slot_%02d_due_date", slot)
		case SlotKindPaid:
			return fmt.Sprintf("slot_%02d_paid", slot)
		default:
			return fmt.Sprintf("slot_%02d_paid_date", slot)
		}
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ScalarFields lists every non-slot field in declaration order.
func ScalarFields() []Field {
	fields := make([]Field, 0, int(lastScalarField-FieldID))
	for f := FieldID; f < lastScalarField; f++ {
		fields = append(fields, f)
	}
	return fields
}

// AggregateFields lists the fields written by reconciliation.
func AggregateFields() []Field {
	return []Field{FieldCountPaid, FieldAmountPaid, FieldBalance, FieldPercentPaid, FieldStatus}
}

// AllFields lists scalars then every slot's due date, paid flag and paid date.
func AllFields() []Field {
	fields := ScalarFields()
	for n := 1; n <= ledger.MaxSlots; n++ {
		fields = append(fields, SlotDueDate(n), SlotPaid(n), SlotPaidDate(n))
	}
	return fields
}

// Values is a sparse set of field values. Value types by field:
// string for identity fields and the transaction id, time.Time for created_at
// and slot dates (zero clears), bool for consents and paid flags, int for counts,
// due day and percent, ledger.Cents for amounts, ledger.Status for status.
type Values map[Field]any

// Patch is a field-addressed update of one registrant.
type Patch struct {
	ID     string
	Values Values
}

// Get reads field f from r.
func Get(r *Registrant, f Field) any {
	if slot, kind, ok := f.Slot(); ok {
		s := r.Ledger.Slot(slot)
		switch kind {
		case SlotKindDueDate:
			return s.DueDate
		case SlotKindPaid:
			return s.Paid
		default:
			return s.PaidDate
		}
	}
	switch f {
	case FieldID:
		return r.ID
	case FieldCreatedAt:
		return r.CreatedAt
	case FieldFullName:
		return r.FullName
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldTaxID:
		return r.TaxID
	case FieldCityCountry:
		return r.CityCountry
	case FieldAdult:
		return r.Adult
	case FieldConsentTerms:
		return r.ConsentTerms
	case FieldConsentWithdrawal:
		return r.ConsentWithdrawal
	case FieldInstallments:
		return r.Plan.Installments
	case FieldDueDay:
		return r.Plan.DueDay
	case FieldPerInstallment:
		return r.Plan.PerInstallment
	case FieldTotal:
		return r.Plan.Total
	case FieldStatus:
		return r.Aggregates.Status
	case FieldCountPaid:
		return r.Aggregates.CountPaid
	case FieldAmountPaid:
		return r.Aggregates.AmountPaid
	case FieldBalance:
		return r.Aggregates.Balance
	case FieldPercentPaid:
		return r.Aggregates.PercentPaid
	case FieldLastTransactionID:
		if r.LastTransactionID == nil {
			return ""
		}
		return *r.LastTransactionID
	}
	return nil
}

// Apply writes v into field f of r, rejecting values of the wrong type.
func Apply(r *Registrant, f Field, v any) error {
	if slot, kind, ok := f.Slot(); ok {
		s := &r.Ledger.Slots[slot-1]
		s.Number = slot
		switch kind {
		case SlotKindPaid:
			return assign(f, v, &s.Paid)
		case SlotKindDueDate:
			return assign(f, v, &s.DueDate)
		default:
			return assign(f, v, &s.PaidDate)
		}
	}

	switch f {
	case FieldID:
		return assign(f, v, &r.ID)
	case FieldCreatedAt:
		return assign(f, v, &r.CreatedAt)
	case FieldFullName:
		return assign(f, v, &r.FullName)
	case FieldEmail:
		return assign(f, v, &r.Email)
	case FieldPhone:
		return assign(f, v, &r.Phone)
	case FieldTaxID:
		return assign(f, v, &r.TaxID)
	case FieldCityCountry:
		return assign(f, v, &r.CityCountry)
	case FieldAdult:
		return assign(f, v, &r.Adult)
	case FieldConsentTerms:
		return assign(f, v, &r.ConsentTerms)
	case FieldConsentWithdrawal:
		return assign(f, v, &r.ConsentWithdrawal)
	case FieldInstallments:
		return assign(f, v, &r.Plan.Installments)
	case FieldDueDay:
		return assign(f, v, &r.Plan.DueDay)
	case FieldPerInstallment:
		return assign(f, v, &r.Plan.PerInstallment)
	case FieldTotal:
		return assign(f, v, &r.Plan.Total)
	case FieldStatus:
		return assign(f, v, &r.Aggregates.Status)
	case FieldCountPaid:
		return assign(f, v, &r.Aggregates.CountPaid)
	case FieldAmountPaid:
		return assign(f, v, &r.Aggregates.AmountPaid)
	case FieldBalance:
		return assign(f, v, &r.Aggregates.Balance)
	case FieldPercentPaid:
		return assign(f, v, &r.Aggregates.PercentPaid)
	case FieldLastTransactionID:
		var tx string
		if err := assign(f, v, &tx); err != nil {
			return err
		}
		if tx == "" {
			r.LastTransactionID = nil
		} else {
			r.LastTransactionID = &tx
		}
		return nil
	}
	return fmt.Errorf("unknown field %s", f)
}

// ApplyAll applies every value of vals to r.
func ApplyAll(r *Registrant, vals Values) error {
	for f, v := range vals {
		if err := Apply(r, f, v); err != nil {
			return err
		}
	}
	return nil
}

func assign[T any](f Field, v any, dst *T) error {
	typed, ok := v.(T)
	if !ok {
		return fmt.Errorf("field %s: unexpected value type %T", f, v)
	}
	*dst = typed
	return nil
}

// AggregateValues renders reconciled aggregates as field values.
func AggregateValues(agg ledger.Aggregates) Values {
	return Values{
		FieldCountPaid:   agg.CountPaid,
		FieldAmountPaid:  agg.AmountPaid,
		FieldBalance:     agg.Balance,
		FieldPercentPaid: agg.PercentPaid,
		FieldStatus:      agg.Status,
	}
}

// SlotValues renders slot n of r as field values.
func SlotValues(r *Registrant, n int) Values {
	s := r.Ledger.Slot(n)
	return Values{
		SlotDueDate(n):  s.DueDate,
		SlotPaid(n):     s.Paid,
		SlotPaidDate(n): s.PaidDate,
	}
}

// Diff returns the fields among fields whose value in next differs from prev.
func Diff(prev, next *Registrant, fields []Field) Values {
	out := Values{}
	for _, f := range fields {
		a, b := Get(prev, f), Get(next, f)
		if ta, ok := a.(time.Time); ok {
			if tb, ok := b.(time.Time); ok && ta.Equal(tb) {
				continue
			}
		} else if a == b {
			continue
		}
		out[f] = b
	}
	return out
}
