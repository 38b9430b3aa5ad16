package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
)

// Header names as they appear in row 1 of the registrations sheet.
var scalarHeaders = map[models.Field]string{
	models.FieldID:                "id_inscricao",
	models.FieldCreatedAt:         "data_inscricao",
	models.FieldFullName:          "nome_completo",
	models.FieldEmail:             "email",
	models.FieldPhone:             "telefone",
	models.FieldTaxID:             "cpf",
	models.FieldCityCountry:       "cidade_pais",
	models.FieldAdult:             "maior_idade",
	models.FieldConsentTerms:      "aceite_termo_lgpd",
	models.FieldConsentWithdrawal: "aceite_termo_desistencia",
	models.FieldInstallments:      "numero_parcelas",
	models.FieldDueDay:            "dia_vencimento",
	models.FieldPerInstallment:    "valor_parcela",
	models.FieldTotal:             "valor_total",
	models.FieldStatus:            "status_pagamento",
	models.FieldCountPaid:         "total_parcelas_pagas",
	models.FieldAmountPaid:        "valor_total_pago",
	models.FieldBalance:           "saldo_devedor",
	models.FieldPercentPaid:       "percentual_pago",
	models.FieldLastTransactionID: "id_transacao",
}

// HeaderName returns the column header holding f.
func HeaderName(f models.Field) string {
	if name, ok := scalarHeaders[f]; ok {
		return name
	}
	slot, kind, ok := f.Slot()
	if !ok {
		return ""
	}
	switch kind {
	case models.SlotKindDueDate:
		return fmt.Sprintf("data_pagamento_%02d", slot)
	case models.SlotKindPaid:
		return fmt.Sprintf("parcela_%02d_paga", slot)
	default:
		return fmt.Sprintf("data_paga_%02d", slot)
	}
}

// Header is the full row 1 of a freshly created sheet.
func Header() []string {
	fields := models.AllFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = HeaderName(f)
	}
	return out
}

var statusLabels = map[ledger.Status]string{
	ledger.StatusPending: "PENDENTE",
	ledger.StatusPartial: "PARCIAL",
	ledger.StatusPaid:    "PAGO",
}

// encode renders a field value as a RAW cell.
func encode(f models.Field, v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if _, kind, ok := f.Slot(); ok && kind == models.SlotKindPaid {
			if val {
				return "1"
			}
			return ""
		}
		if val {
			return "sim"
		}
		return "não"
	case int:
		return val
	case ledger.Cents:
		return val.Float()
	case ledger.Status:
		if label, ok := statusLabels[val]; ok {
			return label
		}
		return string(val)
	case time.Time:
		if f == models.FieldCreatedAt {
			if val.IsZero() {
				return ""
			}
			return val.UTC().Format(time.RFC3339)
		}
		return ledger.FormatDate(val)
	}
	return fmt.Sprint(v)
}

// decode converts a cell into the value type models.Apply expects for f.
// Unparseable cells decode to the zero value.
func decode(f models.Field, cell any) any {
	if _, kind, ok := f.Slot(); ok {
		if kind == models.SlotKindPaid {
			return truthy(cell)
		}
		return decodeDate(cell)
	}
	switch f {
	case models.FieldAdult, models.FieldConsentTerms, models.FieldConsentWithdrawal:
		return truthy(cell)
	case models.FieldInstallments, models.FieldDueDay, models.FieldCountPaid, models.FieldPercentPaid:
		return decodeInt(cell)
	case models.FieldPerInstallment, models.FieldTotal, models.FieldAmountPaid, models.FieldBalance:
		return decodeCents(cell)
	case models.FieldStatus:
		return decodeStatus(cellString(cell))
	case models.FieldTaxID:
		// numeric cells drop the leading zeros of a CPF
		if v, ok := cell.(float64); ok {
			return fmt.Sprintf("%011.0f", v)
		}
		return cellString(cell)
	case models.FieldCreatedAt:
		s := cellString(cell)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		return decodeDate(cell)
	}
	return cellString(cell)
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return strings.TrimSpace(fmt.Sprint(cell))
}

func truthy(cell any) bool {
	switch strings.ToLower(cellString(cell)) {
	case "1", "true", "sim", "yes", "x":
		return true
	}
	return false
}

func decodeInt(cell any) int {
	s := cellString(cell)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func decodeCents(cell any) ledger.Cents {
	if v, ok := cell.(float64); ok {
		return ledger.FromFloat(v)
	}
	s := cellString(cell)
	if s == "" {
		return 0
	}
	c, err := ledger.ParseCents(s)
	if err != nil {
		return 0
	}
	return c
}

// Spreadsheet serial dates count days from 1899-12-30.
var serialEpoch = ledger.Date(1899, time.December, 30)

func decodeDate(cell any) time.Time {
	if v, ok := cell.(float64); ok && v > 0 {
		return serialEpoch.AddDate(0, 0, int(math.Floor(v)))
	}
	t, ok := ledger.ParseDate(cellString(cell))
	if !ok {
		return time.Time{}
	}
	return t
}

func decodeStatus(s string) ledger.Status {
	switch strings.ToUpper(s) {
	case "PAGO", string(ledger.StatusPaid):
		return ledger.StatusPaid
	case "PARCIAL", string(ledger.StatusPartial):
		return ledger.StatusPartial
	case "PENDENTE", string(ledger.StatusPending):
		return ledger.StatusPending
	}
	return ledger.Status("")
}
