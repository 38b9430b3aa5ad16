// Package contact validates Brazilian phone numbers and CPF tax ids.
package contact

import (
	dErrors "enroll/pkg/domain-errors"
	platstrings "enroll/pkg/platform/strings"
)

// Phone is a Brazilian phone split into its two-digit area code and local number.
type Phone struct {
	Area   string
	Number string
}

// String renders the phone as digits only.
func (p Phone) String() string { return p.Area + p.Number }

// ParsePhone strips formatting and accepts 10 or 11 digits (area code plus an 8 or
// 9 digit number).
func ParsePhone(raw string) (Phone, error) {
	digits := platstrings.DigitsOnly(raw)
	if len(digits) < 10 || len(digits) > 11 {
		return Phone{}, dErrors.New(dErrors.CodeValidation, "phone must have 10 or 11 digits including area code")
	}
	p := Phone{Area: digits[:2], Number: digits[2:]}
	if len(p.Number) < 8 || len(p.Number) > 9 {
		return Phone{}, dErrors.New(dErrors.CodeValidation, "phone number must have 8 or 9 digits after the area code")
	}
	return p, nil
}

// NormalizeTaxID strips formatting from a CPF and requires exactly 11 digits.
func NormalizeTaxID(raw string) (string, error) {
	digits := platstrings.DigitsOnly(raw)
	if len(digits) != 11 {
		return "", dErrors.New(dErrors.CodeValidation, "tax id must have 11 digits")
	}
	return digits, nil
}
