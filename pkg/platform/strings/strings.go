// Package strings provides string helpers shared by config parsing and input
// normalization.
package strings

import (
	"strings"
	"unicode"
)

// SplitList splits each value on commas, trims the parts and drops blanks and
// duplicates. Order is preserved.
//
//	SplitList([]string{"a, b", "a,,c"}) // []string{"a", "b", "c"}
func SplitList(values []string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return DedupeAndTrim(parts)
}

// DedupeAndTrim removes duplicates and empty strings, trimming whitespace from
// each element. Order is preserved; a nil or empty input is returned unchanged.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// DigitsOnly drops every non-digit rune: "(11) 98765-4321" -> "11987654321".
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
}
