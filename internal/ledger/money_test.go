package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsDiv(t *testing.T) {
	tests := []struct {
		total Cents
		n     int
		want  Cents
	}{
		{45000, 3, 15000},
		{45000, 7, 6429},
		{45000, 11, 4091},
		{100, 8, 13}, // 12.5 rounds away from zero
		{-100, 8, -13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.total.Div(tt.n), "%d/%d", tt.total, tt.n)
	}
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "450.00", Cents(45000).String())
	assert.Equal(t, "64.29", Cents(6429).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-0.03", Cents(-3).String())
}

func TestParseCents(t *testing.T) {
	tests := map[string]Cents{
		"450":         45000,
		"450.00":      45000,
		"64,29":       6429,
		"R$ 1.234,56": 123456,
		"1,234.56":    123456,
		"0.5":         50,
		"64.285":      6429,
		"-3.00":       -300,
	}
	for in, want := range tests {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "1.x"} {
		_, err := ParseCents(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromFloat(t *testing.T) {
	assert.Equal(t, Cents(6429), FromFloat(64.29))
	assert.Equal(t, Cents(45003), FromFloat(450.03))
}
