package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"R$ 1.234,56", 1234.56},
		{"R$ 50", 50},
		{"1234.56", 1234.56},
		{"1.234.567", 1234567},
		{"1.234", 1234},
		{"12.34", 12.34},
		{"0,10", 0.10},
		{"-250,00", -250},
		{"(1.000,00)", -1000},
		{"R$ 185.000,00", 185000},
	}
	for _, tc := range tests {
		got, err := ParseCurrency(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 0.001, "input %q", tc.in)
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "R$", "total"} {
		_, err := ParseCurrency(in)
		assert.ErrorIs(t, err, ErrNoAmount, "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15/09/2024", time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-09-15", time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)},
		{"7-3-2024", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"23/Oct/20", time.Date(2020, 10, 23, 0, 0, 0, 0, time.UTC)},
		{"05 mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"01/dez/2023", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseDate_TwoDigitYearIsCurrentCentury(t *testing.T) {
	got, err := ParseDate("10/06/24")
	require.NoError(t, err)
	century := (time.Now().Year() / 100) * 100
	assert.Equal(t, century+24, got.Year())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "notadate", "32/01/2024", "15/13/2024", "31/02/2024", "15/09"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrNoDate, "input %q", in)
	}
}
