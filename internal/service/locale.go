package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoAmount = errors.New("no parseable amount")
	ErrNoDate   = errors.New("no parseable date")
)

// ParseCurrency normalizes Brazilian-formatted currency text to a number:
// "R$ 1.234,56" -> 1234.56. Decimal arithmetic is used so "R$ 0,10" style
// values do not pick up float artifacts before the final conversion.
func ParseCurrency(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return 0, ErrNoAmount
	}

	switch {
	case strings.Contains(s, ","):
		// Brazilian form: "." separates thousands, "," is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		// "1.234.567" with no comma: all dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ".") == 1:
		// A single dot followed by exactly three digits is a thousands
		// separator ("1.234"); anything else is a decimal point.
		if idx := strings.Index(s, "."); len(s)-idx-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, nil
}

// Month-name tokens accepted in dates, Portuguese and English, three-letter
// prefixes. "mai"/"may" and friends overlap safely.
var monthNames = map[string]time.Month{
	"jan": time.January, "fev": time.February, "feb": time.February,
	"mar": time.March, "abr": time.April, "apr": time.April,
	"mai": time.May, "may": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "aug": time.August,
	"set": time.September, "sep": time.September, "out": time.October,
	"oct": time.October, "nov": time.November, "dez": time.December,
	"dec": time.December,
}

// ParseDate normalizes the date shapes found in Brazilian financial
// spreadsheets: day-first numeric ("15/09/2024", "7-3-24"), month-name
// ("23/Oct/20", "05 mar 2024") and ISO ("2024-09-15"). Ambiguous two-digit
// years resolve to the current century.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrNoDate
	}

	// ISO first: unambiguous.
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	// Spreadsheet cells sometimes carry a full timestamp.
	if t, err := time.Parse("2006-01-02T15:04:05Z07:00", s); err == nil {
		return t.Truncate(24 * time.Hour), nil
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.' || r == ' '
	})
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, raw)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, raw)
	}

	var month time.Month
	if m, ok := monthNames[strings.ToLower(trimTo(parts[1], 3))]; ok {
		month = m
	} else {
		mNum, err := strconv.Atoi(parts[1])
		if err != nil || mNum < 1 || mNum > 12 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, raw)
		}
		month = time.Month(mNum)
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, raw)
	}
	if year < 100 {
		// Two-digit years belong to the current century, not the POSIX
		// 69/68 window.
		year += (time.Now().Year() / 100) * 100
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/02 -> 03/03); reject that.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, raw)
	}
	return t, nil
}

func trimTo(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
