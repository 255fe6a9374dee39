package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field length caps enforced at validation time. Violations are reported as
// row-level errors, never silently truncated.
const (
	MaxNameLength     = 200
	MaxSkuLength      = 100
	MaxCategoryLength = 100
)

// SanitizeText trims the value and neutralizes spreadsheet formula injection:
// a cell starting with = + - @ or a tab/CR would be executed by Excel/Sheets
// when the exported CSV is opened, so it gets a leading apostrophe.
// Never errors; empty input returns "".
func SanitizeText(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// ParseMoney converts an untrusted string (CSV cell, form field) to a
// non-negative decimal. Everything except digits, '.' and '-' is stripped
// before parsing; unparseable input yields the default. Negative prices and
// quantities are never valid in this domain, so the result is clamped to >= 0.
// Never errors.
func ParseMoney(value string, def decimal.Decimal) decimal.Decimal {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.TrimSpace(value) {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return def
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return def
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseInteger is ParseMoney floored to a whole number.
func ParseInteger(value string, def int) int {
	d := ParseMoney(value, decimal.NewFromInt(int64(def)))
	return int(d.Floor().IntPart())
}

// FormatMoney renders a monetary value with two decimal places. Rounding to
// 2dp happens at presentation time only; stored values keep full precision.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
