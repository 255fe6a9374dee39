package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain trims", " plain ", "plain"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"formula equals", "=SUM(A1)", "'=SUM(A1)"},
		{"formula plus", "+1+1", "'+1+1"},
		{"formula minus", "-2+3", "'-2+3"},
		{"formula at", "@cmd", "'@cmd"},
		{"leading tab after trim is gone", "\thello", "hello"},
		{"inner equals untouched", "a=b", "a=b"},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.input); got != tc.want {
			t.Fatalf("%s: SanitizeText(%q) = %q, want %q", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		name  string
		input string
		def   decimal.Decimal
		want  string
	}{
		{"plain", "12.50", decimal.Zero, "12.5"},
		{"currency noise stripped", "₹1,234.56", decimal.Zero, "1234.56"},
		{"garbage returns default", "abc", decimal.NewFromInt(7), "7"},
		{"empty returns default", "", decimal.NewFromInt(3), "3"},
		{"negative clamps to zero", "-5.00", decimal.Zero, "0"},
		{"multiple dots returns default", "1.2.3", decimal.NewFromInt(9), "9"},
	}
	for _, tc := range cases {
		got := ParseMoney(tc.input, tc.def)
		if got.String() != tc.want {
			t.Fatalf("%s: ParseMoney(%q) = %s, want %s", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestParseMoneyFormatRoundTrip(t *testing.T) {
	// parseMoney(formatMoney(x)) == round(x, 2) for non-negative x
	values := []string{"0", "0.005", "1", "12.345", "99.999", "1234.56"}
	for _, v := range values {
		x := decimal.RequireFromString(v)
		got := ParseMoney(FormatMoney(x), decimal.Zero)
		want := x.Round(2)
		if !got.Equal(want) {
			t.Fatalf("round trip of %s: got %s, want %s", v, got, want)
		}
	}
}

func TestParseInteger(t *testing.T) {
	cases := []struct {
		input string
		def   int
		want  int
	}{
		{"12", 0, 12},
		{"12.9", 0, 12},
		{"-4", 0, 0},
		{"", 5, 5},
		{"n/a", 3, 3},
	}
	for _, tc := range cases {
		if got := ParseInteger(tc.input, tc.def); got != tc.want {
			t.Fatalf("ParseInteger(%q, %d) = %d, want %d", tc.input, tc.def, got, tc.want)
		}
	}
}
