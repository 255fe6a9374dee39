package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateDocumentTotalsFiltersUncommittedItems(t *testing.T) {
	items := []NewDocumentItem{
		{Description: "chair", Quantity: 2, UnitPrice: money("50")},
		{Description: "", Quantity: 3, UnitPrice: money("10")},     // no description
		{Description: "desk", Quantity: 0, UnitPrice: money("99")}, // zero quantity
		{Description: "lamp", Quantity: 1, UnitPrice: money("0")},  // zero price
	}

	totals := CalculateDocumentTotals(items, decimal.Zero)
	if !totals.Subtotal.Equal(money("100")) {
		t.Fatalf("subtotal = %s, want 100", totals.Subtotal)
	}
	if !totals.Tax.IsZero() {
		t.Fatalf("tax = %s, want 0", totals.Tax)
	}
	if !totals.Total.Equal(totals.Subtotal) {
		t.Fatalf("total = %s, want subtotal %s", totals.Total, totals.Subtotal)
	}
}

func TestCalculateDocumentTotalsWithTax(t *testing.T) {
	items := []NewDocumentItem{
		{Description: "chair", Quantity: 2, UnitPrice: money("50")},
		{Description: "desk", Quantity: 1, UnitPrice: money("150")},
	}

	totals := CalculateDocumentTotals(items, decimal.NewFromInt(18))
	if !totals.Subtotal.Equal(money("250")) {
		t.Fatalf("subtotal = %s, want 250", totals.Subtotal)
	}
	if !totals.Tax.Equal(money("45")) {
		t.Fatalf("tax = %s, want 45", totals.Tax)
	}
	if !totals.Total.Equal(money("295")) {
		t.Fatalf("total = %s, want 295", totals.Total)
	}
	if totals.Total.LessThan(totals.Subtotal) {
		t.Fatalf("total %s < subtotal %s", totals.Total, totals.Subtotal)
	}
}

func TestCalculateDocumentTotalsEmpty(t *testing.T) {
	totals := CalculateDocumentTotals(nil, decimal.NewFromInt(18))
	if !totals.Subtotal.IsZero() || !totals.Tax.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("empty items must yield zero totals, got %+v", totals)
	}
}

func TestResolveTaxRate(t *testing.T) {
	settings := DefaultSettings("biz-1")

	// settings rate when no override
	if got := resolveTaxRate(&settings, nil); !got.Equal(money("18")) {
		t.Fatalf("default rate = %s, want 18", got)
	}

	// tax disabled yields zero
	disabled := DefaultSettings("biz-1")
	f := false
	disabled.TaxEnabled = &f
	if got := resolveTaxRate(&disabled, nil); !got.IsZero() {
		t.Fatalf("disabled rate = %s, want 0", got)
	}

	// explicit override wins over settings, including over disabled tax
	override := money("10")
	if got := resolveTaxRate(&disabled, &override); !got.Equal(money("10")) {
		t.Fatalf("override rate = %s, want 10", got)
	}

	// negative override clamps to zero
	neg := money("-5")
	if got := resolveTaxRate(&settings, &neg); !got.IsZero() {
		t.Fatalf("negative override rate = %s, want 0", got)
	}
}

func TestItemAmount(t *testing.T) {
	if got := ItemAmount(4, money("100")); !got.Equal(money("400")) {
		t.Fatalf("ItemAmount(4, 100) = %s, want 400", got)
	}
	if got := ItemAmount(3, money("0.10")); !got.Equal(money("0.30")) {
		t.Fatalf("ItemAmount(3, 0.10) = %s, want 0.30", got)
	}
}
