package models

import (
	"github.com/shopspring/decimal"
)

// DocumentTotals is the derived money triple stored on every document.
// Values keep exact decimal semantics; rounding to 2dp happens at
// presentation time only.
type DocumentTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ItemAmount = quantity × unit price.
func ItemAmount(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// isCommittedItem reports whether a line item counts toward totals.
// Zero-quantity/zero-price placeholder rows are allowed while editing but
// never contribute to (or get persisted with) the document.
func isCommittedItem(item NewDocumentItem) bool {
	return item.Description != "" && item.Quantity > 0 && unitPricePositive(item.UnitPrice)
}

func unitPricePositive(price decimal.Decimal) bool {
	return price.Sign() > 0
}

// committedItems filters the input down to the rows that will be persisted.
func committedItems(items []NewDocumentItem) []NewDocumentItem {
	var committed []NewDocumentItem
	for _, item := range items {
		if isCommittedItem(item) {
			committed = append(committed, item)
		}
	}
	return committed
}

// CalculateDocumentTotals computes subtotal/tax/total over the committed
// line items. taxRate is a percentage (18 means 18%). Totals are never
// negative given the non-negative quantity/price invariants.
func CalculateDocumentTotals(items []NewDocumentItem, taxRate decimal.Decimal) DocumentTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		if !isCommittedItem(item) {
			continue
		}
		subtotal = subtotal.Add(ItemAmount(item.Quantity, item.UnitPrice))
	}

	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100))

	return DocumentTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// resolveTaxRate picks the effective percentage for a document: an explicit
// per-document override wins, otherwise the account settings decide
// (configured rate when tax is enabled, zero when disabled).
func resolveTaxRate(settings *Settings, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		if override.IsNegative() {
			return decimal.Zero
		}
		return *override
	}
	return settings.EffectiveTaxRate()
}
