package models

import (
	"testing"

	"github.com/mmdatafocus/billing_backend/utils"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("biz-1")

	if s.BusinessId != "biz-1" {
		t.Fatalf("business id = %q", s.BusinessId)
	}
	if s.CurrencyCode != "INR" || s.CurrencySymbol != "₹" {
		t.Fatalf("currency = %s/%s, want INR/₹", s.CurrencyCode, s.CurrencySymbol)
	}
	if s.TaxName != "GST" || !s.DefaultTaxRate.Equal(money("18")) {
		t.Fatalf("tax = %s %s, want GST 18", s.TaxName, s.DefaultTaxRate)
	}
	if !utils.DereferencePtr(s.TaxEnabled) {
		t.Fatalf("tax must default to enabled")
	}
	if s.InvoicePrefix != "INV-" || s.BillPrefix != "BILL-" {
		t.Fatalf("prefixes = %s/%s, want INV-/BILL-", s.InvoicePrefix, s.BillPrefix)
	}
	if s.DefaultPaymentTerms != 30 {
		t.Fatalf("payment terms = %d, want 30", s.DefaultPaymentTerms)
	}
	if s.ItemsPerPage != 10 {
		t.Fatalf("items per page = %d, want 10", s.ItemsPerPage)
	}
	if s.DateFormat != "DD/MM/YYYY" {
		t.Fatalf("date format = %q, want DD/MM/YYYY", s.DateFormat)
	}
	for name, toggle := range map[string]*bool{
		"notify_low_stock":         s.NotifyLowStock,
		"notify_document_created":  s.NotifyDocumentCreated,
		"show_profit_on_dashboard": s.ShowProfitOnDashboard,
	} {
		if !utils.DereferencePtr(toggle) {
			t.Fatalf("toggle %s must default to true", name)
		}
	}
}

func TestEffectiveTaxRate(t *testing.T) {
	s := DefaultSettings("biz-1")
	if !s.EffectiveTaxRate().Equal(money("18")) {
		t.Fatalf("enabled rate = %s, want 18", s.EffectiveTaxRate())
	}

	f := false
	s.TaxEnabled = &f
	if !s.EffectiveTaxRate().IsZero() {
		t.Fatalf("disabled rate = %s, want 0", s.EffectiveTaxRate())
	}

	var nilSettings *Settings
	if !nilSettings.EffectiveTaxRate().IsZero() {
		t.Fatalf("nil settings rate must be 0")
	}
}

func TestDocumentPrefix(t *testing.T) {
	s := DefaultSettings("biz-1")
	if got := s.DocumentPrefix(DocumentTypeInvoice); got != "INV-" {
		t.Fatalf("invoice prefix = %q", got)
	}
	if got := s.DocumentPrefix(DocumentTypeBill); got != "BILL-" {
		t.Fatalf("bill prefix = %q", got)
	}
}
