package models

import "testing"

func TestStockSignForTransition(t *testing.T) {
	cases := []struct {
		name    string
		docType DocumentType
		from    DocumentStatus
		to      DocumentStatus
		want    int64
	}{
		{"bill cancel reverses incoming stock", DocumentTypeBill, DocumentStatusActive, DocumentStatusCancelled, -1},
		{"invoice cancel restores shipped stock", DocumentTypeInvoice, DocumentStatusActive, DocumentStatusCancelled, 1},
		{"bill reactivation re-applies incoming stock", DocumentTypeBill, DocumentStatusCancelled, DocumentStatusActive, 1},
		{"invoice reactivation re-ships stock", DocumentTypeInvoice, DocumentStatusCancelled, DocumentStatusActive, -1},
		{"cancelling a cancelled bill is a no-op", DocumentTypeBill, DocumentStatusCancelled, DocumentStatusCancelled, 0},
		{"activating an active invoice is a no-op", DocumentTypeInvoice, DocumentStatusActive, DocumentStatusActive, 0},
	}
	for _, tc := range cases {
		if got := stockSignForTransition(tc.docType, tc.from, tc.to); got != tc.want {
			t.Fatalf("%s: sign = %d, want %d", tc.name, got, tc.want)
		}
	}
}

// A cancel followed by a reactivation must be a net-zero stock change.
func TestTransitionSignsAreSymmetric(t *testing.T) {
	for _, docType := range []DocumentType{DocumentTypeInvoice, DocumentTypeBill} {
		cancel := stockSignForTransition(docType, DocumentStatusActive, DocumentStatusCancelled)
		reactivate := stockSignForTransition(docType, DocumentStatusCancelled, DocumentStatusActive)
		if cancel+reactivate != 0 {
			t.Fatalf("%s: cancel %d + reactivate %d != 0", docType, cancel, reactivate)
		}
		// cancellation is the exact inverse of the creation-time adjustment
		if cancel != -docType.StockSign() {
			t.Fatalf("%s: cancel sign %d does not invert creation sign %d", docType, cancel, docType.StockSign())
		}
	}
}

func TestDocumentTypeStockSign(t *testing.T) {
	if DocumentTypeBill.StockSign() != 1 {
		t.Fatalf("bill must increase stock")
	}
	if DocumentTypeInvoice.StockSign() != -1 {
		t.Fatalf("invoice must decrease stock")
	}
}
