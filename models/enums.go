package models

type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeBill    DocumentType = "bill"
)

func (t DocumentType) Valid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeBill
}

// StockSign is the creation-time inventory direction: a bill brings stock in,
// an invoice ships stock out.
func (t DocumentType) StockSign() int64 {
	if t == DocumentTypeBill {
		return 1
	}
	return -1
}

type DocumentStatus string

const (
	DocumentStatusActive    DocumentStatus = "active"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

func (s DocumentStatus) Valid() bool {
	return s == DocumentStatusActive || s == DocumentStatusCancelled
}

// Change-event actions published on the table-change topic.
const (
	ChangeActionCreate       = "create"
	ChangeActionUpdate       = "update"
	ChangeActionDelete       = "delete"
	ChangeActionStatusChange = "status_change"
)
