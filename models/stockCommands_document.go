package models

import (
	"fmt"

	"github.com/mmdatafocus/billing_backend/config"
	"gorm.io/gorm"
)

type StockAdjustmentOutcome string

const (
	StockAdjustmentFull    StockAdjustmentOutcome = "full"
	StockAdjustmentPartial StockAdjustmentOutcome = "partial"
	StockAdjustmentFailed  StockAdjustmentOutcome = "failed"
)

// FailedStockItem records one line item whose quantity delta could not be
// applied, so callers can report exactly what was skipped.
type FailedStockItem struct {
	DocumentItemId int    `json:"document_item_id"`
	ProductId      int    `json:"product_id"`
	Delta          int64  `json:"delta"`
	Reason         string `json:"reason"`
}

// StockAdjustmentResult distinguishes fully applied, partially applied
// (with the skipped items) and failed adjustments instead of collapsing
// to a boolean.
type StockAdjustmentResult struct {
	Outcome     StockAdjustmentOutcome `json:"outcome"`
	Adjusted    int                    `json:"adjusted"`
	FailedItems []FailedStockItem      `json:"failed_items,omitempty"`
}

// stockSignForTransition returns the per-unit sign for a status change.
// Cancellation reverses the creation-time adjustment exactly; reactivation
// re-applies it. Same-status transitions carry no stock effect.
func stockSignForTransition(docType DocumentType, oldStatus DocumentStatus, newStatus DocumentStatus) int64 {
	if oldStatus == newStatus {
		return 0
	}
	switch {
	case oldStatus == DocumentStatusActive && newStatus == DocumentStatusCancelled:
		return -docType.StockSign()
	case oldStatus == DocumentStatusCancelled && newStatus == DocumentStatusActive:
		return docType.StockSign()
	}
	return 0
}

// adjustProductQuantity applies one atomic quantity delta. Decrements carry
// a quantity >= |delta| guard so stock never goes negative; a guarded update
// that matches no row reports as a failure, not a clamp.
func adjustProductQuantity(tx *gorm.DB, businessId string, productId int, delta int64) error {
	if delta == 0 {
		return nil
	}

	query := tx.Model(&Product{}).Where("business_id = ? AND id = ?", businessId, productId)
	if delta < 0 {
		query = query.Where("quantity >= ?", -delta)
	}
	result := query.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if delta < 0 {
			return fmt.Errorf("insufficient stock for product %d (needs %d)", productId, -delta)
		}
		return fmt.Errorf("product %d not found", productId)
	}
	return nil
}

// applyDocumentStockForCreation applies the creation-time adjustment for
// every product-bound item, all-or-nothing within the caller's transaction.
func applyDocumentStockForCreation(tx *gorm.DB, document *Document) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if document == nil {
		return fmt.Errorf("document is nil")
	}

	sign := document.Type.StockSign()
	for _, item := range document.Items {
		if item.ProductId == nil || *item.ProductId <= 0 {
			continue
		}
		if err := adjustProductQuantity(tx, document.BusinessId, *item.ProductId, sign*item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDocumentStockForStatusTransition reconciles product quantities when a
// document changes status, inside the caller's transaction. A single item
// failing is logged and skipped so one bad row never blocks the rest; the
// result tells the caller exactly how far it got.
func ApplyDocumentStockForStatusTransition(tx *gorm.DB, document *Document, oldStatus DocumentStatus) (*StockAdjustmentResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx is nil")
	}
	if document == nil {
		return nil, fmt.Errorf("document is nil")
	}

	result := &StockAdjustmentResult{Outcome: StockAdjustmentFull}

	sign := stockSignForTransition(document.Type, oldStatus, document.Status)
	if sign == 0 {
		return result, nil
	}

	logger := config.GetLogger()
	attempted := 0
	for _, item := range document.Items {
		if item.ProductId == nil || *item.ProductId <= 0 {
			continue
		}
		attempted++
		delta := sign * item.Quantity
		if err := adjustProductQuantity(tx, document.BusinessId, *item.ProductId, delta); err != nil {
			config.LogError(logger, "stockCommands_document.go", "ApplyDocumentStockForStatusTransition",
				"skipping item adjustment", item.ID, err)
			result.FailedItems = append(result.FailedItems, FailedStockItem{
				DocumentItemId: item.ID,
				ProductId:      *item.ProductId,
				Delta:          delta,
				Reason:         err.Error(),
			})
			continue
		}
		result.Adjusted++
	}

	switch {
	case len(result.FailedItems) == 0:
		result.Outcome = StockAdjustmentFull
	case result.Adjusted == 0 && attempted > 0:
		result.Outcome = StockAdjustmentFailed
	default:
		result.Outcome = StockAdjustmentPartial
	}
	return result, nil
}
