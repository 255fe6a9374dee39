package models_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/models"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
)

var integrationOnce sync.Once

// integrationCtx connects to the MySQL/Redis instances named by the usual
// DB_*/REDIS_ADDRESS env vars, runs migrations once, and returns a context
// scoped to a fresh business.
func integrationCtx(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires mysql + redis)")
	}

	integrationOnce.Do(func() {
		config.ConnectDatabaseWithRetry()
		config.ConnectRedisWithRetry()
		models.MigrateTable()
	})

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{Name: "Stock Test Co"})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	return utils.SetBusinessIdInContext(ctx, biz.ID)
}

func mustCreateProduct(t *testing.T, ctx context.Context, name string, qty int64) *models.Product {
	t.Helper()
	p, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:          name,
		Quantity:      qty,
		PurchasePrice: decimal.NewFromInt(60),
		UnitPrice:     decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateProduct %s: %v", name, err)
	}
	return p
}

func productQty(t *testing.T, ctx context.Context, id int) int64 {
	t.Helper()
	p, err := models.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("GetProduct %d: %v", id, err)
	}
	return p.Quantity
}

// A bill adds stock on creation; cancelling it restores the pre-creation
// baseline and leaves the document cancelled.
func TestBillCreateThenCancelRestoresBaseline(t *testing.T) {
	ctx := integrationCtx(t)

	a := mustCreateProduct(t, ctx, "Product A", 5)
	b := mustCreateProduct(t, ctx, "Product B", 3)

	doc, err := models.CreateDocument(ctx, &models.NewDocument{
		Type:         models.DocumentTypeBill,
		CustomerName: "Acme Supplies",
		Items: []models.NewDocumentItem{
			{ProductId: &a.ID, Description: "A", Quantity: 5, UnitPrice: decimal.NewFromInt(80)},
			{ProductId: &b.ID, Description: "B", Quantity: 3, UnitPrice: decimal.NewFromInt(90)},
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.Status != models.DocumentStatusActive {
		t.Fatalf("new document status = %s, want active", doc.Status)
	}
	if !strings.HasPrefix(doc.DocumentNumber, "BILL-") {
		t.Fatalf("bill number = %q, want BILL- prefix", doc.DocumentNumber)
	}

	if got := productQty(t, ctx, a.ID); got != 10 {
		t.Fatalf("A after bill = %d, want 10", got)
	}
	if got := productQty(t, ctx, b.ID); got != 6 {
		t.Fatalf("B after bill = %d, want 6", got)
	}

	cancelled, stock, err := models.UpdateDocumentStatus(ctx, doc.ID, models.DocumentStatusCancelled)
	if err != nil {
		t.Fatalf("UpdateDocumentStatus: %v", err)
	}
	if cancelled.Status != models.DocumentStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if stock.Outcome != models.StockAdjustmentFull {
		t.Fatalf("stock outcome = %s, want full", stock.Outcome)
	}

	if got := productQty(t, ctx, a.ID); got != 5 {
		t.Fatalf("A after cancel = %d, want baseline 5", got)
	}
	if got := productQty(t, ctx, b.ID); got != 3 {
		t.Fatalf("B after cancel = %d, want baseline 3", got)
	}

	// Cancelling again is a no-op on stock.
	_, stock, err = models.UpdateDocumentStatus(ctx, doc.ID, models.DocumentStatusCancelled)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if stock.Outcome != models.StockAdjustmentFull || stock.Adjusted != 0 {
		t.Fatalf("second cancel adjusted stock: %+v", stock)
	}
	if got := productQty(t, ctx, a.ID); got != 5 {
		t.Fatalf("A after double cancel = %d, want 5", got)
	}
}

// Reactivating a cancelled invoice re-applies the creation-time adjustment.
func TestInvoiceCancelReactivateIsSymmetric(t *testing.T) {
	ctx := integrationCtx(t)

	p := mustCreateProduct(t, ctx, "Widget", 10)

	doc, err := models.CreateDocument(ctx, &models.NewDocument{
		Type:         models.DocumentTypeInvoice,
		CustomerName: "Jane Buyer",
		Items: []models.NewDocumentItem{
			{ProductId: &p.ID, Description: "Widget", Quantity: 4, UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if got := productQty(t, ctx, p.ID); got != 6 {
		t.Fatalf("after invoice = %d, want 6", got)
	}

	if _, _, err := models.UpdateDocumentStatus(ctx, doc.ID, models.DocumentStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := productQty(t, ctx, p.ID); got != 10 {
		t.Fatalf("after cancel = %d, want 10", got)
	}

	if _, _, err := models.UpdateDocumentStatus(ctx, doc.ID, models.DocumentStatusActive); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if got := productQty(t, ctx, p.ID); got != 6 {
		t.Fatalf("after reactivate = %d, want 6", got)
	}
}

// An invoice that would drive stock negative fails at creation and persists
// nothing.
func TestInvoiceInsufficientStockRollsBack(t *testing.T) {
	ctx := integrationCtx(t)

	p := mustCreateProduct(t, ctx, "Scarce", 2)

	_, err := models.CreateDocument(ctx, &models.NewDocument{
		Type:         models.DocumentTypeInvoice,
		CustomerName: "Jane Buyer",
		Items: []models.NewDocumentItem{
			{ProductId: &p.ID, Description: "Scarce", Quantity: 5, UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err == nil {
		t.Fatalf("expected insufficient-stock error")
	}
	if got := productQty(t, ctx, p.ID); got != 2 {
		t.Fatalf("quantity after failed invoice = %d, want 2", got)
	}

	docs, err := models.ListDocuments(ctx, models.DocumentFilter{})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("failed create left %d documents behind", len(docs))
	}
}

// The stock lock must stay held until the caller releases it; a concurrent
// attempt on the same business fails while the first holder is inside the
// critical section.
func TestBusinessLockHeldUntilReleased(t *testing.T) {
	ctx := integrationCtx(t)
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	release, err := utils.BusinessLock(ctx, businessId, "stockLock", "document_stock_integration_test.go", "TestBusinessLockHeldUntilReleased")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := utils.BusinessLock(ctx, businessId, "stockLock", "document_stock_integration_test.go", "TestBusinessLockHeldUntilReleased"); err == nil {
		t.Fatalf("second lock obtained while the first was still held")
	}

	release()
	release2, err := utils.BusinessLock(ctx, businessId, "stockLock", "document_stock_integration_test.go", "TestBusinessLockHeldUntilReleased")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	release2()
}

// Importing a sku already taken by a stored product reports a row error
// instead of silently duplicating it.
func TestImportRejectsExistingSku(t *testing.T) {
	ctx := integrationCtx(t)

	if _, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Existing", Sku: "DUP-1"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	csvData := "name,sku\nFresh,NEW-1\nClash,DUP-1\n"
	result, err := models.ImportProductsCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported = %d, want 1", result.Imported)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "DUP-1") || !strings.Contains(result.Errors[0], "Row 3") {
		t.Fatalf("errors = %v", result.Errors)
	}
}
