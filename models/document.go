package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
)

// Document generalizes Invoice (sales, stock-decreasing) and Bill
// (purchase, stock-increasing). Totals are computed atomically at creation
// and immutable afterwards; only status may change.
type Document struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;size:36;not null" json:"business_id"`
	Type           DocumentType    `gorm:"type:enum('invoice','bill');not null" json:"type"`
	SequenceNo     int64           `gorm:"index;not null" json:"sequence_no"`
	DocumentNumber string          `gorm:"size:50;not null" json:"document_number"`
	ClientId       *int            `gorm:"index" json:"client_id"`
	CustomerName   string          `gorm:"size:200;not null" json:"customer_name"`
	CustomerEmail  string          `gorm:"size:200" json:"customer_email"`
	Date           time.Time       `gorm:"not null" json:"date"`
	Status         DocumentStatus  `gorm:"type:enum('active','cancelled');not null;default:'active'" json:"status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Total          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Items          []DocumentItem  `gorm:"foreignkey:DocumentId" json:"items"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type DocumentItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	DocumentId  int             `gorm:"index;not null" json:"document_id"`
	BusinessId  string          `gorm:"index;size:36;not null" json:"business_id"`
	ProductId   *int            `gorm:"index" json:"product_id"`
	Description string          `gorm:"size:200;not null" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDocumentItem struct {
	ProductId   *int            `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type NewDocument struct {
	Type            DocumentType      `json:"type" binding:"required"`
	ClientId        *int              `json:"client_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	Date            time.Time         `json:"date"`
	Notes           string            `json:"notes"`
	TaxRateOverride *decimal.Decimal  `json:"tax_rate_override"`
	Items           []NewDocumentItem `json:"items" binding:"required"`
}

func (input *NewDocument) validate(ctx context.Context, businessId string) error {
	if !input.Type.Valid() {
		return errors.New("document type must be invoice or bill")
	}
	if len(input.CustomerName) > utils.MaxNameLength {
		return fmt.Errorf("customer name must not exceed %d characters", utils.MaxNameLength)
	}
	if input.CustomerEmail != "" && !utils.IsValidEmail(input.CustomerEmail) {
		return errors.New("invalid customer email")
	}
	if input.ClientId != nil {
		if err := utils.ValidateResourceId[Client](ctx, businessId, *input.ClientId); err != nil {
			return errors.New("client not found")
		}
	}
	for _, item := range input.Items {
		if item.Quantity < 0 || item.UnitPrice.IsNegative() {
			return errors.New("line item quantity and price must not be negative")
		}
		if !itemHasProduct(item.ProductId) && item.Description == "" && (item.Quantity > 0 || item.UnitPrice.Sign() > 0) {
			return errors.New("line item description is required when no product is selected")
		}
	}
	return nil
}

// itemHasProduct reports whether a line item is bound to a product. Clients
// send product_id 0 for unbound rows, so zero and negative ids mean unbound,
// same as nil.
func itemHasProduct(productId *int) bool {
	return productId != nil && *productId > 0
}

// CreateDocument persists a document with status=active, its committed line
// items, derived totals and the creation-time stock adjustment, all in one
// transaction.
func CreateDocument(ctx context.Context, input *NewDocument) (*Document, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	settings, err := GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	// Resolve product references once; product-bound items inherit the
	// product name as description when the row left it blank.
	products, err := fetchReferencedProducts(ctx, businessId, input.Items)
	if err != nil {
		return nil, err
	}
	for i := range input.Items {
		item := &input.Items[i]
		if !itemHasProduct(item.ProductId) {
			item.ProductId = nil
		} else if item.Description == "" {
			item.Description = products[*item.ProductId].Name
		}
		item.Description = utils.SanitizeText(item.Description)
	}

	committed := committedItems(input.Items)
	if len(committed) == 0 {
		return nil, errors.New("document requires at least one line item")
	}

	taxRate := resolveTaxRate(settings, input.TaxRateOverride)
	totals := CalculateDocumentTotals(committed, taxRate)

	customerName, customerEmail, err := resolveCustomer(ctx, businessId, input)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	releaseLock, err := utils.BusinessLock(ctx, businessId, "stockLock", "document.go", "CreateDocument")
	if err != nil {
		return nil, err
	}
	defer releaseLock()

	seqNo, err := utils.GetSequence[Document](ctx, businessId)
	if err != nil {
		return nil, err
	}

	document := Document{
		BusinessId:     businessId,
		Type:           input.Type,
		SequenceNo:     seqNo,
		DocumentNumber: settings.DocumentPrefix(input.Type) + strconv.FormatInt(seqNo, 10),
		ClientId:       input.ClientId,
		CustomerName:   customerName,
		CustomerEmail:  customerEmail,
		Date:           date,
		Status:         DocumentStatusActive,
		Notes:          utils.SanitizeText(input.Notes),
		TaxRate:        taxRate,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
	}
	for _, item := range committed {
		document.Items = append(document.Items, DocumentItem{
			BusinessId:  businessId,
			ProductId:   item.ProductId,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      ItemAmount(item.Quantity, item.UnitPrice),
		})
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.WithContext(ctx).Create(&document).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := applyDocumentStockForCreation(tx.WithContext(ctx), &document); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	publishChange(ctx, "documents", ChangeActionCreate, document.ID)
	return &document, nil
}

func fetchReferencedProducts(ctx context.Context, businessId string, items []NewDocumentItem) (map[int]*Product, error) {
	var ids []int
	for _, item := range items {
		if itemHasProduct(item.ProductId) {
			ids = append(ids, *item.ProductId)
		}
	}
	ids = utils.UniqueSlice(ids)
	if len(ids) == 0 {
		return map[int]*Product{}, nil
	}

	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).Where("business_id = ? AND id IN ?", businessId, ids).Find(&products).Error
	if err != nil {
		return nil, err
	}

	byId := make(map[int]*Product, len(products))
	for _, p := range products {
		byId[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byId[id]; !ok {
			return nil, fmt.Errorf("product %d not found", id)
		}
	}
	return byId, nil
}

// resolveCustomer denormalizes the client's name/email onto the document so
// deleting the client later never orphans it.
func resolveCustomer(ctx context.Context, businessId string, input *NewDocument) (string, string, error) {
	name := utils.SanitizeText(input.CustomerName)
	email := input.CustomerEmail

	if input.ClientId != nil {
		client, err := utils.FetchModel[Client](ctx, businessId, *input.ClientId)
		if err != nil {
			return "", "", errors.New("client not found")
		}
		if name == "" {
			name = client.Name
		}
		if email == "" {
			email = client.Email
		}
	}
	if name == "" {
		return "", "", errors.New("customer name is required")
	}
	return name, email, nil
}

// UpdateDocumentStatus drives the two-state machine. Cancellation reverses
// the creation-time stock adjustment in the same transaction; reactivation
// re-applies it symmetrically (optionally forbidden by deployment flag).
// A fully failed stock adjustment rolls the status change back; a partial
// one commits and is reported to the caller.
func UpdateDocumentStatus(ctx context.Context, id int, newStatus DocumentStatus) (*Document, *StockAdjustmentResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, nil, errors.New("business id is required")
	}
	if !newStatus.Valid() {
		return nil, nil, errors.New("status must be active or cancelled")
	}

	document, err := utils.FetchModel[Document](ctx, businessId, id, "Items")
	if err != nil {
		return nil, nil, err
	}

	// Idempotent: cancelling an already-cancelled document never touches stock.
	if document.Status == newStatus {
		return document, &StockAdjustmentResult{Outcome: StockAdjustmentFull}, nil
	}

	if document.Status == DocumentStatusCancelled && newStatus == DocumentStatusActive && config.ForbidReactivation() {
		return nil, nil, errors.New("reactivating a cancelled document is disabled")
	}

	releaseLock, err := utils.BusinessLock(ctx, businessId, "stockLock", "document.go", "UpdateDocumentStatus")
	if err != nil {
		return nil, nil, err
	}
	defer releaseLock()

	oldStatus := document.Status
	document.Status = newStatus

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result, err := ApplyDocumentStockForStatusTransition(tx.WithContext(ctx), document, oldStatus)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if result.Outcome == StockAdjustmentFailed {
		tx.Rollback()
		return nil, result, errors.New("stock adjustment failed; status unchanged")
	}

	err = tx.WithContext(ctx).Model(&Document{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("status", newStatus).Error
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	publishChange(ctx, "documents", ChangeActionStatusChange, document.ID)
	return document, result, nil
}

func GetDocument(ctx context.Context, id int) (*Document, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Document](ctx, businessId, id, "Items")
}

type DocumentFilter struct {
	Type     *DocumentType
	Status   *DocumentStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

func ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if filter.Limit <= 0 {
		filter.Limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if filter.Type != nil {
		dbCtx = dbCtx.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		dbCtx = dbCtx.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		dbCtx = dbCtx.Where("date <= ?", *filter.DateTo)
	}

	var documents []*Document
	err := dbCtx.Preload("Items").
		Order("date DESC, id DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// DocumentExportTable renders a document list for CSV/XLSX download.
func DocumentExportTable(documents []*Document, dateFrom time.Time, dateTo time.Time) utils.ExportTable {
	table := utils.ExportTable{
		Report:    "documents",
		DateRange: dateFrom.Format("2006-01-02") + "_" + dateTo.Format("2006-01-02"),
		Headers:   []string{"Number", "Type", "Customer", "Date", "Status", "Subtotal", "Tax", "Total"},
	}
	for _, d := range documents {
		table.Rows = append(table.Rows, []string{
			utils.SanitizeText(d.DocumentNumber),
			string(d.Type),
			utils.SanitizeText(d.CustomerName),
			d.Date.Format("2006-01-02"),
			string(d.Status),
			utils.FormatMoney(d.Subtotal),
			utils.FormatMoney(d.Tax),
			utils.FormatMoney(d.Total),
		})
	}
	return table
}
