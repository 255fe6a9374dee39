package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;size:36;not null" json:"business_id"`
	Name              string          `gorm:"size:200;not null" json:"name" binding:"required"`
	Sku               string          `gorm:"index;size:100" json:"sku"`
	Category          string          `gorm:"size:100" json:"category"`
	Quantity          int64           `gorm:"not null;default:0" json:"quantity"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	LowStockThreshold int64           `gorm:"not null;default:0" json:"low_stock_threshold"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name              string          `json:"name" binding:"required"`
	Sku               string          `json:"sku"`
	Category          string          `json:"category"`
	Quantity          int64           `json:"quantity"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
}

func (input *NewProduct) validate(ctx context.Context, businessId string, exceptId int) error {
	if input.Name == "" {
		return errors.New("product name is required")
	}
	if len(input.Name) > utils.MaxNameLength {
		return fmt.Errorf("product name must not exceed %d characters", utils.MaxNameLength)
	}
	if len(input.Sku) > utils.MaxSkuLength {
		return fmt.Errorf("sku must not exceed %d characters", utils.MaxSkuLength)
	}
	if len(input.Category) > utils.MaxCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", utils.MaxCategoryLength)
	}
	if input.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	if input.PurchasePrice.IsNegative() || input.UnitPrice.IsNegative() {
		return errors.New("prices must not be negative")
	}
	if input.Sku != "" {
		if err := utils.ValidateUnique[Product](ctx, businessId, "sku", input.Sku, exceptId); err != nil {
			return err
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	product := Product{
		BusinessId:        businessId,
		Name:              utils.SanitizeText(input.Name),
		Sku:               utils.SanitizeText(input.Sku),
		Category:          utils.SanitizeText(input.Category),
		Quantity:          input.Quantity,
		PurchasePrice:     input.PurchasePrice,
		UnitPrice:         input.UnitPrice,
		LowStockThreshold: input.LowStockThreshold,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	publishChange(ctx, "products", ChangeActionCreate, product.ID)
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	product.Name = utils.SanitizeText(input.Name)
	product.Sku = utils.SanitizeText(input.Sku)
	product.Category = utils.SanitizeText(input.Category)
	product.Quantity = input.Quantity
	product.PurchasePrice = input.PurchasePrice
	product.UnitPrice = input.UnitPrice
	product.LowStockThreshold = input.LowStockThreshold

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}

	publishChange(ctx, "products", ChangeActionUpdate, product.ID)
	return product, nil
}

// DeleteProduct removes the product. Document items keep their product_id;
// downstream reads treat a missing product as purchase price zero.
func DeleteProduct(ctx context.Context, id int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	product, err := utils.FetchModel[Product](ctx, businessId, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return err
	}

	publishChange(ctx, "products", ChangeActionDelete, id)
	return nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Product](ctx, businessId, id)
}

// ListProducts pages through the catalog, newest first. A non-empty search
// matches name, sku or category.
func ListProducts(ctx context.Context, search string, limit int, offset int) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if search != "" {
		pattern := "%" + search + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR sku LIKE ? OR category LIKE ?", pattern, pattern, pattern)
	}

	var products []*Product
	err := dbCtx.Order("id DESC").Limit(limit).Offset(offset).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListLowStockProducts returns products at or below their threshold.
func ListLowStockProducts(ctx context.Context) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).
		Where("business_id = ? AND quantity <= low_stock_threshold", businessId).
		Order("quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ProductExportTable renders the catalog for CSV/XLSX download.
func ProductExportTable(products []*Product, asOf time.Time) utils.ExportTable {
	table := utils.ExportTable{
		Report:    "products",
		DateRange: asOf.Format("2006-01-02"),
		Headers:   []string{"Name", "SKU", "Category", "Quantity", "Purchase Price", "Unit Price"},
	}
	for _, p := range products {
		table.Rows = append(table.Rows, []string{
			utils.SanitizeText(p.Name),
			utils.SanitizeText(p.Sku),
			utils.SanitizeText(p.Category),
			fmt.Sprintf("%d", p.Quantity),
			utils.FormatMoney(p.PurchasePrice),
			utils.FormatMoney(p.UnitPrice),
		})
	}
	return table
}
