package models

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
)

// MaxImportRows caps one CSV import batch. A file over the cap imports
// nothing and reports a single error citing the limit.
const MaxImportRows = 1000

type ProductImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// importColumns maps recognized header names to field positions.
var importColumns = map[string]string{
	"name":                "name",
	"product":             "name",
	"sku":                 "sku",
	"category":            "category",
	"quantity":            "quantity",
	"qty":                 "quantity",
	"purchase_price":      "purchase_price",
	"purchase price":      "purchase_price",
	"cost":                "purchase_price",
	"unit_price":          "unit_price",
	"unit price":          "unit_price",
	"price":               "unit_price",
	"low_stock_threshold": "low_stock_threshold",
	"low stock":           "low_stock_threshold",
}

// ImportProductsCSV bulk-loads products from a CSV stream with a header row.
// Bad rows are skipped and reported per row (row numbers are 1-indexed over
// the file, so the first data row is row 2); one bad row never aborts the
// batch. All accepted rows are inserted in a single transaction.
func ImportProductsCSV(ctx context.Context, r io.Reader) (*ProductImportResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not parse csv: %w", err)
	}
	if len(records) < 2 {
		return &ProductImportResult{Errors: []string{"file has no data rows"}}, nil
	}

	header := records[0]
	rows := records[1:]
	if len(rows) > MaxImportRows {
		return &ProductImportResult{
			Errors: []string{fmt.Sprintf("import is limited to %d rows per file (got %d)", MaxImportRows, len(rows))},
		}, nil
	}

	fields := mapImportHeader(header)
	if _, ok := fields["name"]; !ok {
		return &ProductImportResult{Errors: []string{"missing required column: name"}}, nil
	}

	result := &ProductImportResult{}
	var parsed []importRow
	for i, row := range rows {
		rowNum := i + 2
		product, rowErrs := parseImportRow(row, fields)
		if len(rowErrs) > 0 {
			for _, e := range rowErrs {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, e))
			}
			continue
		}
		product.BusinessId = businessId
		parsed = append(parsed, importRow{rowNum: rowNum, product: product})
	}

	parsed, dupErrs := dedupeImportSkus(parsed)
	result.Errors = append(result.Errors, dupErrs...)

	parsed, existErrs, err := filterExistingSkus(ctx, businessId, parsed)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, existErrs...)

	if len(parsed) == 0 {
		return result, nil
	}
	products := make([]Product, 0, len(parsed))
	for _, row := range parsed {
		products = append(products, row.product)
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.WithContext(ctx).CreateInBatches(&products, 100).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	result.Imported = len(products)
	publishChange(ctx, "products", ChangeActionCreate, 0)
	return result, nil
}

type importRow struct {
	rowNum  int
	product Product
}

// dedupeImportSkus rejects rows whose sku already appeared earlier in the
// same file. Rows without a sku are never deduplicated.
func dedupeImportSkus(rows []importRow) ([]importRow, []string) {
	firstRow := make(map[string]int)
	var kept []importRow
	var errs []string
	for _, row := range rows {
		sku := row.product.Sku
		if sku == "" {
			kept = append(kept, row)
			continue
		}
		if first, seen := firstRow[sku]; seen {
			errs = append(errs, fmt.Sprintf("Row %d: duplicate sku %q (already used in row %d)", row.rowNum, sku, first))
			continue
		}
		firstRow[sku] = row.rowNum
		kept = append(kept, row)
	}
	return kept, errs
}

// filterExistingSkus rejects rows whose sku is already taken by a stored
// product of the same business.
func filterExistingSkus(ctx context.Context, businessId string, rows []importRow) ([]importRow, []string, error) {
	var skus []string
	for _, row := range rows {
		if row.product.Sku != "" {
			skus = append(skus, row.product.Sku)
		}
	}
	if len(skus) == 0 {
		return rows, nil, nil
	}

	db := config.GetDB()
	var existing []string
	err := db.WithContext(ctx).Model(&Product{}).
		Where("business_id = ? AND sku IN ?", businessId, skus).
		Pluck("sku", &existing).Error
	if err != nil {
		return nil, nil, err
	}
	if len(existing) == 0 {
		return rows, nil, nil
	}

	taken := make(map[string]bool, len(existing))
	for _, sku := range existing {
		taken[sku] = true
	}
	var kept []importRow
	var errs []string
	for _, row := range rows {
		if row.product.Sku != "" && taken[row.product.Sku] {
			errs = append(errs, fmt.Sprintf("Row %d: sku %q already exists", row.rowNum, row.product.Sku))
			continue
		}
		kept = append(kept, row)
	}
	return kept, errs, nil
}

func mapImportHeader(header []string) map[string]int {
	fields := make(map[string]int)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := importColumns[key]; ok {
			if _, seen := fields[field]; !seen {
				fields[field] = i
			}
		}
	}
	return fields
}

func cellAt(row []string, fields map[string]int, field string) string {
	idx, ok := fields[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseImportRow sanitizes one data row into a Product. Length violations
// are reported as row errors, never silently truncated; numeric cells fall
// back to safe defaults.
func parseImportRow(row []string, fields map[string]int) (Product, []string) {
	var rowErrs []string

	name := utils.SanitizeText(cellAt(row, fields, "name"))
	sku := utils.SanitizeText(cellAt(row, fields, "sku"))
	category := utils.SanitizeText(cellAt(row, fields, "category"))

	if name == "" {
		rowErrs = append(rowErrs, "name is required")
	}
	if len(name) > utils.MaxNameLength {
		rowErrs = append(rowErrs, fmt.Sprintf("name exceeds %d characters", utils.MaxNameLength))
	}
	if len(sku) > utils.MaxSkuLength {
		rowErrs = append(rowErrs, fmt.Sprintf("sku exceeds %d characters", utils.MaxSkuLength))
	}
	if len(category) > utils.MaxCategoryLength {
		rowErrs = append(rowErrs, fmt.Sprintf("category exceeds %d characters", utils.MaxCategoryLength))
	}

	product := Product{
		Name:              name,
		Sku:               sku,
		Category:          category,
		Quantity:          int64(utils.ParseInteger(cellAt(row, fields, "quantity"), 0)),
		PurchasePrice:     utils.ParseMoney(cellAt(row, fields, "purchase_price"), decimal.Zero),
		UnitPrice:         utils.ParseMoney(cellAt(row, fields, "unit_price"), decimal.Zero),
		LowStockThreshold: int64(utils.ParseInteger(cellAt(row, fields, "low_stock_threshold"), 0)),
	}
	return product, rowErrs
}
