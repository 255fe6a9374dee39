package models

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mmdatafocus/billing_backend/utils"
)

func importCtx() context.Context {
	return utils.SetBusinessIdInContext(context.Background(), "biz-1")
}

func TestImportProductsCSVRowCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,quantity,purchase_price,unit_price\n")
	for i := 0; i < MaxImportRows+1; i++ {
		fmt.Fprintf(&sb, "Product %d,1,1.00,2.00\n", i)
	}

	result, err := ImportProductsCSV(importCtx(), strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 0 {
		t.Fatalf("imported = %d, want 0", result.Imported)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want exactly 1", len(result.Errors))
	}
	if !strings.Contains(result.Errors[0], "1000") {
		t.Fatalf("cap error must cite the limit, got %q", result.Errors[0])
	}
}

func TestImportProductsCSVMissingNameColumn(t *testing.T) {
	csv := "sku,quantity\nW-1,5\n"
	result, err := ImportProductsCSV(importCtx(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 0 || len(result.Errors) != 1 {
		t.Fatalf("want a single missing-column error, got %+v", result)
	}
}

func TestImportProductsCSVHeaderOnly(t *testing.T) {
	result, err := ImportProductsCSV(importCtx(), strings.NewReader("name,sku\n"))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 0 || len(result.Errors) != 1 {
		t.Fatalf("want a single no-data error, got %+v", result)
	}
}

func TestMapImportHeader(t *testing.T) {
	fields := mapImportHeader([]string{"Name", "SKU", "Qty", "Purchase Price", "price", "ignored"})
	want := map[string]int{
		"name":           0,
		"sku":            1,
		"quantity":       2,
		"purchase_price": 3,
		"unit_price":     4,
	}
	for field, idx := range want {
		if fields[field] != idx {
			t.Fatalf("field %s mapped to %d, want %d", field, fields[field], idx)
		}
	}
	if _, ok := fields["ignored"]; ok {
		t.Fatalf("unrecognized column must not map")
	}
}

func TestParseImportRow(t *testing.T) {
	fields := mapImportHeader([]string{"name", "sku", "category", "quantity", "purchase_price", "unit_price"})

	// happy path with messy numerics and a formula-marker name
	product, rowErrs := parseImportRow([]string{"=Widget", "W-1", "Tools", "12.9", "₹60.00", "100"}, fields)
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if product.Name != "'=Widget" {
		t.Fatalf("formula name not neutralized: %q", product.Name)
	}
	if product.Quantity != 12 {
		t.Fatalf("quantity = %d, want 12", product.Quantity)
	}
	if !product.PurchasePrice.Equal(money("60")) || !product.UnitPrice.Equal(money("100")) {
		t.Fatalf("prices = %s/%s", product.PurchasePrice, product.UnitPrice)
	}

	// missing name is a row error, not a silent skip
	_, rowErrs = parseImportRow([]string{"", "W-2", "", "1", "1", "1"}, fields)
	if len(rowErrs) != 1 {
		t.Fatalf("want one error for missing name, got %v", rowErrs)
	}

	// over-long sku reported, never truncated
	longSku := strings.Repeat("x", utils.MaxSkuLength+1)
	product, rowErrs = parseImportRow([]string{"ok", longSku, "", "1", "1", "1"}, fields)
	if len(rowErrs) != 1 {
		t.Fatalf("want one error for long sku, got %v", rowErrs)
	}
	if len(product.Sku) != utils.MaxSkuLength+1 {
		t.Fatalf("sku was truncated")
	}
}

// Row numbers in error messages are 1-indexed over the file including the
// header, so the first data row reports as row 2.
func TestImportRowNumberOffset(t *testing.T) {
	csv := "name\n\"\"\n\"\"\n"
	result, err := ImportProductsCSV(importCtx(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 0 {
		t.Fatalf("imported = %d, want 0", result.Imported)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "Row 2:") || !strings.HasPrefix(result.Errors[1], "Row 3:") {
		t.Fatalf("row numbering wrong: %v", result.Errors)
	}
}

// A sku may appear at most once per file; later occurrences become row
// errors and only the first row is kept. Rows without a sku never collide.
func TestImportDuplicateSkuWithinFile(t *testing.T) {
	rows := []importRow{
		{rowNum: 2, product: Product{Name: "A", Sku: "SKU-1"}},
		{rowNum: 3, product: Product{Name: "B", Sku: "SKU-2"}},
		{rowNum: 4, product: Product{Name: "C", Sku: "SKU-1"}},
		{rowNum: 5, product: Product{Name: "D"}},
		{rowNum: 6, product: Product{Name: "E"}},
	}

	kept, errs := dedupeImportSkus(rows)
	if len(kept) != 4 {
		t.Fatalf("kept %d rows, want 4", len(kept))
	}
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one duplicate", errs)
	}
	if !strings.Contains(errs[0], "Row 4") || !strings.Contains(errs[0], "SKU-1") || !strings.Contains(errs[0], "row 2") {
		t.Fatalf("unexpected duplicate error: %q", errs[0])
	}
	for _, row := range kept {
		if row.rowNum == 4 {
			t.Fatalf("duplicate row survived dedupe")
		}
	}
}
