package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
)

const topProductCount = 10

// ProfitRow is one invoice line item joined with its product cost basis.
// PurchasePrice is zero when the product was deleted or never bound.
type ProfitRow struct {
	ProductName   string          `json:"product_name"`
	Date          time.Time       `json:"date"`
	Quantity      int64           `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type ProductProfit struct {
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	Margin      decimal.Decimal `json:"margin"`
}

type MonthlyProfit struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`

	monthKey string
}

type ProfitReport struct {
	DateFrom     time.Time       `json:"date_from"`
	DateTo       time.Time       `json:"date_to"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	TopProducts  []ProductProfit `json:"top_products"`
	Monthly      []MonthlyProfit `json:"monthly"`
}

// BuildProfitReport aggregates invoice line items into per-product and
// per-month profit metrics. Pure; recomputed from scratch per date range.
func BuildProfitReport(rows []ProfitRow, dateFrom time.Time, dateTo time.Time) *ProfitReport {
	report := &ProfitReport{
		DateFrom:     dateFrom,
		DateTo:       dateTo,
		TotalRevenue: decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalProfit:  decimal.Zero,
	}

	byProduct := make(map[string]*ProductProfit)
	byMonth := make(map[string]*MonthlyProfit)

	for _, row := range rows {
		revenue := row.Amount
		cost := row.PurchasePrice.Mul(decimal.NewFromInt(row.Quantity))
		profit := revenue.Sub(cost)

		name := row.ProductName
		if name == "" {
			name = "Unknown"
		}
		pp, ok := byProduct[name]
		if !ok {
			pp = &ProductProfit{ProductName: name, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
			byProduct[name] = pp
		}
		pp.Quantity += row.Quantity
		pp.Revenue = pp.Revenue.Add(revenue)
		pp.Cost = pp.Cost.Add(cost)
		pp.Profit = pp.Profit.Add(profit)

		key := utils.MonthKey(row.Date)
		mp, ok := byMonth[key]
		if !ok {
			mp = &MonthlyProfit{Month: utils.MonthLabel(row.Date), monthKey: key, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
			byMonth[key] = mp
		}
		mp.Revenue = mp.Revenue.Add(revenue)
		mp.Cost = mp.Cost.Add(cost)
		mp.Profit = mp.Profit.Add(profit)

		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.TotalCost = report.TotalCost.Add(cost)
		report.TotalProfit = report.TotalProfit.Add(profit)
	}

	for _, pp := range byProduct {
		if pp.Revenue.Sign() > 0 {
			pp.Margin = pp.Profit.Div(pp.Revenue).Mul(decimal.NewFromInt(100))
		} else {
			pp.Margin = decimal.Zero
		}
		report.TopProducts = append(report.TopProducts, *pp)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		if !report.TopProducts[i].Profit.Equal(report.TopProducts[j].Profit) {
			return report.TopProducts[i].Profit.GreaterThan(report.TopProducts[j].Profit)
		}
		return report.TopProducts[i].ProductName < report.TopProducts[j].ProductName
	})
	if len(report.TopProducts) > topProductCount {
		report.TopProducts = report.TopProducts[:topProductCount]
	}

	for _, mp := range byMonth {
		report.Monthly = append(report.Monthly, *mp)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].monthKey < report.Monthly[j].monthKey
	})

	return report
}

// GetProfitReport loads the invoice line items for [dateFrom, dateTo]
// (inclusive, cancelled documents excluded) with their product cost basis
// and aggregates them.
func GetProfitReport(ctx context.Context, dateFrom time.Time, dateTo time.Time) (*ProfitReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var rows []ProfitRow
	err := db.WithContext(ctx).
		Table("document_items").
		Select("COALESCE(products.name, '') AS product_name, documents.date AS date,"+
			" document_items.quantity AS quantity, document_items.amount AS amount,"+
			" COALESCE(products.purchase_price, 0) AS purchase_price").
		Joins("JOIN documents ON documents.id = document_items.document_id").
		Joins("LEFT JOIN products ON products.id = document_items.product_id").
		Where("documents.business_id = ? AND documents.type = ? AND documents.status <> ?",
			businessId, DocumentTypeInvoice, DocumentStatusCancelled).
		Where("documents.date >= ? AND documents.date <= ?", dateFrom, dateTo).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return BuildProfitReport(rows, dateFrom, dateTo), nil
}

// InventoryPotential is the instantaneous stock valuation
// Σ (unit_price − purchase_price) × quantity, independent of any date window.
func InventoryPotential(products []*Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		perUnit := p.UnitPrice.Sub(p.PurchasePrice)
		total = total.Add(perUnit.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return total
}

// GetInventoryPotential computes the valuation over the current catalog.
func GetInventoryPotential(ctx context.Context) (decimal.Decimal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return decimal.Zero, errors.New("business id is required")
	}

	products, err := utils.FetchAllModels[Product](ctx, businessId)
	if err != nil {
		return decimal.Zero, err
	}
	return InventoryPotential(products), nil
}

// ProfitReportExportTable renders the per-product breakdown for download.
func ProfitReportExportTable(report *ProfitReport) utils.ExportTable {
	table := utils.ExportTable{
		Report:    "profit",
		DateRange: report.DateFrom.Format("2006-01-02") + "_" + report.DateTo.Format("2006-01-02"),
		Headers:   []string{"Product", "Quantity", "Revenue", "Cost", "Profit", "Margin %"},
	}
	for _, pp := range report.TopProducts {
		table.Rows = append(table.Rows, []string{
			utils.SanitizeText(pp.ProductName),
			fmt.Sprintf("%d", pp.Quantity),
			utils.FormatMoney(pp.Revenue),
			utils.FormatMoney(pp.Cost),
			utils.FormatMoney(pp.Profit),
			utils.FormatMoney(pp.Margin),
		})
	}
	return table
}
