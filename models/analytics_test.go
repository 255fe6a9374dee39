package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildProfitReportScenario(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []ProfitRow{
		{
			ProductName:   "Widget",
			Date:          time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Quantity:      4,
			Amount:        money("400"), // 4 × 100
			PurchasePrice: money("60"),
		},
	}

	report := BuildProfitReport(rows, from, to)
	if len(report.TopProducts) != 1 {
		t.Fatalf("top products = %d, want 1", len(report.TopProducts))
	}
	pp := report.TopProducts[0]
	if !pp.Revenue.Equal(money("400")) {
		t.Fatalf("revenue = %s, want 400", pp.Revenue)
	}
	if !pp.Cost.Equal(money("240")) {
		t.Fatalf("cost = %s, want 240", pp.Cost)
	}
	if !pp.Profit.Equal(money("160")) {
		t.Fatalf("profit = %s, want 160", pp.Profit)
	}
	if !pp.Margin.Equal(money("40")) {
		t.Fatalf("margin = %s, want 40", pp.Margin)
	}

	if len(report.Monthly) != 1 {
		t.Fatalf("monthly buckets = %d, want 1", len(report.Monthly))
	}
	if report.Monthly[0].Month != "Mar 2026" {
		t.Fatalf("month label = %q, want \"Mar 2026\"", report.Monthly[0].Month)
	}
	if !report.TotalProfit.Equal(money("160")) {
		t.Fatalf("total profit = %s, want 160", report.TotalProfit)
	}
}

func TestBuildProfitReportUnknownProductAndZeroRevenue(t *testing.T) {
	rows := []ProfitRow{
		{ProductName: "", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Quantity: 2, Amount: money("0"), PurchasePrice: money("0")},
	}
	report := BuildProfitReport(rows, time.Time{}, time.Time{})
	if len(report.TopProducts) != 1 {
		t.Fatalf("top products = %d, want 1", len(report.TopProducts))
	}
	if report.TopProducts[0].ProductName != "Unknown" {
		t.Fatalf("unbound product name = %q, want \"Unknown\"", report.TopProducts[0].ProductName)
	}
	if !report.TopProducts[0].Margin.IsZero() {
		t.Fatalf("margin with zero revenue = %s, want 0", report.TopProducts[0].Margin)
	}
}

func TestBuildProfitReportTopTenAndOrder(t *testing.T) {
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	var rows []ProfitRow
	for i := 1; i <= 12; i++ {
		rows = append(rows, ProfitRow{
			ProductName:   fmt.Sprintf("P%02d", i),
			Date:          date,
			Quantity:      1,
			Amount:        decimal.NewFromInt(int64(i * 10)), // profit grows with i
			PurchasePrice: decimal.Zero,
		})
	}

	report := BuildProfitReport(rows, date, date)
	if len(report.TopProducts) != 10 {
		t.Fatalf("top products = %d, want 10", len(report.TopProducts))
	}
	if report.TopProducts[0].ProductName != "P12" {
		t.Fatalf("highest profit product = %q, want P12", report.TopProducts[0].ProductName)
	}
	for i := 1; i < len(report.TopProducts); i++ {
		if report.TopProducts[i].Profit.GreaterThan(report.TopProducts[i-1].Profit) {
			t.Fatalf("top products not sorted by profit descending at index %d", i)
		}
	}
}

func TestBuildProfitReportMonthlyOrder(t *testing.T) {
	rows := []ProfitRow{
		{ProductName: "A", Date: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), Quantity: 1, Amount: money("10")},
		{ProductName: "A", Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Quantity: 1, Amount: money("10")},
		{ProductName: "A", Date: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC), Quantity: 1, Amount: money("10")},
	}
	report := BuildProfitReport(rows, time.Time{}, time.Time{})
	want := []string{"Dec 2025", "Feb 2026", "Nov 2026"}
	if len(report.Monthly) != len(want) {
		t.Fatalf("monthly buckets = %d, want %d", len(report.Monthly), len(want))
	}
	for i, label := range want {
		if report.Monthly[i].Month != label {
			t.Fatalf("monthly[%d] = %q, want %q", i, report.Monthly[i].Month, label)
		}
	}
}

func TestInventoryPotential(t *testing.T) {
	products := []*Product{
		{Name: "A", Quantity: 10, UnitPrice: money("15"), PurchasePrice: money("10")}, // 50
		{Name: "B", Quantity: 3, UnitPrice: money("100"), PurchasePrice: money("60")}, // 120
		{Name: "C", Quantity: 0, UnitPrice: money("99"), PurchasePrice: money("1")},   // 0
	}
	got := InventoryPotential(products)
	if !got.Equal(money("170")) {
		t.Fatalf("inventory potential = %s, want 170", got)
	}

	if !InventoryPotential(nil).IsZero() {
		t.Fatalf("empty catalog must value to zero")
	}
}
