package report

import (
	"reflect"
	"testing"
	"time"

	"budget/internal/core"
)

func tx(cents int64, kind core.Kind, category, note, date string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{
		Amount:   core.Money{Cents: cents},
		Kind:     kind,
		Category: category,
		Note:     note,
		Date:     d,
	}
}

func TestMonthlyWindow(t *testing.T) {
	txs := []core.Transaction{
		tx(100, core.Expense, "Food", "jan", "2025-01-31"),
		tx(200, core.Expense, "Food", "feb start", "2025-02-01"),
		tx(300, core.Expense, "Food", "feb end", "2025-02-28"),
	}
	got := MonthlyWindow(txs, "2025-02")
	if len(got) != 2 || got[0].Note != "feb start" || got[1].Note != "feb end" {
		t.Fatalf("expected exactly the two February transactions, got %+v", got)
	}
	if MonthlyWindow(txs, "2025-03") != nil {
		t.Fatalf("expected empty window for March")
	}
}

func TestSumByKind(t *testing.T) {
	txs := []core.Transaction{
		tx(1000, core.Income, "Salary", "pay", "2025-01-10"),
		tx(250, core.Expense, "Food", "lunch", "2025-01-11"),
		tx(750, core.Income, "Bonus", "bonus", "2025-01-12"),
	}
	if got := SumByKind(txs, core.Income); got != 1750 {
		t.Fatalf("income sum = %d", got)
	}
	if got := SumByKind(txs, core.Expense); got != 250 {
		t.Fatalf("expense sum = %d", got)
	}
	if got := SumByKind(nil, core.Income); got != 0 {
		t.Fatalf("empty sum = %d", got)
	}
}

func TestCategoryBreakdownDeclarationOrder(t *testing.T) {
	order := []string{"Food", "Transport", "Rent", "Other"}
	txs := []core.Transaction{
		tx(500, core.Expense, "Rent", "rent", "2025-01-01"),
		tx(100, core.Expense, "Food", "lunch", "2025-01-02"),
		tx(200, core.Expense, "Food", "dinner", "2025-01-03"),
		tx(900, core.Income, "Salary", "pay", "2025-01-04"), // other kind, ignored
	}
	got := CategoryBreakdown(txs, core.Expense, order)
	want := []CategoryAmount{
		{Category: "Food", Amount: core.Money{Cents: 300}},
		{Category: "Rent", Amount: core.Money{Cents: 500}},
	}
	// Declaration order, not amount order: Food before Rent even though
	// Rent is the bigger sum.
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("breakdown mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFilterComposition(t *testing.T) {
	income := tx(300000, core.Income, "Salary", "March pay", "2025-03-25")
	expense := tx(1200, core.Expense, "Food", "lunch", "2025-03-10")
	txs := []core.Transaction{income, expense}

	got := Filter(txs, Query{Search: "lunch"})
	if len(got) != 1 || got[0].Kind != core.Expense {
		t.Fatalf("search 'lunch' should return exactly the expense, got %+v", got)
	}

	got = Filter(txs, Query{Kind: core.Income})
	if len(got) != 1 || got[0].Kind != core.Income {
		t.Fatalf("kind filter should return exactly the income, got %+v", got)
	}

	if got = Filter(txs, Query{Search: "pay", Kind: core.Expense}); len(got) != 0 {
		t.Fatalf("AND composition should yield nothing, got %+v", got)
	}

	// Search matches against the category name too, case-insensitively.
	got = Filter(txs, Query{Search: "salary"})
	if len(got) != 1 || got[0].Kind != core.Income {
		t.Fatalf("search should match category names, got %+v", got)
	}

	if got = Filter(txs, Query{}); len(got) != 2 {
		t.Fatalf("empty query should match everything, got %d", len(got))
	}

	got = Filter(txs, Query{Category: "Food"})
	if len(got) != 1 || got[0].Category != "Food" {
		t.Fatalf("category filter mismatch: %+v", got)
	}
}

func TestOverview(t *testing.T) {
	txs := []core.Transaction{
		tx(300000, core.Income, "Salary", "pay", "2025-03-25"),
		tx(1200, core.Expense, "Food", "lunch", "2025-03-10"),
		tx(5000, core.Expense, "Rent", "rent", "2025-02-01"), // other month
	}
	ov := Overview(txs, []string{"Food", "Rent"}, "2025-03")
	if ov.Month != "2025-03" {
		t.Fatalf("month mismatch: %s", ov.Month)
	}
	if ov.Income.Cents != 300000 || ov.Expense.Cents != 1200 {
		t.Fatalf("totals mismatch: %+v", ov)
	}
	if len(ov.Breakdown) != 1 || ov.Breakdown[0].Category != "Food" {
		t.Fatalf("breakdown mismatch: %+v", ov.Breakdown)
	}
}

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(1000, core.Income, "Salary", "jan pay", "2025-01-10"),
		tx(400, core.Expense, "Food", "feb food", "2025-02-10"),
		tx(2000, core.Income, "Salary", "mar pay", "2025-03-10"),
	}
	series := MonthlySeries(txs, 3, now)
	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}
	if series[0].Month != "2025-01" || series[2].Month != "2025-03" {
		t.Fatalf("month range mismatch: %+v", series)
	}
	if series[0].Balance != 1000 || series[1].Balance != -400 || series[2].Balance != 2000 {
		t.Fatalf("balances mismatch: %+v", series)
	}
}
