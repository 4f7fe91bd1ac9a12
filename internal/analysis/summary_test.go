package analysis

import (
	"strings"
	"testing"
	"time"

	"budget/internal/core"
)

func tx(id int64, kind core.Kind, category string, cents int64, date string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:       id,
		Amount:   core.Money{Cents: cents},
		Kind:     kind,
		Category: category,
		Note:     "n",
		Date:     d,
	}
}

func TestBuildSummaryAggregates(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(1, core.Income, "Salary", 300000, "2025-06-01"),
		tx(2, core.Expense, "Food", 40000, "2025-06-03"),
		tx(3, core.Expense, "Rent", 120000, "2025-06-05"),
		tx(4, core.Expense, "Food", 20000, "2025-06-20"),
		tx(5, core.Expense, "Food", 5000, "2025-05-10"), // previous month
	}

	s := BuildSummary(txs, 115000, now)

	if s.Month != "2025-06" {
		t.Fatalf("month = %q", s.Month)
	}
	if s.TransactionCount != 5 {
		t.Fatalf("count = %d", s.TransactionCount)
	}
	if s.MonthIncome != 300000 || s.MonthExpense != 180000 {
		t.Fatalf("month totals = %d/%d", s.MonthIncome, s.MonthExpense)
	}
	if len(s.Series) != 6 {
		t.Fatalf("series length = %d", len(s.Series))
	}
	if s.Series[0].Month != "2025-01" || s.Series[5].Month != "2025-06" {
		t.Fatalf("series range = %s..%s", s.Series[0].Month, s.Series[5].Month)
	}
	if s.Series[4].Expense != 5000 {
		t.Fatalf("may expense = %d", s.Series[4].Expense)
	}
}

func TestBuildSummaryBreakdownOrderAndPercentages(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(1, core.Expense, "Food", 60000, "2025-06-03"),
		tx(2, core.Expense, "Rent", 120000, "2025-06-05"),
		tx(3, core.Expense, "Transport", 20000, "2025-06-06"),
	}

	s := BuildSummary(txs, -200000, now)

	if len(s.Breakdown) != 3 {
		t.Fatalf("breakdown length = %d", len(s.Breakdown))
	}
	want := []BreakdownEntry{
		{Category: "Rent", Amount: 120000, Percentage: 60},
		{Category: "Food", Amount: 60000, Percentage: 30},
		{Category: "Transport", Amount: 20000, Percentage: 10},
	}
	for i, w := range want {
		if s.Breakdown[i] != w {
			t.Fatalf("breakdown[%d] = %+v, want %+v", i, s.Breakdown[i], w)
		}
	}
}

func TestBuildSummaryBreakdownCap(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	var txs []core.Transaction
	for i, name := range names {
		txs = append(txs, tx(int64(i+1), core.Expense, name, int64((i+1)*1000), "2025-06-10"))
	}

	s := BuildSummary(txs, 0, now)

	if len(s.Breakdown) != maxBreakdownEntries {
		t.Fatalf("breakdown length = %d", len(s.Breakdown))
	}
	if s.Breakdown[0].Category != "J" {
		t.Fatalf("largest category = %q", s.Breakdown[0].Category)
	}
	for _, e := range s.Breakdown {
		if e.Category == "A" || e.Category == "B" {
			t.Fatalf("smallest categories should be dropped, got %q", e.Category)
		}
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(nil, 0, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	if !s.Empty() {
		t.Fatal("expected empty summary")
	}
	if len(s.Breakdown) != 0 {
		t.Fatalf("breakdown = %+v", s.Breakdown)
	}
}

func TestRenderPrompt(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(1, core.Income, "Salary", 300000, "2025-06-01"),
		tx(2, core.Expense, "Food", 40000, "2025-06-03"),
	}
	s := BuildSummary(txs, 260000, now)

	got := renderPrompt(s, "Can I afford a vacation?")
	for _, want := range []string{
		"Current month: 2025-06",
		"Total transactions: 2",
		"Overall balance: 2600.00",
		"Food: 400.00 (100%)",
		"2025-06: income 3000.00, expense 400.00, balance 2600.00",
		"Can I afford a vacation?",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}

	got = renderPrompt(s, "  ")
	if !strings.Contains(got, "## Task") {
		t.Fatalf("blank question should fall back to the default task:\n%s", got)
	}
}
