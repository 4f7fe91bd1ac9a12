// Package report is the read side of the ledger: stateless projections
// recomputed from a transaction snapshot on every query.
package report

import (
	"strings"
	"time"

	"budget/internal/core"
)

type (
	// Query is the AND-composed transaction filter. Empty fields match
	// everything.
	Query struct {
		Search   string
		Category string
		Kind     core.Kind
	}

	// CategoryAmount is an amount aggregated under one category name.
	CategoryAmount struct {
		Category string     `json:"category"`
		Amount   core.Money `json:"amountCents"`
	}

	// MonthOverview is the dashboard projection for one calendar month.
	MonthOverview struct {
		Month     string           `json:"month"` // YYYY-MM
		Income    core.Money       `json:"incomeCents"`
		Expense   core.Money       `json:"expenseCents"`
		Breakdown []CategoryAmount `json:"breakdown"`
	}

	// MonthPoint is one month of the income/expense/balance series fed to
	// the analysis collaborator.
	MonthPoint struct {
		Month   string `json:"month"` // YYYY-MM
		Income  int64  `json:"income"`
		Expense int64  `json:"expense"`
		Balance int64  `json:"balance"`
	}
)

// MonthlyWindow returns the transactions whose date falls inside the given
// YYYY-MM month. The match is a plain prefix comparison on the ISO date
// string; no timezone normalization happens here.
func MonthlyWindow(txs []core.Transaction, yearMonth string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Date.InMonth(yearMonth) {
			out = append(out, tx)
		}
	}
	return out
}

// SumByKind sums the amounts of all transactions matching the kind.
func SumByKind(txs []core.Transaction, kind core.Kind) int64 {
	var total int64
	for _, tx := range txs {
		if tx.Kind == kind {
			total += tx.Amount.Cents
		}
	}
	return total
}

// CategoryBreakdown sums amounts of the given kind per category, listing
// only categories with a nonzero total. Output follows the order of the
// categories argument (registry declaration order), not amount order.
func CategoryBreakdown(txs []core.Transaction, kind core.Kind, categories []string) []CategoryAmount {
	sums := make(map[string]int64)
	for _, tx := range txs {
		if tx.Kind == kind {
			sums[tx.Category] += tx.Amount.Cents
		}
	}

	var out []CategoryAmount
	for _, name := range categories {
		if cents := sums[name]; cents != 0 {
			out = append(out, CategoryAmount{Category: name, Amount: core.Money{Cents: cents}})
		}
	}
	return out
}

// Filter applies the query to the transaction list, preserving input order.
// The search text matches case-insensitively against note or category;
// category and kind, when set, must match exactly.
func Filter(txs []core.Transaction, q Query) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	var out []core.Transaction
	for _, tx := range txs {
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Note), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}
		if q.Category != "" && tx.Category != q.Category {
			continue
		}
		if q.Kind != "" && tx.Kind != q.Kind {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Overview computes the month totals and the expense breakdown for the
// given YYYY-MM month.
func Overview(txs []core.Transaction, expenseCategories []string, yearMonth string) MonthOverview {
	window := MonthlyWindow(txs, yearMonth)
	return MonthOverview{
		Month:     yearMonth,
		Income:    core.Money{Cents: SumByKind(window, core.Income)},
		Expense:   core.Money{Cents: SumByKind(window, core.Expense)},
		Breakdown: CategoryBreakdown(window, core.Expense, expenseCategories),
	}
}

// MonthlySeries returns the last n calendar months ending at now's month,
// oldest first, with income, expense, and net balance per month.
func MonthlySeries(txs []core.Transaction, n int, now time.Time) []MonthPoint {
	out := make([]MonthPoint, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		window := MonthlyWindow(txs, month)
		income := SumByKind(window, core.Income)
		expense := SumByKind(window, core.Expense)
		out = append(out, MonthPoint{
			Month:   month,
			Income:  income,
			Expense: expense,
			Balance: income - expense,
		})
	}
	return out
}
