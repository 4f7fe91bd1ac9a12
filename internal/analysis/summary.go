// Package analysis prepares ledger aggregates for the AI advisor and talks
// to Gemini. Only aggregates leave the process, never individual notes.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/report"
)

// maxBreakdownEntries caps the expense breakdown handed to the model.
const maxBreakdownEntries = 8

// seriesMonths is how far back the monthly trend reaches.
const seriesMonths = 6

type (
	// BreakdownEntry is one expense category with its share of the
	// current month's spending.
	BreakdownEntry struct {
		Category   string `json:"category"`
		Amount     int64  `json:"amount"`
		Percentage int    `json:"percentage"`
	}

	// Summary is everything the advisor gets to see: counts and sums,
	// no transaction notes.
	Summary struct {
		Month            string              `json:"month"` // YYYY-MM
		TransactionCount int                 `json:"transactionCount"`
		BalanceCents     int64               `json:"balanceCents"`
		MonthIncome      int64               `json:"monthIncome"`
		MonthExpense     int64               `json:"monthExpense"`
		Breakdown        []BreakdownEntry    `json:"breakdown"`
		Series           []report.MonthPoint `json:"series"`
	}
)

// BuildSummary aggregates the transaction list for the advisor. The series
// covers the last six calendar months ending at now's month; the breakdown
// covers the current month's expenses, largest first, capped at eight
// entries with integer percentages of the month's total expense.
func BuildSummary(txs []core.Transaction, balanceCents int64, now time.Time) Summary {
	month := now.UTC().Format("2006-01")
	window := report.MonthlyWindow(txs, month)

	sums := make(map[string]int64)
	var totalExpense int64
	for _, tx := range window {
		if tx.Kind == core.Expense {
			sums[tx.Category] += tx.Amount.Cents
			totalExpense += tx.Amount.Cents
		}
	}

	breakdown := make([]BreakdownEntry, 0, len(sums))
	for name, cents := range sums {
		entry := BreakdownEntry{Category: name, Amount: cents}
		if totalExpense > 0 {
			// Half-up integer percentage of the month's expense total.
			entry.Percentage = int((cents*100 + totalExpense/2) / totalExpense)
		}
		breakdown = append(breakdown, entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Amount != breakdown[j].Amount {
			return breakdown[i].Amount > breakdown[j].Amount
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	if len(breakdown) > maxBreakdownEntries {
		breakdown = breakdown[:maxBreakdownEntries]
	}

	return Summary{
		Month:            month,
		TransactionCount: len(txs),
		BalanceCents:     balanceCents,
		MonthIncome:      report.SumByKind(window, core.Income),
		MonthExpense:     report.SumByKind(window, core.Expense),
		Breakdown:        breakdown,
		Series:           report.MonthlySeries(txs, seriesMonths, now),
	}
}

// Empty reports whether there is nothing worth analyzing.
func (s Summary) Empty() bool {
	return s.TransactionCount == 0
}

// renderPrompt turns the summary and the user's question into the text sent
// to the model. Amounts are formatted as decimal strings so the model never
// has to reason about cents.
func renderPrompt(s Summary, question string) string {
	var b strings.Builder
	b.WriteString("You are a personal budgeting advisor. Analyze the household ledger data below and answer in plain prose.\n\n")
	b.WriteString("## Ledger data\n")
	fmt.Fprintf(&b, "- Current month: %s\n", s.Month)
	fmt.Fprintf(&b, "- Total transactions: %d\n", s.TransactionCount)
	fmt.Fprintf(&b, "- Overall balance: %s\n", core.FormatCents(s.BalanceCents))
	fmt.Fprintf(&b, "- This month's income: %s\n", core.FormatCents(s.MonthIncome))
	fmt.Fprintf(&b, "- This month's expense: %s\n", core.FormatCents(s.MonthExpense))

	if len(s.Breakdown) > 0 {
		b.WriteString("- Expense breakdown this month:\n")
		for _, e := range s.Breakdown {
			fmt.Fprintf(&b, "  - %s: %s (%d%%)\n", e.Category, core.FormatCents(e.Amount), e.Percentage)
		}
	}

	b.WriteString("- Monthly trend (oldest first):\n")
	for _, p := range s.Series {
		fmt.Fprintf(&b, "  - %s: income %s, expense %s, balance %s\n",
			p.Month, core.FormatCents(p.Income), core.FormatCents(p.Expense), core.FormatCents(p.Balance))
	}

	if q := strings.TrimSpace(question); q != "" {
		b.WriteString("\n## Question\n")
		b.WriteString(q)
		b.WriteString("\n")
	} else {
		b.WriteString("\n## Task\nGive a short assessment of the household's finances, the main spending patterns, and two or three concrete suggestions.\n")
	}
	return b.String()
}
