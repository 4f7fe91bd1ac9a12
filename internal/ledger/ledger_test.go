package ledger

import (
	"errors"
	"testing"

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

func TestAddAssignsSequentialIDs(t *testing.T) {
	l := New()
	a, err := l.Add(tx(1500, core.Expense, "Food", "coffee", "2025-06-01"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := l.Add(tx(300000, core.Income, "Salary", "June pay", "2025-06-25"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1,2; got %d,%d", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Fatalf("audit timestamps not set")
	}

	got, ok := l.Get(a.ID)
	if !ok {
		t.Fatalf("stored transaction not retrievable")
	}
	if got.Amount.Cents != 1500 || got.Kind != core.Expense || got.Category != "Food" ||
		got.Note != "coffee" || got.Date.String() != "2025-06-01" {
		t.Fatalf("stored fields mismatch: %+v", got)
	}
}

func TestAddRejectsInvalidWithoutMutation(t *testing.T) {
	l := New()
	if _, err := l.Add(tx(0, core.Expense, "Food", "coffee", "2025-06-01")); err == nil {
		t.Fatalf("zero amount should be rejected")
	}
	if _, err := l.Add(tx(-5, core.Expense, "Food", "coffee", "2025-06-01")); err == nil {
		t.Fatalf("negative amount should be rejected")
	}
	if l.Len() != 0 {
		t.Fatalf("rejected adds must not mutate the ledger, len=%d", l.Len())
	}
}

func TestBalanceInvariant(t *testing.T) {
	l := New()
	a, _ := l.Add(tx(1000, core.Income, "Salary", "pay", "2025-01-10"))
	b, _ := l.Add(tx(250, core.Expense, "Food", "lunch", "2025-01-11"))
	l.Add(tx(400, core.Expense, "Transport", "train", "2025-01-12"))

	check := func() {
		var want int64
		for _, e := range l.All() {
			want += e.Signed()
		}
		if got := l.Balance(); got != want {
			t.Fatalf("balance %d != independent sum %d", got, want)
		}
	}

	check()
	if l.Balance() != 1000-250-400 {
		t.Fatalf("unexpected balance %d", l.Balance())
	}

	if _, err := l.Edit(b.ID, tx(500, core.Expense, "Food", "dinner", "2025-01-11")); err != nil {
		t.Fatalf("edit: %v", err)
	}
	check()

	l.Remove(a.ID)
	check()
	if l.Balance() != -500-400 {
		t.Fatalf("unexpected balance after remove: %d", l.Balance())
	}
}

func TestEditNotFound(t *testing.T) {
	l := New()
	_, err := l.Edit(42, tx(100, core.Income, "Salary", "pay", "2025-01-01"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEditKeepsIDAndCreatedAt(t *testing.T) {
	l := New()
	orig, _ := l.Add(tx(100, core.Income, "Salary", "pay", "2025-01-01"))
	edited, err := l.Edit(orig.ID, tx(200, core.Expense, "Food", "groceries", "2025-01-02"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != orig.ID {
		t.Fatalf("id changed on edit")
	}
	if !edited.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("createdAt changed on edit")
	}
	if edited.Kind != core.Expense || edited.Amount.Cents != 200 {
		t.Fatalf("fields not replaced: %+v", edited)
	}
}

func TestEditInvalidLeavesStoredValue(t *testing.T) {
	l := New()
	orig, _ := l.Add(tx(100, core.Income, "Salary", "pay", "2025-01-01"))
	if _, err := l.Edit(orig.ID, tx(0, core.Income, "Salary", "pay", "2025-01-01")); err == nil {
		t.Fatalf("invalid edit should fail")
	}
	got, _ := l.Get(orig.ID)
	if got.Amount.Cents != 100 {
		t.Fatalf("failed edit mutated stored value: %+v", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	l := New()
	a, _ := l.Add(tx(100, core.Income, "Salary", "pay", "2025-01-01"))
	l.Remove(a.ID)
	l.Remove(a.ID) // second remove is a no-op
	l.Remove(999)
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger")
	}
}

func TestAllNewestFirst(t *testing.T) {
	l := New()
	l.Add(tx(100, core.Income, "Salary", "first", "2025-01-01"))
	l.Add(tx(200, core.Income, "Salary", "second", "2025-01-02"))
	all := l.All()
	if len(all) != 2 || all[0].Note != "second" || all[1].Note != "first" {
		t.Fatalf("expected newest-first order, got %+v", all)
	}
}

func TestReassignCategory(t *testing.T) {
	l := New()
	l.Add(tx(100, core.Expense, "Hobby", "paint", "2025-01-01"))
	l.Add(tx(200, core.Expense, "Hobby", "brushes", "2025-01-02"))
	l.Add(tx(300, core.Income, "Hobby", "sold a painting", "2025-01-03"))
	l.Add(tx(400, core.Expense, "Food", "lunch", "2025-01-04"))

	n := l.ReassignCategory(core.Expense, "Hobby", core.FallbackCategory)
	if n != 2 {
		t.Fatalf("expected 2 reassigned, got %d", n)
	}
	for _, e := range l.All() {
		if e.Kind == core.Expense && e.Category == "Hobby" {
			t.Fatalf("dangling expense category after reassign: %+v", e)
		}
	}
	// The income entry with the same name is untouched: cascade is per kind.
	income := l.All()[1]
	if income.Category != "Hobby" {
		t.Fatalf("income category should be untouched, got %q", income.Category)
	}
	if l.Len() != 4 {
		t.Fatalf("reassign must not change the transaction count")
	}
}

func TestRestoreLiftsIDSequence(t *testing.T) {
	l := New()
	l.Add(tx(100, core.Income, "Salary", "old", "2025-01-01"))

	imported := []core.Transaction{
		{ID: 7, Amount: core.Money{Cents: 700}, Kind: core.Income, Category: "Salary", Note: "newest", Date: core.NewDate(2025, 2, 2)},
		{ID: 3, Amount: core.Money{Cents: 300}, Kind: core.Expense, Category: "Food", Note: "oldest", Date: core.NewDate(2025, 2, 1)},
	}
	l.Restore(imported)

	if l.Len() != 2 {
		t.Fatalf("restore should replace contents, len=%d", l.Len())
	}
	all := l.All()
	if all[0].ID != 7 || all[1].ID != 3 {
		t.Fatalf("restore lost snapshot order: %+v", all)
	}
	added, err := l.Add(tx(100, core.Income, "Salary", "fresh", "2025-03-01"))
	if err != nil {
		t.Fatalf("add after restore: %v", err)
	}
	if added.ID != 8 {
		t.Fatalf("id sequence should continue above restored max, got %d", added.ID)
	}
}
