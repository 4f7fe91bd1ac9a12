// Package services wires the ledger, the category registry, durable
// storage, and eventing into the command operations the UI adapter calls.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/category"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/report"
	"budget/internal/snapshot"
)

// SnapshotKey is the fixed key the ledger state lives under in the store.
const SnapshotKey = "ledger"

// DefaultSaveDebounce matches the auto-save delay of the UI: mutations
// are mirrored to storage once the ledger has been quiet for this long.
const DefaultSaveDebounce = 2 * time.Second

type (
	// SnapshotStore is the durable key-value gateway the ledger is
	// mirrored to. Persistence is best-effort: the in-memory state stays
	// authoritative whether or not these calls succeed.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, key string, data []byte) error
		LoadSnapshot(ctx context.Context, key string) ([]byte, error)
	}

	// EventPublisher notifies external consumers that the ledger changed.
	EventPublisher interface {
		PublishLedgerChanged(ctx context.Context, op string, id int64) error
	}

	// TransactionInput carries the user-supplied fields of an add or edit.
	TransactionInput struct {
		AmountCents int64
		Kind        core.Kind
		Category    string
		Note        string
		Date        core.Date
	}

	// CategoryInfo pairs a category name with its display icon tag.
	CategoryInfo struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}
)

// BudgetService owns the in-memory state and serializes every mutation
// behind one mutex, the process equivalent of the UI's single event thread.
type BudgetService struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	registry *category.Registry
	store    SnapshotStore
	events   EventPublisher
	debounce time.Duration
	now      func() time.Time

	timerMu   sync.Mutex
	saveTimer *time.Timer
}

func NewBudgetService(store SnapshotStore, events EventPublisher, debounce time.Duration) *BudgetService {
	if debounce <= 0 {
		debounce = DefaultSaveDebounce
	}
	return &BudgetService{
		ledger:   ledger.New(),
		registry: category.NewRegistry(),
		store:    store,
		events:   events,
		debounce: debounce,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Hydrate loads the persisted snapshot at startup. A missing key means a
// first launch and an empty ledger; a corrupt snapshot is reported and
// skipped rather than crashing the session.
func (s *BudgetService) Hydrate(ctx context.Context) error {
	data, err := s.store.LoadSnapshot(ctx, SnapshotKey)
	if err != nil {
		slog.InfoContext(ctx, "No persisted state, starting empty", "error", err)
		return nil
	}

	snap, err := snapshot.Decode(data)
	if err != nil {
		slog.ErrorContext(ctx, "Persisted snapshot is corrupt, starting empty",
			"error", err,
			"key", SnapshotKey)
		return fmt.Errorf("decode persisted snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Restore(snap.Customs())
	s.ledger.Restore(snap.Transactions)

	slog.InfoContext(ctx, "Ledger hydrated",
		"transactions", len(snap.Transactions),
		"timestamp", snap.Timestamp)
	return nil
}

// AddTransaction validates the input, resolves the category against the
// registry (unknown names collapse to the fallback), and stores a new
// transaction.
func (s *BudgetService) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ledger.Add(s.buildTransaction(in))
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction added",
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	s.afterMutation(ctx, amqp.OpAdd, tx.ID)
	return tx, nil
}

// EditTransaction replaces the stored fields of an existing transaction,
// re-validating the same invariants as AddTransaction.
func (s *BudgetService) EditTransaction(ctx context.Context, id int64, in TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ledger.Edit(id, s.buildTransaction(in))
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction edited",
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	s.afterMutation(ctx, amqp.OpEdit, tx.ID)
	return tx, nil
}

// DeleteTransaction removes a transaction. Unknown ids are a silent no-op.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Remove(id)
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	s.afterMutation(ctx, amqp.OpRemove, id)
}

// AddCategory registers a custom category for the kind.
func (s *BudgetService) AddCategory(ctx context.Context, kind core.Kind, name, icon string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.AddCustom(kind, name, icon); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Custom category added",
		"kind", kind,
		"category", strings.TrimSpace(name))

	s.afterMutation(ctx, amqp.OpCategoryAdd, 0)
	return nil
}

// DeleteCategory removes a custom category and cascades: every transaction
// that referenced it is reassigned to the fallback category. Built-ins and
// names that were never registered delete as a silent no-op, the same way
// removing an unknown transaction does. Confirmation is the UI's
// responsibility and has already happened when this runs.
func (s *BudgetService) DeleteCategory(ctx context.Context, kind core.Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.DeleteCustom(kind, name); err != nil {
		if errors.Is(err, category.ErrNotCustom) {
			slog.InfoContext(ctx, "Category delete skipped, not a custom category",
				"kind", kind,
				"category", name)
			return nil
		}
		return err
	}
	reassigned := s.ledger.ReassignCategory(kind, name, core.FallbackCategory)

	slog.InfoContext(ctx, "Custom category deleted",
		"kind", kind,
		"category", name,
		"reassigned", reassigned)

	s.afterMutation(ctx, amqp.OpCategoryDelete, 0)
	return nil
}

// Transactions returns the ledger filtered by the query, newest first.
func (s *BudgetService) Transactions(q report.Query) []core.Transaction {
	return report.Filter(s.ledger.All(), q)
}

// Balance returns the signed total over the whole ledger, in cents.
func (s *BudgetService) Balance() int64 {
	return s.ledger.Balance()
}

// Overview returns the month totals and expense breakdown for a YYYY-MM
// month.
func (s *BudgetService) Overview(yearMonth string) report.MonthOverview {
	return report.Overview(s.ledger.All(), s.registry.All(core.Expense), yearMonth)
}

// MonthlySeries returns the last n months of totals, oldest first.
func (s *BudgetService) MonthlySeries(n int) []report.MonthPoint {
	return report.MonthlySeries(s.ledger.All(), n, s.now())
}

// Categories lists all valid categories for the kind with their icons.
func (s *BudgetService) Categories(kind core.Kind) []CategoryInfo {
	names := s.registry.All(kind)
	out := make([]CategoryInfo, len(names))
	for i, name := range names {
		out[i] = CategoryInfo{Name: name, Icon: s.registry.IconFor(name)}
	}
	return out
}

// Export renders the current state as a downloadable JSON document.
func (s *BudgetService) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	snap := s.currentSnapshot()
	s.mu.Unlock()

	data, err := snap.EncodeExport(s.now())
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	slog.InfoContext(ctx, "Ledger exported", "transactions", len(snap.Transactions))
	return data, nil
}

// Import replaces the in-memory state wholesale with the uploaded payload.
// The payload is fully validated first; a bad payload mutates nothing.
func (s *BudgetService) Import(ctx context.Context, data []byte) error {
	snap, err := snapshot.DecodeImport(data)
	if err != nil {
		return err
	}

	// Stage the registry so imported categories resolve against the
	// imported custom sets, not the current ones.
	staged := category.NewRegistry()
	staged.Restore(snap.Customs())
	for i, tx := range snap.Transactions {
		snap.Transactions[i].Category = staged.Resolve(tx.Kind, tx.Category)
		if err := snap.Transactions[i].Validate(); err != nil {
			return fmt.Errorf("%w: transaction %d: %v", snapshot.ErrBadFormat, tx.ID, err)
		}
	}

	s.mu.Lock()
	s.registry.Restore(snap.Customs())
	s.ledger.Restore(snap.Transactions)
	s.afterMutation(ctx, amqp.OpImport, 0)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger imported", "transactions", len(snap.Transactions))
	return nil
}

// Save flushes the current state to the store immediately, cancelling any
// pending debounced write.
func (s *BudgetService) Save(ctx context.Context) error {
	s.cancelPendingSave()

	s.mu.Lock()
	snap := s.currentSnapshot()
	s.mu.Unlock()

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.SaveSnapshot(ctx, SnapshotKey, data); err != nil {
		slog.ErrorContext(ctx, "Persistence failed, in-memory state stays authoritative",
			"error", err,
			"key", SnapshotKey)
		return err
	}
	return nil
}

// Close flushes pending state. Storage and eventing connections belong to
// the caller that created them.
func (s *BudgetService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Save(ctx)
}

func (s *BudgetService) buildTransaction(in TransactionInput) core.Transaction {
	tx := core.Transaction{
		Amount:   core.Money{Cents: in.AmountCents},
		Kind:     in.Kind,
		Category: in.Category,
		Note:     strings.TrimSpace(in.Note),
		Date:     in.Date,
	}
	// Unknown categories collapse to the fallback; an empty category stays
	// empty so validation reports the missing field instead.
	if strings.TrimSpace(in.Category) != "" && in.Kind.Valid() {
		tx.Category = s.registry.Resolve(in.Kind, in.Category)
	}
	return tx
}

// afterMutation schedules the debounced persistence write and publishes a
// change event. Both are best-effort; the mutation itself already
// succeeded. Callers hold s.mu.
func (s *BudgetService) afterMutation(ctx context.Context, op string, id int64) {
	s.scheduleSave()

	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerChanged(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"error", err,
			"op", op,
			"id", id)
	}
}

// scheduleSave resets the debounce timer: storage only sees the state as
// it is when the ledger has been quiet for the full debounce window.
func (s *BudgetService) scheduleSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Save(ctx); err != nil {
			slog.Error("Debounced save failed", "error", err)
		}
	})
}

func (s *BudgetService) cancelPendingSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

// currentSnapshot assembles the persisted shape. Callers hold s.mu.
func (s *BudgetService) currentSnapshot() snapshot.Snapshot {
	return snapshot.New(s.ledger.All(), s.registry.Snapshot(), s.now())
}
