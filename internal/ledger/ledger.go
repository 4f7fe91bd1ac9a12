// Package ledger holds the in-memory system of record for transactions.
// Durable storage only mirrors it; for the lifetime of the process the
// ledger is authoritative.
package ledger

import (
	"errors"
	"sync"
	"time"

	"budget/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

// Ledger is an append-only collection of transactions keyed by id. Ids come
// from a monotonically increasing sequence, so creation order is always
// derivable from them. All methods are safe for concurrent use, though the
// application serializes mutations at the service layer.
type Ledger struct {
	mu      sync.Mutex
	entries []core.Transaction // insertion order, oldest first
	nextID  int64
	now     func() time.Time
}

func New() *Ledger {
	return &Ledger{nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

// Add validates the candidate transaction, assigns a fresh id and audit
// timestamps, and stores it. On validation failure the ledger is untouched.
func (l *Ledger) Add(tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	tx.ID = l.nextID
	tx.CreatedAt = now
	tx.UpdatedAt = now
	l.nextID++
	l.entries = append(l.entries, tx)
	return tx, nil
}

// Edit replaces the mutable fields (amount, kind, category, note, date) of
// the transaction with the given id, re-validating the same invariants as
// Add. Id and creation timestamp are immutable.
func (l *Ledger) Edit(id int64, fields core.Transaction) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return core.Transaction{}, ErrNotFound
	}

	updated := l.entries[i]
	updated.Amount = fields.Amount
	updated.Kind = fields.Kind
	updated.Category = fields.Category
	updated.Note = fields.Note
	updated.Date = fields.Date
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated.UpdatedAt = l.now()
	l.entries[i] = updated
	return updated, nil
}

// Remove deletes the transaction with the given id. Removing an unknown id
// is a silent no-op.
func (l *Ledger) Remove(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

// Get returns the transaction with the given id, if present.
func (l *Ledger) Get(id int64) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return core.Transaction{}, false
	}
	return l.entries[i], true
}

// All returns a copy of the ledger, newest first (display order).
func (l *Ledger) All() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Transaction, len(l.entries))
	for i, tx := range l.entries {
		out[len(l.entries)-1-i] = tx
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Balance folds the whole ledger into signed cents: income adds, expense
// subtracts. Recomputed on every call; edits and deletions make a cached
// running total unreliable.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, tx := range l.entries {
		total += tx.Signed()
	}
	return total
}

// ReassignCategory moves every transaction of the given kind and category
// to another category and returns how many were touched. Used by the
// cascade rule when a custom category is deleted.
func (l *Ledger) ReassignCategory(kind core.Kind, from, to string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	now := l.now()
	for i, tx := range l.entries {
		if tx.Kind == kind && tx.Category == from {
			l.entries[i].Category = to
			l.entries[i].UpdatedAt = now
			n++
		}
	}
	return n
}

// Restore replaces the ledger contents wholesale with transactions listed
// newest first (the snapshot order). The id sequence continues above the
// highest restored id so later additions never collide.
func (l *Ledger) Restore(txs []core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make([]core.Transaction, len(txs))
	var maxID int64
	for i, tx := range txs {
		l.entries[len(txs)-1-i] = tx
		if tx.ID > maxID {
			maxID = tx.ID
		}
	}
	l.nextID = maxID + 1
}

func (l *Ledger) indexOf(id int64) int {
	for i, tx := range l.entries {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
