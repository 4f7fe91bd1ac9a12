// Package memory is an in-process TransactionMirror used by tests and
// sheet-less deployments.
package memory

import (
	"context"
	"sync"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ ports.TransactionMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// MirrorTransactions replaces the stored rows wholesale.
func (m *Mirror) MirrorTransactions(_ context.Context, txs []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]core.Transaction(nil), txs...)
	return nil
}

// Rows returns a copy of the last mirrored state.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.rows...)
}
