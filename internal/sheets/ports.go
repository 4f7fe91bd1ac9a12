package sheets

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// TransactionMirror rewrites an external copy of the ledger. Mirroring
	// is wholesale and idempotent: the mirror always ends up reflecting
	// exactly the rows it is given.
	TransactionMirror interface {
		MirrorTransactions(ctx context.Context, txs []core.Transaction) error
	}
)
