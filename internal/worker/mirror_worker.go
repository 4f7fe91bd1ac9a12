// Package worker consumes ledger change events and keeps the external
// mirrors up to date: a spreadsheet copy of the transactions and rotated
// snapshot backups inside the store itself.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/snapshot"
	"budget/internal/storage"
)

// BackupKeyPrefix is where rotated snapshot copies live in the store.
const BackupKeyPrefix = services.SnapshotKey + "/backup/"

type MirrorWorker struct {
	store      *storage.SQLiteRepository
	mirror     sheets.TransactionMirror // nil disables spreadsheet mirroring
	backupKeep int
}

func NewMirrorWorker(store *storage.SQLiteRepository, mirror sheets.TransactionMirror, backupKeep int) *MirrorWorker {
	if backupKeep < 1 {
		backupKeep = 10
	}
	return &MirrorWorker{
		store:      store,
		mirror:     mirror,
		backupKeep: backupKeep,
	}
}

// HandleChangeEvent reacts to one ledger change: it re-reads the current
// snapshot from the store and rewrites the spreadsheet mirror. The event
// only signals that something changed; the store is the source read here,
// so a mirror pass may briefly trail a debounced write that has not fired
// yet. The next event catches up.
func (w *MirrorWorker) HandleChangeEvent(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change event",
		"op", msg.Op,
		"id", msg.ID)

	if w.mirror == nil {
		slog.InfoContext(ctx, "No spreadsheet mirror configured, skipping")
		return nil
	}

	snap, err := w.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	if err := w.mirror.MirrorTransactions(ctx, snap.Transactions); err != nil {
		return fmt.Errorf("mirror transactions: %w", err)
	}
	return nil
}

// Backup copies the current snapshot under a timestamped backup key and
// prunes old copies beyond the retention count. Run periodically.
func (w *MirrorWorker) Backup(ctx context.Context) error {
	data, err := w.store.LoadSnapshot(ctx, services.SnapshotKey)
	if err != nil {
		// Nothing persisted yet; nothing to back up.
		slog.InfoContext(ctx, "No snapshot to back up", "error", err)
		return nil
	}

	key := BackupKeyPrefix + time.Now().UTC().Format(time.RFC3339)
	if err := w.store.SaveSnapshot(ctx, key, data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	if _, err := w.store.PruneBackups(ctx, BackupKeyPrefix, w.backupKeep); err != nil {
		return fmt.Errorf("prune backups: %w", err)
	}
	return nil
}

// RunBackups writes a backup every interval until the context ends.
func (w *MirrorWorker) RunBackups(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Backup(ctx); err != nil {
				slog.ErrorContext(ctx, "Backup failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) loadSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	data, err := w.store.LoadSnapshot(ctx, services.SnapshotKey)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
