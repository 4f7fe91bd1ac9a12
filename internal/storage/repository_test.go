package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	payload := []byte(`{"transactions":[],"timestamp":"2025-06-01T00:00:00Z"}`)
	if err := repo.SaveSnapshot(ctx, "ledger", payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.LoadSnapshot(ctx, "ledger")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", got, payload)
	}

	// Overwrite wins.
	updated := []byte(`{"transactions":[{"id":1}]}`)
	if err := repo.SaveSnapshot(ctx, "ledger", updated); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = repo.LoadSnapshot(ctx, "ledger")
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if string(got) != string(updated) {
		t.Fatalf("overwrite not visible: %s", got)
	}
}

func TestLoadMissingKey(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LoadSnapshot(context.Background(), "nope"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestPruneBackups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, key := range []string{
		"ledger/backup/2025-06-01T00:00:00Z",
		"ledger/backup/2025-06-02T00:00:00Z",
		"ledger/backup/2025-06-03T00:00:00Z",
		"ledger", // different prefix, untouched
	} {
		if err := repo.SaveSnapshot(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	pruned, err := repo.PruneBackups(ctx, "ledger/backup/", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}

	keys, err := repo.ListKeys(ctx, "ledger/backup/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "ledger/backup/2025-06-02T00:00:00Z" {
		t.Fatalf("unexpected surviving keys: %v", keys)
	}

	if _, err := repo.LoadSnapshot(ctx, "ledger"); err != nil {
		t.Fatalf("primary key should survive backup pruning: %v", err)
	}
}
