// Package snapshot defines the JSON shape the ledger and registry are
// persisted and exported in. Round-trip fidelity of this structure is the
// one bit-exact contract with durable storage.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budget/internal/category"
	"budget/internal/core"
)

// ErrBadFormat marks an import payload that does not parse as JSON or is
// missing expected top-level fields. Import aborts with zero mutation.
var ErrBadFormat = errors.New("malformed snapshot payload")

type (
	// CustomCategories mirrors the registry's custom sets per kind.
	CustomCategories struct {
		Income  []string `json:"income"`
		Expense []string `json:"expense"`
	}

	// Snapshot is the persisted state: every transaction, the custom
	// category names per kind, their icon tags, and the write timestamp.
	Snapshot struct {
		Transactions        []core.Transaction `json:"transactions"`
		CustomCategories    CustomCategories   `json:"customCategories"`
		CustomCategoryIcons map[string]string  `json:"customCategoryIcons"`
		Timestamp           time.Time          `json:"timestamp"`
	}

	// Export is the downloadable variant of a snapshot.
	Export struct {
		Snapshot
		ExportDate time.Time `json:"exportDate"`
	}
)

// New assembles a snapshot from ledger contents (newest first) and the
// registry's custom state, stamped with the given time.
func New(txs []core.Transaction, customs category.CustomSets, at time.Time) Snapshot {
	icons := customs.Icons
	if icons == nil {
		icons = map[string]string{}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return Snapshot{
		Transactions: txs,
		CustomCategories: CustomCategories{
			Income:  emptyIfNil(customs.Income),
			Expense: emptyIfNil(customs.Expense),
		},
		CustomCategoryIcons: icons,
		Timestamp:           at,
	}
}

// Customs converts the snapshot's category state back into the registry's
// restore shape.
func (s Snapshot) Customs() category.CustomSets {
	return category.CustomSets{
		Income:  s.CustomCategories.Income,
		Expense: s.CustomCategories.Expense,
		Icons:   s.CustomCategoryIcons,
	}
}

// Encode renders the snapshot as compact JSON for the persistence gateway.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a persisted snapshot. It is strict about the payload being
// JSON with a `transactions` array but tolerant of absent category fields,
// matching what older exports contain.
func Decode(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if _, ok := raw["transactions"]; !ok {
		return Snapshot{}, fmt.Errorf("%w: missing transactions field", ErrBadFormat)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if s.Transactions == nil {
		s.Transactions = []core.Transaction{}
	}
	if s.CustomCategories.Income == nil {
		s.CustomCategories.Income = []string{}
	}
	if s.CustomCategories.Expense == nil {
		s.CustomCategories.Expense = []string{}
	}
	if s.CustomCategoryIcons == nil {
		s.CustomCategoryIcons = map[string]string{}
	}
	return s, nil
}

// EncodeExport renders the downloadable export: the snapshot plus an
// exportDate field, indented for humans.
func (s Snapshot) EncodeExport(at time.Time) ([]byte, error) {
	return json.MarshalIndent(Export{Snapshot: s, ExportDate: at}, "", "  ")
}

// DecodeImport parses an uploaded export file. Exports and plain snapshots
// share the same required fields, so both are accepted.
func DecodeImport(data []byte) (Snapshot, error) {
	return Decode(data)
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
