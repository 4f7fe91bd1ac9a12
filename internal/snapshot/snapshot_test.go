package snapshot

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"budget/internal/category"
	"budget/internal/core"
)

func sample(t *testing.T) Snapshot {
	t.Helper()
	date, _ := core.ParseDate("2025-06-01")
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	return New(
		[]core.Transaction{{
			ID:        1,
			Amount:    core.Money{Cents: 1500},
			Kind:      core.Expense,
			Category:  "Food",
			Note:      "coffee",
			Date:      date,
			CreatedAt: created,
			UpdatedAt: created,
		}},
		category.CustomSets{
			Income:  []string{"Royalties"},
			Expense: []string{"Pets"},
			Icons:   map[string]string{"Pets": "heart", "Royalties": "music"},
		},
		time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
	)
}

func TestRoundTripIdempotence(t *testing.T) {
	s := sample(t)

	data, err := s.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(back, s) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, s)
	}
}

func TestEncodeFieldNames(t *testing.T) {
	data, err := sample(t).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, field := range []string{
		`"transactions"`, `"customCategories"`, `"income"`, `"expense"`,
		`"customCategoryIcons"`, `"timestamp"`, `"amountCents"`,
		`"date":"2025-06-01"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("encoded snapshot missing %s:\n%s", field, data)
		}
	}
}

func TestExportCarriesExportDate(t *testing.T) {
	at := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	data, err := sample(t).EncodeExport(at)
	if err != nil {
		t.Fatalf("encode export: %v", err)
	}
	if !strings.Contains(string(data), `"exportDate"`) {
		t.Fatalf("export missing exportDate:\n%s", data)
	}
	// An export is importable as-is.
	back, err := DecodeImport(data)
	if err != nil {
		t.Fatalf("import of export: %v", err)
	}
	if len(back.Transactions) != 1 {
		t.Fatalf("import lost transactions: %+v", back)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "definitely not json"},
		{"json array", `[1,2,3]`},
		{"missing transactions", `{"customCategories":{"income":[],"expense":[]}}`},
	}
	for _, tc := range cases {
		if _, err := Decode([]byte(tc.data)); !errors.Is(err, ErrBadFormat) {
			t.Fatalf("%s: expected ErrBadFormat, got %v", tc.name, err)
		}
	}
}

func TestDecodeTolerantDefaults(t *testing.T) {
	// Old exports carry only transactions; category fields default to empty.
	s, err := Decode([]byte(`{"transactions":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Transactions == nil || s.CustomCategories.Income == nil ||
		s.CustomCategories.Expense == nil || s.CustomCategoryIcons == nil {
		t.Fatalf("decode should default absent fields to empty: %+v", s)
	}
}
