package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// FallbackCategory is the reserved category every unresolved reference
// collapses to. It exists for both kinds and can never be deleted.
const FallbackCategory = "Other"

type (
	// Kind separates money coming in from money going out. The sign of a
	// transaction lives here, never in the amount.
	Kind string

	// Date is a calendar date without a time component. Aggregation
	// compares dates by their ISO string form only.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded money movement.
	Transaction struct {
		ID        int64     `json:"id"`
		Amount    Money     `json:"amountCents"`
		Kind      Kind      `json:"kind"`
		Category  string    `json:"category"`
		Note      string    `json:"note"`
		Date      Date      `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyNote     = errors.New("empty note")
	ErrNoteTooLong   = errors.New("note too long (max 200 characters)")
	ErrEmptyCategory = errors.New("empty category")
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) Validate() error {
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String renders the date in its ISO form, the representation all
// month-window comparisons run on.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// YearMonth returns the YYYY-MM prefix of the date.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

// InMonth reports whether the date falls inside the given YYYY-MM month.
func (d Date) InMonth(yearMonth string) bool {
	return strings.HasPrefix(d.String(), yearMonth)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", m.Cents)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	cents, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = cents
	return nil
}

// Validate checks the invariants every stored transaction satisfies:
// positive amount, known kind, non-empty note and category, a real date.
func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Note) == "" {
		return ErrEmptyNote
	}
	if len(t.Note) > 200 {
		return ErrNoteTooLong
	}
	return t.Date.Validate()
}

// Signed returns the amount with the sign implied by the kind.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
