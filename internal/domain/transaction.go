// Package domain holds the transaction entity shared by the store, the
// summary engine and the HTTP surface.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arifhasan/khata/internal/money"
)

// Kind is the closed set of transaction kinds. Anything other than the two
// constants below is rejected at the parse boundary and never stored.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	default:
		return "", fmt.Errorf("ParseKind: unknown kind %q", s)
	}
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// UnmarshalJSON rejects unknown kind strings during decoding.
func (k *Kind) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Date is a calendar date with no time-of-day. The wire and storage form
// is "YYYY-MM-DD".
type Date struct {
	time.Time
}

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("ParseDate: invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the canonical "YYYY-MM-DD" form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the "YYYY-MM" bucket label for this date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// YearKey returns the "YYYY" bucket label for this date.
func (d Date) YearKey() string {
	return d.Format("2006")
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return errors.New("Date.UnmarshalJSON: empty date")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is the sole durable entity: one income or expense record.
// Transactions are created and deleted, never updated in place.
type Transaction struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"type"`
	Amount     money.Amount `json:"amount"`
	Category   string       `json:"category"`
	OccurredOn Date         `json:"date"`
	Note       string       `json:"note,omitempty"`
	RecordedAt time.Time    `json:"created_at"`
}

// Validation failures are client errors; nothing failing Validate ever
// reaches the store.
var (
	ErrMissingID     = errors.New("transaction id is required")
	ErrInvalidKind   = errors.New("type must be \"income\" or \"expense\"")
	ErrInvalidAmount = errors.New("amount must be a non-negative number")
	ErrInvalidDate   = errors.New("date must be a valid calendar date")
)

// Validate enumerates the invariants of a transaction and returns the
// first violation.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if t.OccurredOn.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
