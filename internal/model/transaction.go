package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for transaction dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		*d = NewDate(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is a single bank or card transaction as held by the store.
// Only Reconciled and CategoryID are edited after import.
type Transaction struct {
	Date            Date            `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     *string         `json:"description"`
	CategoryID      *int64          `json:"category_id"`
	Notes           *string         `json:"notes"`
	TransactionType *string         `json:"transaction_type"`
	FITID           *string         `json:"fitid"`
	Tags            []string        `json:"tags"`
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	Reconciled      bool            `json:"reconciled"`
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	c := t
	c.Description = cloneString(t.Description)
	c.CategoryID = cloneID(t.CategoryID)
	c.Notes = cloneString(t.Notes)
	c.TransactionType = cloneString(t.TransactionType)
	c.FITID = cloneString(t.FITID)
	if t.Tags != nil {
		c.Tags = slices.Clone(t.Tags)
	}
	return c
}

// DisplayDescription returns the description or "N/A" when none was recorded.
func (t Transaction) DisplayDescription() string {
	if t.Description == nil || *t.Description == "" {
		return "N/A"
	}
	return *t.Description
}

// Field returns the current value of an editable field.
func (t Transaction) Field(f Field) (FieldValue, error) {
	switch f {
	case FieldReconciled:
		return ReconciledValue(t.Reconciled), nil
	case FieldCategory:
		return CategoryValue(t.CategoryID), nil
	default:
		return FieldValue{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
}

// SetField assigns v to the editable field f.
func (t *Transaction) SetField(f Field, v FieldValue) error {
	switch f {
	case FieldReconciled:
		t.Reconciled = v.Reconciled
	case FieldCategory:
		t.CategoryID = cloneID(v.CategoryID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}

// Account is a bank or card account that owns transactions.
type Account struct {
	Type *string `json:"type"`
	Name string  `json:"name"`
	ID   int64   `json:"id"`
}

// StringPtr returns a pointer to s, or nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IDPtr returns a pointer to id.
func IDPtr(id int64) *int64 {
	return &id
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
