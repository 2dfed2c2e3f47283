package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownField is returned for a field selector other than reconciled or category.
var ErrUnknownField = errors.New("unknown field")

// Field selects one of the two user-editable transaction fields.
type Field string

const (
	// FieldReconciled is the reconciled flag.
	FieldReconciled Field = "reconciled"
	// FieldCategory is the category assignment.
	FieldCategory Field = "category"
)

// ParseField converts a field name into a Field.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldReconciled, FieldCategory:
		return Field(s), nil
	case "category_id":
		return FieldCategory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// FieldValue holds the value of one editable field. Which member is
// meaningful depends on the Field it is paired with.
type FieldValue struct {
	CategoryID *int64
	Reconciled bool
}

// ReconciledValue builds a value for FieldReconciled.
func ReconciledValue(reconciled bool) FieldValue {
	return FieldValue{Reconciled: reconciled}
}

// CategoryValue builds a value for FieldCategory. A nil id means uncategorized.
func CategoryValue(id *int64) FieldValue {
	return FieldValue{CategoryID: cloneID(id)}
}

// Equal compares two values as values of field f.
func (v FieldValue) Equal(f Field, other FieldValue) bool {
	switch f {
	case FieldReconciled:
		return v.Reconciled == other.Reconciled
	case FieldCategory:
		if v.CategoryID == nil || other.CategoryID == nil {
			return v.CategoryID == nil && other.CategoryID == nil
		}
		return *v.CategoryID == *other.CategoryID
	default:
		return false
	}
}

// Format renders the value of field f for logs and messages.
func (v FieldValue) Format(f Field) string {
	switch f {
	case FieldReconciled:
		return strconv.FormatBool(v.Reconciled)
	case FieldCategory:
		if v.CategoryID == nil {
			return "null"
		}
		return strconv.FormatInt(*v.CategoryID, 10)
	default:
		return "?"
	}
}

// EditIntent describes one field-level change to one transaction.
type EditIntent struct {
	Field         Field
	Value         FieldValue
	TransactionID int64
}

// Validate checks that the intent targets a known field.
func (e EditIntent) Validate() error {
	if e.Field != FieldReconciled && e.Field != FieldCategory {
		return fmt.Errorf("%w: %q", ErrUnknownField, e.Field)
	}
	return nil
}

// Update converts the intent into the partial update sent to the store.
func (e EditIntent) Update() TransactionUpdate {
	var u TransactionUpdate
	switch e.Field {
	case FieldReconciled:
		reconciled := e.Value.Reconciled
		u.Reconciled = &reconciled
	case FieldCategory:
		u.CategoryID = OptionalID{Set: true, Value: cloneID(e.Value.CategoryID)}
	}
	return u
}

// Snapshot is a copy of a transaction taken right before an edit was applied.
type Snapshot struct {
	Intent EditIntent
	Record Transaction
}

// NewSnapshot captures record ahead of applying intent.
func NewSnapshot(record Transaction, intent EditIntent) Snapshot {
	return Snapshot{Record: record.Clone(), Intent: intent}
}

// Previous returns the pre-edit value of the edited field.
func (s Snapshot) Previous() FieldValue {
	v, _ := s.Record.Field(s.Intent.Field)
	return v
}

// OptionalID distinguishes an absent JSON member from an explicit null.
type OptionalID struct {
	Value *int64
	Set   bool
}

// UnmarshalJSON records that the member was present, even when null.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("category_id must be an integer or null: %w", err)
	}
	o.Value = &id
	return nil
}

// MarshalJSON encodes the id or null.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(*o.Value, 10)), nil
}

// TransactionUpdate is a partial update of the mutable transaction fields.
// Absent members are left untouched.
type TransactionUpdate struct {
	Reconciled *bool
	Tags       *[]string
	Notes      *string
	CategoryID OptionalID
}

type transactionUpdateJSON struct {
	Reconciled *bool       `json:"reconciled,omitempty"`
	CategoryID *OptionalID `json:"category_id,omitempty"`
	Tags       *[]string   `json:"tags,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Reconciled == nil && !u.CategoryID.Set && u.Tags == nil && u.Notes == nil
}

// MarshalJSON emits only the members that are set.
func (u TransactionUpdate) MarshalJSON() ([]byte, error) {
	out := transactionUpdateJSON{
		Reconciled: u.Reconciled,
		Tags:       u.Tags,
		Notes:      u.Notes,
	}
	if u.CategoryID.Set {
		id := u.CategoryID
		out.CategoryID = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a partial update payload.
func (u *TransactionUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Reconciled *bool      `json:"reconciled"`
		Tags       *[]string  `json:"tags"`
		Notes      *string    `json:"notes"`
		CategoryID OptionalID `json:"category_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = TransactionUpdate{
		Reconciled: raw.Reconciled,
		CategoryID: raw.CategoryID,
		Tags:       raw.Tags,
		Notes:      raw.Notes,
	}
	return nil
}
