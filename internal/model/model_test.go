package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(time.Date(2024, 2, 29, 17, 45, 0, 0, time.UTC))
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-02-29"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &parsed))
	assert.True(t, parsed.Equal(d.Time))

	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29T10:00:00Z"`), &parsed))
	assert.Equal(t, "2024-02-29", parsed.String())

	assert.Error(t, json.Unmarshal([]byte(`"29/02/2024"`), &parsed))
}

func TestTransactionJSON(t *testing.T) {
	body := `{
		"id": 12,
		"account_id": 3,
		"date": "2024-01-15",
		"description": "Coffee Shop",
		"amount": "-4.75",
		"category_id": null,
		"reconciled": false,
		"tags": null,
		"notes": null,
		"transaction_type": "DEBIT",
		"fitid": "abc123"
	}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &txn))
	assert.Equal(t, int64(12), txn.ID)
	assert.Nil(t, txn.CategoryID)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("-4.75")))
	assert.Equal(t, "Coffee Shop", txn.DisplayDescription())
	require.NotNil(t, txn.FITID)
	assert.Equal(t, "abc123", *txn.FITID)
}

func TestCloneIsDeep(t *testing.T) {
	orig := Transaction{
		ID:          1,
		Description: StringPtr("x"),
		CategoryID:  IDPtr(2),
		Tags:        []string{"t"},
	}
	c := orig.Clone()
	*c.Description = "y"
	*c.CategoryID = 3
	c.Tags[0] = "u"

	assert.Equal(t, "x", *orig.Description)
	assert.Equal(t, int64(2), *orig.CategoryID)
	assert.Equal(t, "t", orig.Tags[0])
}

func TestDisplayDescriptionFallback(t *testing.T) {
	assert.Equal(t, "N/A", Transaction{}.DisplayDescription())
	assert.Equal(t, "N/A", Transaction{Description: StringPtr("")}.DisplayDescription())
}

func TestParseField(t *testing.T) {
	f, err := ParseField("category_id")
	require.NoError(t, err)
	assert.Equal(t, FieldCategory, f)

	f, err = ParseField("reconciled")
	require.NoError(t, err)
	assert.Equal(t, FieldReconciled, f)

	_, err = ParseField("amount")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFieldValueEqual(t *testing.T) {
	assert.True(t, CategoryValue(nil).Equal(FieldCategory, CategoryValue(nil)))
	assert.False(t, CategoryValue(IDPtr(1)).Equal(FieldCategory, CategoryValue(nil)))
	assert.True(t, CategoryValue(IDPtr(1)).Equal(FieldCategory, CategoryValue(IDPtr(1))))
	assert.True(t, ReconciledValue(true).Equal(FieldReconciled, ReconciledValue(true)))
	assert.Equal(t, "null", CategoryValue(nil).Format(FieldCategory))
}

func TestSnapshotPrevious(t *testing.T) {
	txn := Transaction{ID: 1, CategoryID: IDPtr(7)}
	snap := NewSnapshot(txn, EditIntent{TransactionID: 1, Field: FieldCategory, Value: CategoryValue(nil)})
	*txn.CategoryID = 8

	prev := snap.Previous()
	require.NotNil(t, prev.CategoryID)
	assert.Equal(t, int64(7), *prev.CategoryID)
}

func TestEditIntentUpdate(t *testing.T) {
	tests := []struct {
		name   string
		intent EditIntent
		want   string
	}{
		{
			name:   "reconciled",
			intent: EditIntent{TransactionID: 1, Field: FieldReconciled, Value: ReconciledValue(true)},
			want:   `{"reconciled": true}`,
		},
		{
			name:   "category",
			intent: EditIntent{TransactionID: 1, Field: FieldCategory, Value: CategoryValue(IDPtr(5))},
			want:   `{"category_id": 5}`,
		},
		{
			name:   "uncategorize",
			intent: EditIntent{TransactionID: 1, Field: FieldCategory, Value: CategoryValue(nil)},
			want:   `{"category_id": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.intent.Update())
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestTransactionUpdateDistinguishesNullFromAbsent(t *testing.T) {
	var absent TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"reconciled": true}`), &absent))
	assert.False(t, absent.CategoryID.Set)
	require.NotNil(t, absent.Reconciled)
	assert.True(t, *absent.Reconciled)

	var null TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": null}`), &null))
	assert.True(t, null.CategoryID.Set)
	assert.Nil(t, null.CategoryID.Value)
	assert.False(t, null.IsEmpty())

	var empty TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())

	var bad TransactionUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"category_id": "five"}`), &bad))
}

func TestStatementTransactionCount(t *testing.T) {
	s := Statement{Accounts: []StatementAccount{
		{Name: "a", Transactions: make([]Transaction, 2)},
		{Name: "b", Transactions: make([]Transaction, 3)},
	}}
	assert.Equal(t, 5, s.TransactionCount())
}
