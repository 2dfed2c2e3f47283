package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
)

func defaultFilter() service.TransactionFilter {
	return service.TransactionFilter{}
}

func seedTransactions(t *testing.T, store *SQLiteStorage, count int) []model.Transaction {
	t.Helper()
	ctx := context.Background()
	if _, err := store.ImportStatement(ctx, createTestStatement("Test Bank - 1 (CHECKING)", count)); err != nil {
		t.Fatalf("Failed to seed transactions: %v", err)
	}
	txns, err := store.GetTransactions(ctx, defaultFilter())
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	return txns
}

func TestGetTransactionsOrderAndPaging(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := seedTransactions(t, store, 5)
	if len(txns) != 5 {
		t.Fatalf("got %d transactions, want 5", len(txns))
	}
	for i := 1; i < len(txns); i++ {
		if txns[i].Date.After(txns[i-1].Date.Time) {
			t.Errorf("transactions not ordered newest first at index %d", i)
		}
	}
	if txns[0].Date.String() != "2024-03-05" {
		t.Errorf("newest date = %s", txns[0].Date)
	}

	page, err := store.GetTransactions(ctx, service.TransactionFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != txns[2].ID {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestGetTransactionsFilters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := seedTransactions(t, store, 5)
	reconciled := true
	if _, err := store.UpdateTransaction(ctx, txns[0].ID, model.TransactionUpdate{Reconciled: &reconciled}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}

	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	accountID := txns[0].AccountID
	otherAccount := accountID + 100

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   int
	}{
		{"date range", service.TransactionFilter{StartDate: &start, EndDate: &end}, 2},
		{"reconciled", service.TransactionFilter{Reconciled: &reconciled}, 1},
		{"account", service.TransactionFilter{AccountID: &accountID}, 5},
		{"other account", service.TransactionFilter{AccountID: &otherAccount}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetTransactions failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d transactions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGetTransactionsInvalidFilter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	filters := []service.TransactionFilter{
		{Limit: service.MaxTransactionLimit + 1},
		{Limit: -1},
		{Offset: -1},
		{StartDate: &start, EndDate: &end},
	}
	for _, f := range filters {
		_, err := store.GetTransactions(ctx, f)
		if !errors.Is(err, common.ErrRejected) {
			t.Errorf("filter %+v: expected rejected error, got %v", f, err)
		}
		if common.StatusFor(err) != http.StatusBadRequest {
			t.Errorf("filter %+v: status = %d", f, common.StatusFor(err))
		}
	}
}

func TestUpdateTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := seedTransactions(t, store, 1)
	id := txns[0].ID

	cats, err := store.GetCategories(ctx)
	if err != nil || len(cats) == 0 {
		t.Fatalf("GetCategories failed: %v", err)
	}
	catID := cats[0].ID

	updated, err := store.UpdateTransaction(ctx, id, model.TransactionUpdate{
		CategoryID: model.OptionalID{Set: true, Value: &catID},
		Tags:       &[]string{"work", "travel"},
		Notes:      model.StringPtr("expensed"),
	})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != catID {
		t.Errorf("category not updated: %v", updated.CategoryID)
	}
	if len(updated.Tags) != 2 || updated.Notes == nil || *updated.Notes != "expensed" {
		t.Errorf("tags/notes not updated: %+v", updated)
	}
	if updated.Reconciled {
		t.Error("reconciled changed although it was not in the update")
	}

	// Explicit null clears the category and leaves the rest.
	cleared, err := store.UpdateTransaction(ctx, id, model.TransactionUpdate{CategoryID: model.OptionalID{Set: true}})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if cleared.CategoryID != nil {
		t.Errorf("category not cleared: %v", *cleared.CategoryID)
	}
	if len(cleared.Tags) != 2 {
		t.Errorf("tags lost: %v", cleared.Tags)
	}
}

func TestUpdateTransactionErrors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := seedTransactions(t, store, 1)
	id := txns[0].ID
	reconciled := true
	missingCat := int64(9999)

	tests := []struct {
		kind   error
		name   string
		reason string
		update model.TransactionUpdate
		id     int64
		status int
	}{
		{
			name: "empty update", id: id, update: model.TransactionUpdate{},
			kind: common.ErrRejected, status: http.StatusBadRequest, reason: "No update data provided.",
		},
		{
			name: "unknown transaction", id: 424242, update: model.TransactionUpdate{Reconciled: &reconciled},
			kind: common.ErrNotFound, status: http.StatusNotFound, reason: "Transaction with id 424242 not found.",
		},
		{
			name: "unknown category", id: id, update: model.TransactionUpdate{CategoryID: model.OptionalID{Set: true, Value: &missingCat}},
			kind: common.ErrRejected, status: http.StatusUnprocessableEntity, reason: "Category with id 9999 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.UpdateTransaction(ctx, tt.id, tt.update)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var storeErr *common.StoreError
			if !errors.As(err, &storeErr) {
				t.Fatalf("expected *common.StoreError, got %T", err)
			}
			if storeErr.Status != tt.status || storeErr.Reason != tt.reason {
				t.Errorf("got status %d reason %q", storeErr.Status, storeErr.Reason)
			}
		})
	}

	got, err := store.GetTransactionByID(ctx, id)
	if err != nil {
		t.Fatalf("GetTransactionByID failed: %v", err)
	}
	if got.CategoryID != nil {
		t.Error("failed update changed the category")
	}
}
