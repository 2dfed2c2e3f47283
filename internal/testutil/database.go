// Package testutil provides an in-memory store for tests that need real
// persistence behind them.
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
	"github.com/Veraticus/reckless-spender/internal/storage"
)

// TestDB is a migrated in-memory store seeded with the default categories.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It runs migrations
// and closes the database when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

// Txn builds an unsaved statement transaction.
func Txn(fitid, date, amount, description string) model.Transaction {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return model.Transaction{
		Date:        d,
		Amount:      decimal.RequireFromString(amount),
		Description: model.StringPtr(description),
		FITID:       model.StringPtr(fitid),
	}
}

// Import stores txns under one account and returns the import summary.
func (db *TestDB) Import(account string, txns ...model.Transaction) *service.ImportResult {
	db.t.Helper()

	result, err := db.Storage.ImportStatement(context.Background(), model.Statement{
		Accounts: []model.StatementAccount{{Name: account, Transactions: txns}},
	})
	if err != nil {
		db.t.Fatalf("failed to import %d transactions into %q: %v", len(txns), account, err)
	}
	return result
}

// Transactions returns every stored transaction, newest first.
func (db *TestDB) Transactions() []model.Transaction {
	db.t.Helper()

	txns, err := db.Storage.GetTransactions(context.Background(), service.TransactionFilter{
		Limit: service.MaxTransactionLimit,
	})
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}

// CategoryID returns the id of the category with the given name.
func (db *TestDB) CategoryID(name string) int64 {
	db.t.Helper()

	cats, err := db.Storage.GetCategories(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list categories: %v", err)
	}
	for _, cat := range cats {
		if cat.Name == name {
			return cat.ID
		}
	}
	db.t.Fatalf("category %q not found", name)
	return 0
}
