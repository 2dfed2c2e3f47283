package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to build a statement with count transactions for one account.
func createTestStatement(account string, count int) model.Statement {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txns := make([]model.Transaction, count)
	for i := range txns {
		txns[i] = model.Transaction{
			Date:            model.NewDate(base.AddDate(0, 0, i)),
			Amount:          decimal.NewFromInt(int64(-(i + 1) * 10)),
			Description:     model.StringPtr(makeTestName("Merchant", i+1)),
			TransactionType: model.StringPtr("DEBIT"),
			FITID:           model.StringPtr(makeTestName("fit", i+1)),
		}
	}
	return model.Statement{Accounts: []model.StatementAccount{{
		Name:         account,
		Type:         model.StringPtr("checking"),
		Transactions: txns,
	}}}
}

func makeTestName(prefix string, num int) string {
	return prefix + " #" + string(rune('0'+num))
}

func TestNewSQLiteStorage(t *testing.T) {
	if _, err := NewSQLiteStorage("  "); err == nil {
		t.Error("expected error for empty path")
	}

	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Path() != ":memory:" {
		t.Errorf("Path() = %q", store.Path())
	}
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Running again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	cats, err := store.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories failed: %v", err)
	}
	if len(cats) != len(DefaultCategories) {
		t.Errorf("seeded %d categories, want %d", len(cats), len(DefaultCategories))
	}
}

func TestImportStatement(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	stmt := createTestStatement("First Bank - 1234 (CHECKING)", 3)
	result, err := store.ImportStatement(ctx, stmt)
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if result.TransactionsCollected != 3 || result.TransactionsInserted != 3 {
		t.Errorf("collected=%d inserted=%d, want 3/3", result.TransactionsCollected, result.TransactionsInserted)
	}
	if len(result.Accounts) != 1 || result.Accounts[0].Name != "First Bank - 1234 (CHECKING)" {
		t.Fatalf("unexpected accounts: %+v", result.Accounts)
	}

	// Re-importing the same file inserts nothing and reuses the account.
	again, err := store.ImportStatement(ctx, stmt)
	if err != nil {
		t.Fatalf("second ImportStatement failed: %v", err)
	}
	if again.TransactionsInserted != 0 {
		t.Errorf("re-import inserted %d transactions, want 0", again.TransactionsInserted)
	}
	if again.Accounts[0].ID != result.Accounts[0].ID {
		t.Errorf("re-import created a new account")
	}

	accounts, err := store.GetAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Type == nil || *accounts[0].Type != "checking" {
		t.Errorf("unexpected accounts: %+v", accounts)
	}
}

func TestImportStatementSameFITIDDifferentAccounts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestStatement("Bank A - 1 (CHECKING)", 1)
	b := createTestStatement("Bank B - 2 (SAVINGS)", 1)
	stmt := model.Statement{Accounts: append(a.Accounts, b.Accounts...)}

	result, err := store.ImportStatement(ctx, stmt)
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if result.TransactionsInserted != 2 {
		t.Errorf("inserted %d, want 2", result.TransactionsInserted)
	}
}

func TestImportStatementRejectsMissingFITID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	stmt := createTestStatement("Bank - 1 (CHECKING)", 2)
	stmt.Accounts[0].Transactions[1].FITID = nil

	if _, err := store.ImportStatement(ctx, stmt); err == nil {
		t.Fatal("expected error for transaction without fitid")
	}

	// Nothing from the failed import is kept.
	txns, err := store.GetTransactions(ctx, defaultFilter())
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("found %d transactions after failed import", len(txns))
	}
}
