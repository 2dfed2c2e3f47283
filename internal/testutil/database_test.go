package testutil

import (
	"testing"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t)

	result := db.Import("Checking",
		Txn("F1", "2024-03-01", "-10.00", "Bakery"),
		Txn("F2", "2024-03-02", "2500.00", "Payroll"),
	)
	if result.TransactionsInserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", result.TransactionsInserted)
	}

	txns := db.Transactions()
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if got := txns[0].DisplayDescription(); got != "Payroll" {
		t.Errorf("expected newest first, got %q", got)
	}

	if id := db.CategoryID("Groceries"); id == 0 {
		t.Error("expected seeded Groceries category")
	}
}
