// Package service defines the interfaces shared between the store server and
// its clients.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// Default and maximum page sizes for transaction listings.
const (
	DefaultTransactionLimit = 100
	MaxTransactionLimit     = 1000
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AccountID  *int64
	CategoryID *int64
	Reconciled *bool
	Limit      int
	Offset     int
}

// ImportResult summarizes one statement import.
type ImportResult struct {
	Accounts              []model.Account
	TransactionsCollected int
	TransactionsInserted  int
}

// Storage defines the contract for the authoritative store's persistence layer.
type Storage interface {
	// Transaction operations
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, update model.TransactionUpdate) (*model.Transaction, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, name string, custom bool) (*model.Category, error)

	// Statement ingestion
	ImportStatement(ctx context.Context, stmt model.Statement) (*ImportResult, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// StatementParser turns an uploaded bank statement into accounts and transactions.
type StatementParser interface {
	Parse(ctx context.Context, r io.Reader) (model.Statement, error)
}
