package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
)

const transactionColumns = `id, account_id, date, description, amount, category_id,
	reconciled, tags, notes, transaction_type, fitid`

// GetTransactions returns one page of transactions matching filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, badRequest(err)
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.AccountID != nil {
		where = append(where, "account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Reconciled != nil {
		where = append(where, "reconciled = ?")
		args = append(args, *filter.Reconciled)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// GetTransactionByID returns a transaction by id, or a NotFound store error.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, s.db, id)
}

func getTransactionByID(ctx context.Context, q queryer, id int64) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFound(fmt.Sprintf("Transaction with id %d not found.", id))
	}
	return txn, err
}

// UpdateTransaction applies a partial update and returns the stored record.
// An empty update is rejected, an unknown id is NotFound, and a category id
// that does not exist is Rejected.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, id int64, update model.TransactionUpdate) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return nil, badRequest(ErrEmptyUpdate)
	}

	var updated *model.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getTransactionByID(ctx, tx, id); err != nil {
			return err
		}

		var (
			sets []string
			args []any
		)
		if update.Reconciled != nil {
			sets = append(sets, "reconciled = ?")
			args = append(args, *update.Reconciled)
		}
		if update.CategoryID.Set {
			if update.CategoryID.Value != nil {
				if _, err := getCategoryByID(ctx, tx, *update.CategoryID.Value); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewRejected(fmt.Sprintf("Category with id %d not found", *update.CategoryID.Value))
					}
					return err
				}
			}
			sets = append(sets, "category_id = ?")
			args = append(args, nullableID(update.CategoryID.Value))
		}
		if update.Tags != nil {
			tags, err := encodeTags(*update.Tags)
			if err != nil {
				return err
			}
			sets = append(sets, "tags = ?")
			args = append(args, tags)
		}
		if update.Notes != nil {
			sets = append(sets, "notes = ?")
			args = append(args, *update.Notes)
		}

		args = append(args, id)
		query := "UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update transaction %d: %w", id, err)
		}

		txn, err := getTransactionByID(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("updated transaction", "id", id)
	return updated, nil
}

// badRequest classifies a validation failure as a Rejected store error
// answered with 400.
func badRequest(err error) error {
	reason := err.Error()
	if errors.Is(err, ErrEmptyUpdate) {
		reason = "No update data provided."
	}
	return &common.StoreError{
		Kind:   common.ErrRejected,
		Err:    err,
		Status: http.StatusBadRequest,
		Reason: reason,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		date       string
		amount     string
		desc       sql.NullString
		categoryID sql.NullInt64
		tags       sql.NullString
		notes      sql.NullString
		txnType    sql.NullString
		fitid      sql.NullString
	)

	err := row.Scan(
		&txn.ID, &txn.AccountID, &date, &desc, &amount, &categoryID,
		&txn.Reconciled, &tags, &notes, &txnType, &fitid,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if txn.Date, err = model.ParseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %d: %w", txn.ID, err)
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %d: invalid amount %q: %w", txn.ID, amount, err)
	}
	if categoryID.Valid {
		txn.CategoryID = model.IDPtr(categoryID.Int64)
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &txn.Tags); err != nil {
			slog.Warn("failed to unmarshal tags", "transaction_id", txn.ID, "error", err)
		}
	}
	txn.Description = nullString(desc)
	txn.Notes = nullString(notes)
	txn.TransactionType = nullString(txnType)
	txn.FITID = nullString(fitid)

	return &txn, nil
}

func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
