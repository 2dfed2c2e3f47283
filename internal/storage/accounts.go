package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
)

// GetAccounts returns all accounts ordered by name.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []model.Account{}
	for rows.Next() {
		var (
			acct     model.Account
			acctType sql.NullString
		)
		if err := rows.Scan(&acct.ID, &acct.Name, &acctType); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		acct.Type = nullString(acctType)
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// ImportStatement stores every account and transaction of a parsed
// statement in one database transaction. Accounts are matched by name and
// transactions already stored for the same account and FITID are skipped.
func (s *SQLiteStorage) ImportStatement(ctx context.Context, stmt model.Statement) (*service.ImportResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := &service.ImportResult{Accounts: []model.Account{}}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		insert, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (
				account_id, date, description, amount, category_id,
				reconciled, tags, notes, transaction_type, fitid
			) VALUES (?, ?, ?, ?, NULL, 0, NULL, NULL, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = insert.Close() }()

		for _, section := range stmt.Accounts {
			acct, err := findOrCreateAccount(ctx, tx, section.Name, section.Type)
			if err != nil {
				return err
			}
			result.Accounts = append(result.Accounts, *acct)

			for i := range section.Transactions {
				txn := &section.Transactions[i]
				if err := validateStatementTransaction(txn); err != nil {
					return fmt.Errorf("account %q transaction %d: %w", section.Name, i, err)
				}
				result.TransactionsCollected++

				res, err := insert.ExecContext(ctx,
					acct.ID,
					txn.Date.String(),
					nullableString(txn.Description),
					txn.Amount.String(),
					nullableString(txn.TransactionType),
					*txn.FITID,
				)
				if err != nil {
					return fmt.Errorf("failed to insert transaction %s: %w", *txn.FITID, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					result.TransactionsInserted += int(n)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("imported statement",
		"accounts", len(result.Accounts),
		"collected", result.TransactionsCollected,
		"inserted", result.TransactionsInserted)
	return result, nil
}

func findOrCreateAccount(ctx context.Context, tx *sql.Tx, name string, acctType *string) (*model.Account, error) {
	if err := validateString(name, "account name"); err != nil {
		return nil, err
	}

	var (
		acct     model.Account
		existing sql.NullString
	)
	err := tx.QueryRowContext(ctx, `SELECT id, name, type FROM accounts WHERE name = ?`, name).
		Scan(&acct.ID, &acct.Name, &existing)
	if err == nil {
		acct.Type = nullString(existing)
		return &acct, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up account %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO accounts (name, type) VALUES (?, ?)`, name, nullableString(acctType))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account ID: %w", err)
	}

	slog.Info("created account", "name", name, "id", id)
	return &model.Account{ID: id, Name: name, Type: acctType}, nil
}
