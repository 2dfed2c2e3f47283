// Package storage provides the data persistence layer for the transaction store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrEmptyUpdate        = errors.New("no update data provided")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// normalizeFilter applies the default page size and checks the bounds.
func normalizeFilter(filter service.TransactionFilter) (service.TransactionFilter, error) {
	if filter.Limit == 0 {
		filter.Limit = service.DefaultTransactionLimit
	}
	if filter.Limit < 1 || filter.Limit > service.MaxTransactionLimit {
		return filter, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidFilter, service.MaxTransactionLimit)
	}
	if filter.Offset < 0 {
		return filter, fmt.Errorf("%w: offset must not be negative", ErrInvalidFilter)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidDateRange,
			filter.EndDate.Format(model.DateLayout), filter.StartDate.Format(model.DateLayout))
	}
	return filter, nil
}

// validateStatementTransaction checks a parsed transaction before it is stored.
func validateStatementTransaction(txn *model.Transaction) error {
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.FITID == nil || strings.TrimSpace(*txn.FITID) == "" {
		return fmt.Errorf("%w: missing fitid", ErrInvalidTransaction)
	}
	return nil
}
