package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
)

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_custom
		FROM categories
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []model.Category{}
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.IsCustom); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by id, or a NotFound store error.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoryByID(ctx, s.db, id)
}

func getCategoryByID(ctx context.Context, q queryer, id int64) (*model.Category, error) {
	var cat model.Category
	err := q.QueryRowContext(ctx, `
		SELECT id, name, is_custom
		FROM categories
		WHERE id = ?`, id).Scan(&cat.ID, &cat.Name, &cat.IsCustom)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFound(fmt.Sprintf("Category with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// CreateCategory creates a category, or returns the existing one with the same name.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, custom bool) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var existing model.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_custom
		FROM categories
		WHERE name = ?`, name).Scan(&existing.ID, &existing.Name, &existing.IsCustom)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, is_custom)
		VALUES (?, ?)`, name, custom)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created new category", "name", name, "id", id, "custom", custom)
	return &model.Category{ID: id, Name: name, IsCustom: custom}, nil
}
