package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/reckless-spender/internal/common"
)

func TestCreateCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "  Pets  ", true)
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if cat.Name != "Pets" || !cat.IsCustom || cat.ID == 0 {
		t.Errorf("unexpected category: %+v", cat)
	}

	again, err := store.CreateCategory(ctx, "Pets", true)
	if err != nil {
		t.Fatalf("CreateCategory (existing) failed: %v", err)
	}
	if again.ID != cat.ID {
		t.Errorf("duplicate name created id %d, want %d", again.ID, cat.ID)
	}

	got, err := store.GetCategoryByID(ctx, cat.ID)
	if err != nil {
		t.Fatalf("GetCategoryByID failed: %v", err)
	}
	if got.Name != "Pets" {
		t.Errorf("got %q", got.Name)
	}

	if _, err := store.CreateCategory(ctx, "", false); !errors.Is(err, ErrEmptyString) {
		t.Errorf("expected ErrEmptyString, got %v", err)
	}
}

func TestGetCategoriesSortedByName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.CreateCategory(ctx, "Aardvark Care", true); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	cats, err := store.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories failed: %v", err)
	}
	if cats[0].Name != "Aardvark Care" {
		t.Errorf("first category = %q", cats[0].Name)
	}
	for i := 1; i < len(cats); i++ {
		if cats[i].Name < cats[i-1].Name {
			t.Errorf("categories not sorted at %d: %q < %q", i, cats[i].Name, cats[i-1].Name)
		}
	}
}

func TestGetCategoryByIDNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetCategoryByID(context.Background(), 12345)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
