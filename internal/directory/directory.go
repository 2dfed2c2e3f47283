// Package directory resolves category ids to display names.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// Source fetches the full category set from the store.
type Source interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// Directory is a read-mostly map of category id to category. It is filled
// once per load and never edited locally.
type Directory struct {
	source     Source
	categories map[int64]model.Category
	mu         sync.RWMutex
}

// New creates an empty directory backed by source. source may be nil when
// the directory is only ever filled through Replace.
func New(source Source) *Directory {
	return &Directory{
		source:     source,
		categories: make(map[int64]model.Category),
	}
}

// Load fetches all categories from the source and installs them.
func (d *Directory) Load(ctx context.Context) ([]model.Category, error) {
	if d.source == nil {
		return nil, fmt.Errorf("category directory has no source")
	}
	cats, err := d.source.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	d.Replace(cats)
	return cats, nil
}

// Replace installs cats as the full category set.
func (d *Directory) Replace(cats []model.Category) {
	next := make(map[int64]model.Category, len(cats))
	for _, cat := range cats {
		next[cat.ID] = cat
	}

	d.mu.Lock()
	d.categories = next
	d.mu.Unlock()
}

// Resolve looks up a category by id.
func (d *Directory) Resolve(id int64) (model.Category, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cat, ok := d.categories[id]
	return cat, ok
}

// DisplayName returns the category name for id, or "Uncategorized" when id
// is nil or does not resolve.
func (d *Directory) DisplayName(id *int64) string {
	if id == nil {
		return model.UncategorizedName
	}
	if cat, ok := d.Resolve(*id); ok {
		return cat.Name
	}
	return model.UncategorizedName
}

// List returns all categories sorted by name, then id.
func (d *Directory) List() []model.Category {
	d.mu.RLock()
	out := make([]model.Category, 0, len(d.categories))
	for _, cat := range d.categories {
		out = append(out, cat)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of known categories.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.categories)
}
