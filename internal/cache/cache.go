// Package cache holds the in-memory view of the transaction list that the
// review screen renders and the edit coordinator mutates.
package cache

import (
	"fmt"
	"sync"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
)

// Cache is an ordered, id-indexed set of transactions. All reads return
// copies, and every write happens under the write lock, so a reader never
// observes a partially updated record.
type Cache struct {
	index map[int64]*model.Transaction
	order []int64
	mu    sync.RWMutex
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		index: make(map[int64]*model.Transaction),
	}
}

// Get returns a copy of the transaction with the given id.
func (c *Cache) Get(id int64) (model.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	txn, ok := c.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return txn.Clone(), true
}

// List returns copies of all transactions in load order.
func (c *Cache) List() []model.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Transaction, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.index[id].Clone())
	}
	return out
}

// Len returns the number of cached transactions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// ReplaceAll discards the current contents and installs txns in order.
// Duplicate ids are rejected and leave the cache untouched.
func (c *Cache) ReplaceAll(txns []model.Transaction) error {
	index := make(map[int64]*model.Transaction, len(txns))
	order := make([]int64, 0, len(txns))
	for _, txn := range txns {
		if _, dup := index[txn.ID]; dup {
			return fmt.Errorf("%w: transaction %d", common.ErrDuplicateEntry, txn.ID)
		}
		clone := txn.Clone()
		index[txn.ID] = &clone
		order = append(order, txn.ID)
	}

	c.mu.Lock()
	c.index = index
	c.order = order
	c.mu.Unlock()
	return nil
}

// ApplyField sets field f of transaction id to v and returns the value it
// replaced.
func (c *Cache) ApplyField(id int64, f model.Field, v model.FieldValue) (model.FieldValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn, ok := c.index[id]
	if !ok {
		return model.FieldValue{}, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}

	previous, err := txn.Field(f)
	if err != nil {
		return model.FieldValue{}, err
	}
	if err := txn.SetField(f, v); err != nil {
		return model.FieldValue{}, err
	}
	return previous, nil
}
