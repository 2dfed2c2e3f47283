// Package edits applies user edits to the local transaction cache before the
// store confirms them, and rolls them back when the store refuses.
package edits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
)

// Cache is the subset of the local transaction cache the coordinator uses.
type Cache interface {
	Get(id int64) (model.Transaction, bool)
	ApplyField(id int64, f model.Field, v model.FieldValue) (model.FieldValue, error)
}

// Updater sends one single-field update to the store.
type Updater interface {
	UpdateField(ctx context.Context, transactionID int64, field model.Field, value model.FieldValue) error
}

// EditError is the transaction-scoped failure surfaced to the user.
type EditError struct {
	Err           error
	Field         model.Field
	TransactionID int64
}

func (e *EditError) Error() string {
	reason := e.Err.Error()
	var storeErr *common.StoreError
	if errors.As(e.Err, &storeErr) && storeErr.Reason != "" {
		reason = storeErr.Reason
	}
	if e.Field == model.FieldCategory {
		return fmt.Sprintf("Error updating category for transaction %d: %s. Reverting change.", e.TransactionID, reason)
	}
	return fmt.Sprintf("Error updating transaction %d: %s. Reverting change.", e.TransactionID, reason)
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// Result reports how one dispatched edit resolved.
type Result struct {
	// Err is nil when the store accepted the edit, and an *EditError otherwise.
	Err      error
	Snapshot model.Snapshot
	Intent   model.EditIntent
	// Restored is true when the rollback wrote the pre-edit value back into
	// the cache. A failed edit that a newer edit on the same field already
	// replaced leaves the cache alone.
	Restored bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithResultHook registers fn to run after every edit resolves.
func WithResultHook(fn func(Result)) Option {
	return func(c *Coordinator) {
		c.onResult = fn
	}
}

// Coordinator runs the apply, call, commit-or-rollback cycle for each edit.
// Edits to different transactions run independently. Edits to the same
// transaction are serialized around every cache mutation by a per-id lock,
// and rollback restores only the field the failed edit changed.
type Coordinator struct {
	cache    Cache
	store    Updater
	locks    *keyLock
	errors   map[int64]*EditError
	onResult func(Result)
	errMu    sync.RWMutex
}

// New creates a coordinator over cache and store.
func New(cache Cache, store Updater, opts ...Option) *Coordinator {
	c := &Coordinator{
		cache:  cache,
		store:  store,
		locks:  newKeyLock(),
		errors: make(map[int64]*EditError),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitEdit applies the edit, waits for the store, and returns nil on commit
// or the *EditError that was surfaced for the transaction.
func (c *Coordinator) SubmitEdit(ctx context.Context, transactionID int64, field model.Field, value model.FieldValue) error {
	done, err := c.Dispatch(ctx, transactionID, field, value)
	if err != nil {
		return err
	}
	return (<-done).Err
}

// Dispatch applies the edit to the cache immediately and sends it to the
// store in the background. The returned channel delivers exactly one Result.
//
// A transaction missing from the cache fails here with an *EditError
// wrapping common.ErrNotFound; nothing is changed and no request is sent.
// Once dispatched, the store call is not cancelled by ctx.
func (c *Coordinator) Dispatch(ctx context.Context, transactionID int64, field model.Field, value model.FieldValue) (<-chan Result, error) {
	intent := model.EditIntent{TransactionID: transactionID, Field: field, Value: value}
	if err := intent.Validate(); err != nil {
		return nil, &EditError{TransactionID: transactionID, Field: field, Err: err}
	}

	pe, err := c.apply(intent)
	if err != nil {
		return nil, err
	}

	done := make(chan Result, 1)
	callCtx := context.WithoutCancel(ctx)
	go func() {
		storeErr := c.store.UpdateField(callCtx, intent.TransactionID, intent.Field, intent.Value)
		res := c.resolve(pe, storeErr)
		if c.onResult != nil {
			c.onResult(res)
		}
		done <- res
	}()

	return done, nil
}

// apply snapshots the record and writes the new value, under the id lock.
func (c *Coordinator) apply(intent model.EditIntent) (*pendingEdit, error) {
	id := intent.TransactionID
	entry := c.locks.lock(id)
	defer c.locks.unlock(id, entry)

	current, ok := c.cache.Get(id)
	if !ok {
		return nil, &EditError{
			TransactionID: id,
			Field:         intent.Field,
			Err:           fmt.Errorf("transaction %d is not loaded: %w", id, common.ErrNotFound),
		}
	}

	snapshot := model.NewSnapshot(current, intent)
	if _, err := c.cache.ApplyField(id, intent.Field, intent.Value); err != nil {
		return nil, &EditError{TransactionID: id, Field: intent.Field, Err: err}
	}

	pe := &pendingEdit{
		snapshot: snapshot,
		restore:  snapshot.Previous(),
	}
	entry.chains[intent.Field] = append(entry.chains[intent.Field], pe)

	slog.Debug("applied optimistic edit",
		"transaction_id", id,
		"field", intent.Field,
		"value", intent.Value.Format(intent.Field),
		"previous", pe.restore.Format(intent.Field))
	return pe, nil
}

// resolve commits or rolls back pe once the store has answered.
func (c *Coordinator) resolve(pe *pendingEdit, storeErr error) Result {
	intent := pe.snapshot.Intent
	id := intent.TransactionID
	res := Result{Intent: intent, Snapshot: pe.snapshot}

	entry := c.locks.lock(id)
	chain := entry.chains[intent.Field]
	idx := indexOf(chain, pe)

	if storeErr == nil {
		// The store now holds this value, so earlier edits on the field can
		// no longer restore anything.
		if idx >= 0 {
			for _, earlier := range chain[:idx] {
				earlier.superseded = true
			}
			chain = chain[idx+1:]
		}
		setChain(entry, intent.Field, chain)
		c.clearError(id)
		c.locks.unlock(id, entry)

		slog.Debug("committed edit", "transaction_id", id, "field", intent.Field)
		return res
	}

	switch {
	case pe.superseded || idx < 0:
		// A newer edit on this field was already committed.
	case idx == len(chain)-1:
		if _, err := c.cache.ApplyField(id, intent.Field, pe.restore); err != nil {
			slog.Warn("could not restore field after failed edit",
				"transaction_id", id,
				"field", intent.Field,
				"error", err)
		} else {
			res.Restored = true
		}
		chain = chain[:idx]
	default:
		// A newer edit on the field is still in flight and its value is what
		// the cache shows. Hand it our restore value so that, if it fails too,
		// the field returns to what it was before this edit.
		chain[idx+1].restore = pe.restore
		chain = append(chain[:idx:idx], chain[idx+1:]...)
	}
	setChain(entry, intent.Field, chain)
	editErr := &EditError{TransactionID: id, Field: intent.Field, Err: storeErr}
	c.setError(editErr)
	c.locks.unlock(id, entry)
	res.Err = editErr

	slog.Warn("rolled back edit",
		"transaction_id", id,
		"field", intent.Field,
		"value", intent.Value.Format(intent.Field),
		"restored", res.Restored,
		"kind", common.KindOf(storeErr),
		"error", storeErr)
	return res
}

// Pending reports whether any edit for the transaction is still in flight.
func (c *Coordinator) Pending(transactionID int64) bool {
	return c.locks.pending(transactionID) > 0
}

// Err returns the error currently surfaced for a transaction, if any.
func (c *Coordinator) Err(transactionID int64) error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	if err, ok := c.errors[transactionID]; ok {
		return err
	}
	return nil
}

// Errors returns all surfaced errors ordered by transaction id.
func (c *Coordinator) Errors() []*EditError {
	c.errMu.RLock()
	out := make([]*EditError, 0, len(c.errors))
	for _, err := range c.errors {
		out = append(out, err)
	}
	c.errMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TransactionID < out[j].TransactionID })
	return out
}

// DismissError clears the surfaced error for a transaction.
func (c *Coordinator) DismissError(transactionID int64) {
	c.clearError(transactionID)
}

func (c *Coordinator) setError(err *EditError) {
	c.errMu.Lock()
	c.errors[err.TransactionID] = err
	c.errMu.Unlock()
}

func (c *Coordinator) clearError(id int64) {
	c.errMu.Lock()
	delete(c.errors, id)
	c.errMu.Unlock()
}

func setChain(entry *lockEntry, f model.Field, chain []*pendingEdit) {
	if len(chain) == 0 {
		delete(entry.chains, f)
		return
	}
	entry.chains[f] = chain
}

func indexOf(chain []*pendingEdit, pe *pendingEdit) int {
	for i, p := range chain {
		if p == pe {
			return i
		}
	}
	return -1
}
