// Package loader performs the initial joint fetch of transactions and
// categories and tracks the page lifecycle around it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// ErrLoadInProgress is returned when Load is called while a load is running.
var ErrLoadInProgress = errors.New("load already in progress")

// State is the lifecycle state of the loaded data.
type State int

const (
	// StateIdle means nothing has been loaded yet.
	StateIdle State = iota
	// StateLoading means both fetches are outstanding or one is.
	StateLoading
	// StateReady means both collections are installed.
	StateReady
	// StateFailed means a fetch failed and nothing was installed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source fetches the two collections from the store.
type Source interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// TransactionSink receives the loaded transactions.
type TransactionSink interface {
	ReplaceAll(txns []model.Transaction) error
}

// CategorySink receives the loaded categories.
type CategorySink interface {
	Replace(cats []model.Category)
}

// FetchError identifies which fetch failed.
type FetchError struct {
	Err      error
	Resource string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Orchestrator moves Idle -> Loading -> Ready | Failed. Both fetches start
// together, the first failure ends the load, and the cache and directory
// are only written once both fetches have succeeded.
type Orchestrator struct {
	source       Source
	transactions TransactionSink
	categories   CategorySink
	err          error
	onChange     func(State, error)
	loadedAt     time.Time
	state        State
	mu           sync.RWMutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStateHook registers fn to run on every state transition.
func WithStateHook(fn func(State, error)) Option {
	return func(o *Orchestrator) {
		o.onChange = fn
	}
}

// New creates an orchestrator that fills transactions and categories from source.
func New(source Source, transactions TransactionSink, categories CategorySink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:       source,
		transactions: transactions,
		categories:   categories,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type fetchResult[T any] struct {
	err   error
	items []T
}

// Load runs one load cycle. It returns nil once Ready, or the first fetch
// error once Failed. Calling Load again after it finishes starts a new
// cycle; nothing retries on its own.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateLoading {
		o.mu.Unlock()
		return ErrLoadInProgress
	}
	o.state = StateLoading
	o.err = nil
	o.mu.Unlock()
	o.notify(StateLoading, nil)

	start := time.Now()
	txnCh := make(chan fetchResult[model.Transaction], 1)
	catCh := make(chan fetchResult[model.Category], 1)

	go func() {
		txns, err := o.source.ListTransactions(ctx)
		txnCh <- fetchResult[model.Transaction]{items: txns, err: err}
	}()
	go func() {
		cats, err := o.source.ListCategories(ctx)
		catCh <- fetchResult[model.Category]{items: cats, err: err}
	}()

	var (
		txns    []model.Transaction
		cats    []model.Category
		gotTxns bool
		gotCats bool
	)
	for !gotTxns || !gotCats {
		select {
		case res := <-txnCh:
			if res.err != nil {
				return o.fail(&FetchError{Resource: "transactions", Err: res.err})
			}
			txns, gotTxns = res.items, true
		case res := <-catCh:
			if res.err != nil {
				return o.fail(&FetchError{Resource: "categories", Err: res.err})
			}
			cats, gotCats = res.items, true
		}
	}

	if err := o.transactions.ReplaceAll(txns); err != nil {
		return o.fail(&FetchError{Resource: "transactions", Err: err})
	}
	o.categories.Replace(cats)

	o.mu.Lock()
	o.state = StateReady
	o.loadedAt = time.Now()
	o.mu.Unlock()

	slog.Info("loaded transactions and categories",
		"transactions", len(txns),
		"categories", len(cats),
		"duration", time.Since(start))
	o.notify(StateReady, nil)
	return nil
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.state = StateFailed
	o.err = err
	o.mu.Unlock()

	slog.Error("load failed", "error", err)
	o.notify(StateFailed, err)
	return err
}

func (o *Orchestrator) notify(s State, err error) {
	if o.onChange != nil {
		o.onChange(s, err)
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Err returns the error that moved the orchestrator to Failed.
func (o *Orchestrator) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

// LoadedAt returns when the last successful load finished.
func (o *Orchestrator) LoadedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loadedAt
}
