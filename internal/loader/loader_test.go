package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/reckless-spender/internal/cache"
	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/directory"
	"github.com/Veraticus/reckless-spender/internal/model"
)

// fakeSource answers each fetch once its gate is released.
type fakeSource struct {
	txnErr   error
	catErr   error
	txnGate  chan struct{}
	catGate  chan struct{}
	txns     []model.Transaction
	cats     []model.Category
	txnCalls int
	catCalls int
	mu       sync.Mutex
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		txns: []model.Transaction{{ID: 1}, {ID: 2}},
		cats: []model.Category{{ID: 1, Name: "Groceries"}},
	}
}

func (f *fakeSource) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	f.txnCalls++
	gate := f.txnGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.txns, f.txnErr
}

func (f *fakeSource) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	f.catCalls++
	gate := f.catGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.cats, f.catErr
}

func TestLoad_Ready(t *testing.T) {
	src := newFakeSource()
	c := cache.New()
	d := directory.New(nil)

	var states []State
	o := New(src, c, d, WithStateHook(func(s State, _ error) { states = append(states, s) }))
	assert.Equal(t, StateIdle, o.State())

	require.NoError(t, o.Load(context.Background()))
	assert.Equal(t, StateReady, o.State())
	assert.NoError(t, o.Err())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "Groceries", d.DisplayName(model.IDPtr(1)))
	assert.False(t, o.LoadedAt().IsZero())
	assert.Equal(t, []State{StateLoading, StateReady}, states)
}

func TestLoad_FailsFastOnCategories(t *testing.T) {
	src := newFakeSource()
	src.txnGate = make(chan struct{})
	src.catErr = common.NewTransport(errors.New("connection refused"))
	defer close(src.txnGate)

	c := cache.New()
	d := directory.New(nil)
	o := New(src, c, d)

	errCh := make(chan error, 1)
	go func() { errCh <- o.Load(context.Background()) }()

	select {
	case err := <-errCh:
		require.Error(t, err)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "categories", fetchErr.Resource)
		assert.ErrorIs(t, err, common.ErrTransport)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not fail while transactions were still outstanding")
	}

	assert.Equal(t, StateFailed, o.State())
	assert.Error(t, o.Err())
	assert.Equal(t, 0, c.Len(), "nothing is installed on failure")
	assert.Equal(t, 0, d.Len())
}

func TestLoad_TransactionsFailureInstallsNothing(t *testing.T) {
	src := newFakeSource()
	src.txnErr = common.NewRejected("bad filter")

	c := cache.New()
	d := directory.New(nil)
	o := New(src, c, d)

	err := o.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, o.State())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, d.Len())
}

func TestLoad_FailedReloadKeepsPreviousContents(t *testing.T) {
	src := newFakeSource()
	c := cache.New()
	d := directory.New(nil)
	o := New(src, c, d)

	require.NoError(t, o.Load(context.Background()))

	src.mu.Lock()
	src.txns = []model.Transaction{{ID: 9}}
	src.catErr = errors.New("boom")
	src.mu.Unlock()

	require.Error(t, o.Load(context.Background()))
	assert.Equal(t, StateFailed, o.State())
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(9)
	assert.False(t, ok)
	assert.Equal(t, 1, d.Len())
}

func TestLoad_InProgress(t *testing.T) {
	src := newFakeSource()
	src.txnGate = make(chan struct{})
	src.catGate = make(chan struct{})

	o := New(src, cache.New(), directory.New(nil))

	errCh := make(chan error, 1)
	go func() { errCh <- o.Load(context.Background()) }()

	require.Eventually(t, func() bool { return o.State() == StateLoading }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, o.Load(context.Background()), ErrLoadInProgress)

	close(src.txnGate)
	close(src.catGate)
	require.NoError(t, <-errCh)
	assert.Equal(t, StateReady, o.State())

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.txnCalls)
	assert.Equal(t, 1, src.catCalls)
}

func TestLoad_DuplicateTransactionIDs(t *testing.T) {
	src := newFakeSource()
	src.txns = []model.Transaction{{ID: 1}, {ID: 1}}

	c := cache.New()
	d := directory.New(nil)
	o := New(src, c, d)

	err := o.Load(context.Background())
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	assert.Equal(t, StateFailed, o.State())
	assert.Equal(t, 0, d.Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
