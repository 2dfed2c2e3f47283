package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/reckless-spender/internal/cache"
	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/directory"
	"github.com/Veraticus/reckless-spender/internal/edits"
	"github.com/Veraticus/reckless-spender/internal/loader"
	"github.com/Veraticus/reckless-spender/internal/model"
)

type updateCall struct {
	reply chan error
	value model.FieldValue
	field model.Field
	txnID int64
}

// fakeStore serves fixed collections and holds every update until the test replies.
type fakeStore struct {
	catErr  error
	updates chan updateCall
	txns    []model.Transaction
	cats    []model.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updates: make(chan updateCall, 8),
		txns: []model.Transaction{
			{
				ID:          1,
				AccountID:   1,
				Date:        model.NewDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
				Description: model.StringPtr("Coffee Shop"),
				Amount:      decimal.RequireFromString("-4.50"),
				CategoryID:  model.IDPtr(10),
			},
			{
				ID:          2,
				AccountID:   1,
				Date:        model.NewDate(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)),
				Description: model.StringPtr("Hardware Store"),
				Amount:      decimal.RequireFromString("-32.10"),
			},
		},
		cats: []model.Category{
			{ID: 10, Name: "Dining"},
			{ID: 20, Name: "Shopping"},
		},
	}
}

func (s *fakeStore) ListTransactions(context.Context) ([]model.Transaction, error) {
	return s.txns, nil
}

func (s *fakeStore) ListCategories(context.Context) ([]model.Category, error) {
	if s.catErr != nil {
		return nil, s.catErr
	}
	return s.cats, nil
}

func (s *fakeStore) UpdateField(_ context.Context, id int64, field model.Field, value model.FieldValue) error {
	call := updateCall{txnID: id, field: field, value: value, reply: make(chan error, 1)}
	s.updates <- call
	return <-call.reply
}

func (s *fakeStore) next(t *testing.T) updateCall {
	t.Helper()
	select {
	case call := <-s.updates:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("no update reached the store")
		return updateCall{}
	}
}

type harness struct {
	store *fakeStore
	cache *cache.Cache
	model Model
}

func newHarness(t *testing.T, store *fakeStore) *harness {
	t.Helper()
	c := cache.New()
	d := directory.New(nil)
	session := Session{
		Transactions: c,
		Categories:   d,
		Editor:       edits.New(c, store),
		Loader:       loader.New(store, c, d),
	}
	m := New(context.Background(), session, WithSize(120, 40), WithAltScreen(false))
	h := &harness{store: store, cache: c, model: m}
	h.send(t, m.startLoad()())
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func TestLoadRendersTable(t *testing.T) {
	h := newHarness(t, newFakeStore())

	assert.False(t, h.model.loading)
	view := h.model.View()
	assert.Contains(t, view, "Coffee Shop")
	assert.Contains(t, view, "Hardware Store")
	assert.Contains(t, view, "Dining")
	assert.Contains(t, view, model.UncategorizedName)
	assert.Contains(t, view, "-32.10")
	assert.Contains(t, view, "2 transactions")
}

func TestToggleReconciledShowsBeforeStoreAnswers(t *testing.T) {
	h := newHarness(t, newFakeStore())

	cmd := h.send(t, space)
	require.NotNil(t, cmd)

	call := h.store.next(t)
	assert.Equal(t, int64(1), call.txnID)
	assert.Equal(t, model.FieldReconciled, call.field)
	assert.True(t, call.value.Reconciled)

	txn, _ := h.cache.Get(1)
	assert.True(t, txn.Reconciled, "edit is visible while the store call is in flight")
	assert.Equal(t, markerPending, h.model.table.Rows()[0][0])
	assert.Equal(t, "[x]", h.model.table.Rows()[0][5])

	call.reply <- nil
	h.send(t, cmd())

	txn, _ = h.cache.Get(1)
	assert.True(t, txn.Reconciled)
	assert.Equal(t, "", h.model.table.Rows()[0][0])
}

func TestRejectedCategoryRollsBackAndShowsError(t *testing.T) {
	h := newHarness(t, newFakeStore())

	h.send(t, tea.KeyMsg{Type: tea.KeyDown})
	cmd := h.send(t, runes("c"))
	require.NotNil(t, cmd)

	call := h.store.next(t)
	assert.Equal(t, int64(2), call.txnID)
	require.NotNil(t, call.value.CategoryID)
	assert.Equal(t, int64(10), *call.value.CategoryID, "first category after uncategorized")
	assert.Equal(t, "Dining", h.model.table.Rows()[1][4])

	call.reply <- common.NewRejected("Category with id 10 not found")
	h.send(t, cmd())

	txn, _ := h.cache.Get(2)
	assert.Nil(t, txn.CategoryID)
	assert.Equal(t, markerError, h.model.table.Rows()[1][0])
	assert.Contains(t, h.model.View(), "Error updating category for transaction 2")

	h.send(t, runes("x"))
	assert.Equal(t, "", h.model.table.Rows()[1][0])
	assert.NotContains(t, h.model.View(), "Error updating category")
}

func TestPrevCategoryAndUncategorize(t *testing.T) {
	h := newHarness(t, newFakeStore())

	cmd := h.send(t, runes("C"))
	require.NotNil(t, cmd)
	call := h.store.next(t)
	assert.Nil(t, call.value.CategoryID, "Dining steps back to uncategorized")
	call.reply <- nil
	h.send(t, cmd())

	assert.Nil(t, h.send(t, runes("u")), "already uncategorized")

	cmd = h.send(t, runes("c"))
	require.NotNil(t, cmd)
	call = h.store.next(t)
	call.reply <- nil
	h.send(t, cmd())

	cmd = h.send(t, runes("u"))
	require.NotNil(t, cmd)
	call = h.store.next(t)
	assert.Equal(t, model.FieldCategory, call.field)
	assert.Nil(t, call.value.CategoryID)
	call.reply <- nil
	h.send(t, cmd())

	txn, _ := h.cache.Get(1)
	assert.Nil(t, txn.CategoryID)
}

func TestLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.catErr = errors.New("categories unavailable")
	h := newHarness(t, store)

	view := h.model.View()
	assert.Contains(t, view, "Failed to load data")
	assert.Contains(t, view, "categories unavailable")
	assert.Nil(t, h.send(t, space), "edits are ignored until a load succeeds")
	assert.Zero(t, h.cache.Len())

	store.catErr = nil
	cmd := h.send(t, runes("r"))
	require.NotNil(t, cmd)
	assert.True(t, h.model.loading)
	assert.Nil(t, h.send(t, runes("r")), "reload is ignored while loading")

	h.send(t, h.model.startLoad()())
	assert.Contains(t, h.model.View(), "Coffee Shop")
}

func TestQuit(t *testing.T) {
	h := newHarness(t, newFakeStore())

	cmd := h.send(t, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.model.View())
}

func TestCycleCategory(t *testing.T) {
	cats := []model.Category{{ID: 10, Name: "Dining"}, {ID: 20, Name: "Shopping"}}

	tests := []struct {
		current *int64
		want    *int64
		name    string
		step    int
	}{
		{name: "uncategorized forward", current: nil, step: 1, want: model.IDPtr(10)},
		{name: "middle forward", current: model.IDPtr(10), step: 1, want: model.IDPtr(20)},
		{name: "last wraps to uncategorized", current: model.IDPtr(20), step: 1, want: nil},
		{name: "uncategorized backward wraps to last", current: nil, step: -1, want: model.IDPtr(20)},
		{name: "unresolved counts as uncategorized", current: model.IDPtr(99), step: 1, want: model.IDPtr(10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cycleCategory(cats, tt.current, tt.step))
		})
	}

	assert.Nil(t, cycleCategory(nil, nil, 1), "no categories leaves only uncategorized")
}
