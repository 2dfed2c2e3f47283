package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/reckless-spender/internal/edits"
	"github.com/Veraticus/reckless-spender/internal/loader"
	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/tui/themes"
)

// TransactionView is the read side of the local transaction cache.
type TransactionView interface {
	Get(id int64) (model.Transaction, bool)
	List() []model.Transaction
}

// CategoryView is the read side of the category directory.
type CategoryView interface {
	List() []model.Category
	DisplayName(id *int64) string
}

// Editor submits edits and reports their state.
type Editor interface {
	Dispatch(ctx context.Context, transactionID int64, field model.Field, value model.FieldValue) (<-chan edits.Result, error)
	Pending(transactionID int64) bool
	Errors() []*edits.EditError
	Err(transactionID int64) error
	DismissError(transactionID int64)
}

// Loader fills the cache and directory.
type Loader interface {
	Load(ctx context.Context) error
	State() loader.State
	Err() error
}

// Session wires the review screen to the synchronization core.
type Session struct {
	Transactions TransactionView
	Categories   CategoryView
	Editor       Editor
	Loader       Loader
}

// Model holds the review screen state.
type Model struct {
	ctx       context.Context
	session   Session
	lastError error
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	table     table.Model
	rowIDs    []int64
	config    Config
	height    int
	width     int
	loading   bool
	quitting  bool
}

// New creates the review model.
func New(ctx context.Context, session Session, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	keymap := DefaultKeyMap()

	t := table.New(
		table.WithColumns(columnsFor(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(cfg.Height)),
	)
	t.KeyMap = keymap.tableKeyMap()
	t.SetStyles(cfg.Theme.TableStyles())

	h := help.New()
	h.ShowAll = cfg.ShowHelp

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cfg.Theme.StatusInfo

	return Model{
		ctx:     ctx,
		session: session,
		theme:   cfg.Theme,
		keymap:  keymap,
		help:    h,
		spinner: s,
		table:   t,
		config:  cfg,
		width:   cfg.Width,
		height:  cfg.Height,
		loading: true,
	}
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startLoad())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadFinishedMsg:
		if errors.Is(msg.err, loader.ErrLoadInProgress) {
			return m, nil
		}
		m.loading = false
		m.lastError = nil
		m.refreshRows()
		return m, nil

	case editResolvedMsg:
		m.refreshRows()
		return m, nil

	case errorMsg:
		m.lastError = msg.err
		m.refreshRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.handleResize()
		return m, nil

	case key.Matches(msg, m.keymap.Reload):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.startLoad())
	}

	if m.loading || m.session.Loader.State() != loader.StateReady {
		return m, nil
	}

	txn, ok := m.selected()
	switch {
	case key.Matches(msg, m.keymap.ToggleReconciled):
		if !ok {
			return m, nil
		}
		return m, m.dispatch(txn.ID, model.FieldReconciled, model.ReconciledValue(!txn.Reconciled))

	case key.Matches(msg, m.keymap.NextCategory), key.Matches(msg, m.keymap.PrevCategory):
		if !ok {
			return m, nil
		}
		step := 1
		if key.Matches(msg, m.keymap.PrevCategory) {
			step = -1
		}
		next := cycleCategory(m.session.Categories.List(), txn.CategoryID, step)
		return m, m.dispatch(txn.ID, model.FieldCategory, model.CategoryValue(next))

	case key.Matches(msg, m.keymap.Uncategorize):
		if !ok || txn.CategoryID == nil {
			return m, nil
		}
		return m, m.dispatch(txn.ID, model.FieldCategory, model.CategoryValue(nil))

	case key.Matches(msg, m.keymap.DismissError):
		if ok {
			m.session.Editor.DismissError(txn.ID)
		}
		m.lastError = nil
		m.refreshRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selected returns the cached record under the cursor.
func (m Model) selected() (model.Transaction, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rowIDs) {
		return model.Transaction{}, false
	}
	return m.session.Transactions.Get(m.rowIDs[cursor])
}

// refreshRows rebuilds the table from the cache, keeping the cursor in place.
func (m *Model) refreshRows() {
	txns := m.session.Transactions.List()
	rows := make([]table.Row, 0, len(txns))
	ids := make([]int64, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, m.rowFor(txn))
		ids = append(ids, txn.ID)
	}
	m.rowIDs = ids
	m.table.SetRows(rows)
	if cursor := m.table.Cursor(); cursor >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	m.help.Width = m.width
	m.table.SetColumns(columnsFor(m.width))
	height := tableHeight(m.height)
	if m.help.ShowAll {
		height -= len(m.keymap.FullHelp()[0]) - 1
	}
	if height < 3 {
		height = 3
	}
	m.table.SetHeight(height)
	m.refreshRows()
}

// cycleCategory steps through uncategorized followed by cats in order.
// A reference that does not resolve counts as uncategorized.
func cycleCategory(cats []model.Category, current *int64, step int) *int64 {
	ring := make([]*int64, 0, len(cats)+1)
	ring = append(ring, nil)
	idx := 0
	for _, cat := range cats {
		ring = append(ring, model.IDPtr(cat.ID))
		if current != nil && *current == cat.ID {
			idx = len(ring) - 1
		}
	}
	n := len(ring)
	return ring[((idx+step)%n+n)%n]
}
