package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/reckless-spender/internal/loader"
	"github.com/Veraticus/reckless-spender/internal/model"
)

const (
	// Title, status line and short help.
	chromeLines   = 6
	maxErrorLines = 3

	markerPending = "…"
	markerError   = "!"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := m.theme.Title.Render("Reckless Spender · Transactions")

	var body string
	switch {
	case m.loading:
		body = lipgloss.JoinHorizontal(lipgloss.Left,
			m.spinner.View(),
			" ",
			m.theme.StatusPending.Render("Loading transactions and categories..."),
		)
	case m.session.Loader.State() == loader.StateFailed:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.StatusError.Render(fmt.Sprintf("Failed to load data: %v", m.session.Loader.Err())),
			m.theme.StatusPending.Render("Press r to try again."),
		)
	case len(m.rowIDs) == 0:
		body = m.theme.StatusPending.Render("No transactions yet. Import a statement with `reckless import`.")
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.RoundedBox.Render(m.table.View()),
			m.renderStatus(),
			m.renderErrors(),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		"",
		m.help.View(m.keymap),
	)
}

func (m Model) renderStatus() string {
	pending := 0
	for _, id := range m.rowIDs {
		if m.session.Editor.Pending(id) {
			pending++
		}
	}
	status := fmt.Sprintf("%d transactions", len(m.rowIDs))
	if pending > 0 {
		status += m.theme.StatusPending.Render(fmt.Sprintf(" · %d saving", pending))
	}
	return m.theme.Subtitle.Render(status)
}

// renderErrors lists any dispatch error that never reached the store, then
// the surfaced edit failures by transaction id.
func (m Model) renderErrors() string {
	var lines []string
	if m.lastError != nil {
		lines = append(lines, m.theme.StatusError.Render("✗ "+m.lastError.Error()))
	}
	errs := m.session.Editor.Errors()
	for i, err := range errs {
		if len(lines) == maxErrorLines {
			lines = append(lines, m.theme.StatusPending.Render(fmt.Sprintf("  and %d more", len(errs)-i)))
			break
		}
		lines = append(lines, m.theme.StatusError.Render("✗ "+err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) rowFor(txn model.Transaction) table.Row {
	marker := ""
	switch {
	case m.session.Editor.Pending(txn.ID):
		marker = markerPending
	case m.session.Editor.Err(txn.ID) != nil:
		marker = markerError
	}

	reconciled := "[ ]"
	if txn.Reconciled {
		reconciled = "[x]"
	}

	return table.Row{
		marker,
		txn.Date.String(),
		txn.DisplayDescription(),
		txn.Amount.StringFixed(2),
		m.session.Categories.DisplayName(txn.CategoryID),
		reconciled,
	}
}

// columnsFor sizes the description column to fill width.
func columnsFor(width int) []table.Column {
	fixed := []table.Column{
		{Title: "", Width: 1},
		{Title: "Date", Width: 10},
		{Title: "Description", Width: 0},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 18},
		{Title: "Rec", Width: 3},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	// Box border and padding.
	used += 4
	desc := width - used - 2
	if desc < 12 {
		desc = 12
	}
	fixed[2].Width = desc
	return fixed
}

func tableHeight(height int) int {
	h := height - chromeLines - maxErrorLines - 2
	if h < 3 {
		return 3
	}
	return h
}
