package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/reckless-spender/internal/edits"
	"github.com/Veraticus/reckless-spender/internal/model"
)

// startLoad runs one load cycle through the orchestrator.
func (m Model) startLoad() tea.Cmd {
	ctx := m.ctx
	l := m.session.Loader
	return func() tea.Msg {
		return loadFinishedMsg{err: l.Load(ctx)}
	}
}

// dispatch applies the edit optimistically and waits for the store in the
// background. The table is rebuilt right away so the edit shows before the
// store answers.
func (m *Model) dispatch(id int64, field model.Field, value model.FieldValue) tea.Cmd {
	done, err := m.session.Editor.Dispatch(m.ctx, id, field, value)
	if err != nil {
		m.lastError = err
		m.refreshRows()
		return nil
	}
	m.lastError = nil
	m.refreshRows()
	return waitForResult(done)
}

func waitForResult(done <-chan edits.Result) tea.Cmd {
	return func() tea.Msg {
		return editResolvedMsg{result: <-done}
	}
}
