package tui

import (
	"github.com/Veraticus/reckless-spender/internal/edits"
)

// Data loading messages.
type loadFinishedMsg struct {
	err error
}

// Edit messages.
type editResolvedMsg struct {
	result edits.Result
}

// Error handling.
type errorMsg struct {
	err     error
	context string
}
