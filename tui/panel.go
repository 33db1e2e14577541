// Package tui renders the chat widget in the terminal: a launcher badge, a
// minimized bar, and a floating panel that can be dragged by its header.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/floatchat/widget"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// InputSubmitMsg is emitted when the user presses Enter in the input panel.
type InputSubmitMsg struct{ Text string }

// replyMsg reports a finished send cycle.
type replyMsg struct{ res widget.Result }

// notificationMsg carries a widget notification to the toast line.
type notificationMsg struct{ n widget.Notification }

// toastExpiredMsg hides the toast if it is still the one identified by seq.
type toastExpiredMsg struct{ seq int }
