package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	readyPlaceholder = "Type your message..."
	busyPlaceholder  = "Waiting for reply..."
)

// InputPanel is the single-line message input. It ignores keys while
// disabled so a second send cannot start during a pending reply.
type InputPanel struct {
	input    textinput.Model
	disabled bool
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = readyPlaceholder
	ti.Focus()
	return &InputPanel{input: ti}
}

// SetDisabled toggles input acceptance.
func (p *InputPanel) SetDisabled(disabled bool) {
	p.disabled = disabled
	if disabled {
		p.input.Placeholder = busyPlaceholder
		p.input.Blur()
		return
	}
	p.input.Placeholder = readyPlaceholder
	p.input.Focus()
}

// Disabled reports whether input is refused.
func (p *InputPanel) Disabled() bool { return p.disabled }

// Value returns the current text.
func (p *InputPanel) Value() string { return p.input.Value() }

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if p.disabled {
			return p, nil
		}
		if key.Type == tea.KeyEnter {
			text := strings.TrimSpace(p.input.Value())
			if text == "" {
				return p, nil
			}
			p.input.Reset()
			return p, func() tea.Msg { return InputSubmitMsg{Text: text} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.input.Width = max(width-len(p.input.Prompt)-1, 1)
}
