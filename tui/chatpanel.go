package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/floatchat/chatlog"
	"github.com/linanwx/floatchat/widget"
)

const timeLayout = "15:04"

var (
	userNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true) // cyan
	botNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true) // magenta
	stampStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mediaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// chatSnapshotMsg replaces the rendered history.
type chatSnapshotMsg struct {
	messages []chatlog.Message
	spinner  string
}

// ChatPanel displays conversation history in a scrollable viewport.
type ChatPanel struct {
	viewport viewport.Model
	messages []chatlog.Message
	spinner  string
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case chatSnapshotMsg:
		atBottom := p.viewport.AtBottom() || len(msg.messages) != len(p.messages)
		p.messages = msg.messages
		p.spinner = msg.spinner
		p.render()
		if atBottom {
			p.viewport.GotoBottom()
		}
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.render()
}

func (p *ChatPanel) render() {
	if len(p.messages) == 0 {
		p.viewport.SetContent(emptyStyle.Render("Start a conversation!"))
		return
	}
	body := lipgloss.NewStyle().Width(max(p.viewport.Width, 1))
	blocks := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		blocks = append(blocks, renderMessage(m, p.spinner, body))
	}
	p.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

func renderMessage(m chatlog.Message, spinner string, body lipgloss.Style) string {
	name := botNameStyle.Render("bot")
	if m.Sender == chatlog.SenderUser {
		name = userNameStyle.Render("you")
	}
	header := name + " " + stampStyle.Render(m.Timestamp.Local().Format(timeLayout))

	var text string
	switch {
	case m.IsLoading:
		text = spinner + " ..."
	case m.FileName != "" && m.Type != "" && m.Type != chatlog.TypeText:
		text = mediaStyle.Render("[" + string(m.Type) + "] " + m.FileName)
	case m.Sender == chatlog.SenderBot && strings.HasPrefix(m.Content, widget.ErrorPrefix):
		text = errorStyle.Render(m.Content)
	default:
		text = m.Content
	}
	return header + "\n" + body.Render(text)
}
