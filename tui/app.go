package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/floatchat/dispatch"
	"github.com/linanwx/floatchat/drag"
	"github.com/linanwx/floatchat/logger"
	"github.com/linanwx/floatchat/widget"
)

const (
	toastDuration = 4 * time.Second
	attachCommand = "/attach "
	clearCommand  = "/clear"

	launcherLabel = "( chat )"
	helpLine      = "ctrl+o chat · esc minimize · ctrl+w close · f2 logs · ctrl+c quit"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	buttonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	quickStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	launcherStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("5")).Bold(true)
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5"))
	unreadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	toastInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	toastErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
)

// Options configures the root model.
type Options struct {
	Widget        *widget.Widget
	Screen        *Screen
	Notifications <-chan widget.Notification
	PanelSize     drag.Extent
	Title         string
}

// App is the root bubbletea model. It owns the layout and routes mouse
// and key events to the widget.
type App struct {
	w      *widget.Widget
	screen *Screen
	notes  <-chan widget.Notification
	ctx    context.Context

	chat    *ChatPanel
	input   *InputPanel
	logs    *LogPanel
	spinner spinner.Model

	want     drag.Extent
	panel    drag.Extent
	title    string
	showLogs bool

	toast    *widget.Notification
	toastSeq int
}

// NewApp creates the root TUI model.
func NewApp(ctx context.Context, opts Options) *App {
	if opts.Screen == nil {
		opts.Screen = NewScreen(0, 0)
	}
	if opts.Title == "" {
		opts.Title = "Chat"
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := &App{
		w:       opts.Widget,
		screen:  opts.Screen,
		notes:   opts.Notifications,
		ctx:     ctx,
		chat:    NewChatPanel(),
		input:   NewInputPanel("> "),
		logs:    NewLogPanel(),
		spinner: sp,
		want:    opts.PanelSize,
		title:   opts.Title,
	}
	m.recalcLayout()
	m.refreshChat()
	return m
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForNotification(m.notes))
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.screen.Set(msg.Width, msg.Height)
		m.recalcLayout()
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case InputSubmitMsg:
		return m, m.submit(msg.Text)

	case replyMsg:
		m.input.SetDisabled(false)
		m.refreshChat()
		return m, nil

	case notificationMsg:
		cmd := m.showToast(msg.n)
		return m, tea.Batch(cmd, waitForNotification(m.notes))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		if !m.w.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshChat()
		return m, cmd

	case LogLineMsg:
		_, cmd := m.logs.Update(msg)
		return m, cmd
	}

	_, cmd := m.input.Update(msg)
	return m, cmd
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "f2":
		m.showLogs = !m.showLogs
		return m, nil
	case "ctrl+o":
		m.w.Toggle()
		m.refreshChat()
		return m, nil
	case "esc":
		if m.w.State() == widget.Open {
			m.w.Minimize()
		}
		return m, nil
	case "ctrl+w":
		m.w.Close()
		return m, nil
	case "ctrl+l":
		if m.w.State() != widget.Open {
			return m, nil
		}
		if err := m.w.ClearHistory(); err != nil {
			return m, m.showToast(infoToast("Wait for the reply before clearing"))
		}
		m.refreshChat()
		return m, nil
	}

	if m.w.State() != widget.Open {
		return m, nil
	}
	if msg.Alt && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		return m, m.quickReply(int(msg.Runes[0] - '1'))
	}
	switch msg.Type {
	case tea.KeyPgUp, tea.KeyPgDown:
		_, cmd := m.chat.Update(msg)
		return m, cmd
	}
	_, cmd := m.input.Update(msg)
	return m, cmd
}

func (m *App) quickReply(i int) tea.Cmd {
	quick := m.w.QuickReplies()
	if i < 0 || i >= len(quick) || m.input.Disabled() {
		return nil
	}
	return m.submit(quick[i].Message)
}

// submit starts a send cycle. The user message and the placeholder are
// committed before the returned command runs the dispatch.
func (m *App) submit(text string) tea.Cmd {
	var (
		p   *widget.Pending
		err error
	)
	switch {
	case strings.TrimSpace(text) == clearCommand:
		if err := m.w.ClearHistory(); err != nil {
			return m.showToast(infoToast("Wait for the reply before clearing"))
		}
		m.refreshChat()
		return nil
	case strings.HasPrefix(text, attachCommand):
		path := strings.TrimSpace(strings.TrimPrefix(text, attachCommand))
		media, merr := dispatch.MediaFromFile(path)
		if merr != nil {
			logger.Warn("attachment rejected", "path", path, "err", merr)
			return m.showToast(widget.Notification{
				Title: "Error",
				Body:  fmt.Sprintf("cannot attach %s", path),
				Level: widget.LevelError,
				At:    time.Now(),
			})
		}
		p, err = m.w.BeginMedia(media)
	default:
		p, err = m.w.Begin(text)
	}

	switch {
	case errors.Is(err, widget.ErrBusy):
		return m.showToast(infoToast("Still waiting for the previous reply"))
	case err != nil:
		return nil
	}

	m.input.SetDisabled(true)
	m.refreshChat()
	ctx := m.ctx
	return tea.Batch(
		func() tea.Msg { return replyMsg{res: p.Run(ctx)} },
		m.spinner.Tick,
	)
}

func (m *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	pointer := drag.Coordinate{X: msg.X, Y: msg.Y}

	if m.w.Drag().Dragging() {
		switch msg.Action {
		case tea.MouseActionMotion:
			m.w.DragTo(pointer)
		case tea.MouseActionRelease:
			m.w.DragTo(pointer)
			m.w.EndDrag()
		}
		return nil
	}

	switch m.w.State() {
	case widget.Closed:
		if isLeftPress(msg) && m.launcherRect().contains(msg.X, msg.Y) {
			m.w.Open()
			m.refreshChat()
		}
	case widget.Minimized:
		if isLeftPress(msg) && m.barRect().contains(msg.X, msg.Y) {
			m.w.Open()
			m.refreshChat()
		}
	case widget.Open:
		geo := newPanelGeometry(m.panelPosition(), m.panel)
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			if geo.box.contains(msg.X, msg.Y) {
				_, cmd := m.chat.Update(msg)
				return cmd
			}
			return nil
		}
		if !isLeftPress(msg) {
			return nil
		}
		switch {
		case geo.close.contains(msg.X, msg.Y):
			m.w.Close()
		case geo.minimize.contains(msg.X, msg.Y):
			m.w.Minimize()
		case geo.header.contains(msg.X, msg.Y):
			m.w.BeginDrag(pointer)
		}
	}
	return nil
}

func isLeftPress(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
}

func (m *App) recalcLayout() {
	m.panel = fitPanel(m.want, m.screen.Extent())
	m.w.Drag().SetPanelExtent(m.panel)

	innerW := m.panel.Width - 2
	m.chat.SetSize(innerW, m.panel.Height-panelChromeRows)
	m.input.SetSize(innerW, 1)

	screen := m.screen.Extent()
	m.logs.SetSize(screen.Width, max(screen.Height-2, 1))
}

func (m *App) refreshChat() {
	m.chat.Update(chatSnapshotMsg{
		messages: m.w.Store().Messages(),
		spinner:  m.spinner.View(),
	})
}

func (m *App) showToast(n widget.Notification) tea.Cmd {
	m.toastSeq++
	m.toast = &n
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func infoToast(body string) widget.Notification {
	return widget.Notification{Body: body, Level: widget.LevelInfo, At: time.Now()}
}

func waitForNotification(ch <-chan widget.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

// panelPosition is the drag coordinate pinned to the current screen, which
// may have shrunk since the last move.
func (m *App) panelPosition() drag.Coordinate {
	return m.w.Drag().Clamp(m.w.Drag().Position())
}

func (m *App) launcherRect() rect {
	return anchorRect(m.screen.Extent(), lipgloss.Width(m.launcherView()), drag.Coordinate{})
}

// barRect keeps the minimized bar where the panel was moved to, relative
// to its starting corner.
func (m *App) barRect() rect {
	offset := m.w.Drag().Position().Sub(m.w.Drag().Initial())
	return anchorRect(m.screen.Extent(), lipgloss.Width(m.barView()), offset)
}

func (m *App) launcherView() string {
	label := launcherStyle.Render(launcherLabel)
	if m.w.Unread() {
		label += unreadStyle.Render(" ●")
	}
	return label
}

func (m *App) barView() string {
	label := barStyle.Render("[ " + m.title + " ]")
	if m.w.Unread() {
		label += unreadStyle.Render(" ●")
	}
	return label
}

func (m *App) View() string {
	screen := m.screen.Extent()
	if screen.Width == 0 || screen.Height == 0 {
		return "initializing..."
	}

	fixed := map[int]string{0: helpStyle.Render(helpLine)}
	if m.toast != nil {
		fixed[screen.Height-1] = m.toastView()
	}

	if m.showLogs {
		return compose(screen, 0, 1, m.logs.View(), fixed)
	}

	switch m.w.State() {
	case widget.Closed:
		r := m.launcherRect()
		return compose(screen, r.x, r.y, m.launcherView(), fixed)
	case widget.Minimized:
		r := m.barRect()
		return compose(screen, r.x, r.y, m.barView(), fixed)
	default:
		pos := m.panelPosition()
		return compose(screen, pos.X, pos.Y, m.panelView(), fixed)
	}
}

func (m *App) panelView() string {
	innerW := m.panel.Width - 2
	fit := lipgloss.NewStyle().MaxWidth(innerW)

	buttons := buttonStyle.Render(minimizeButton + " " + closeButton)
	titleW := max(innerW-lipgloss.Width(buttons)-1, 0)
	title := titleStyle.Width(titleW).MaxWidth(titleW).Render(m.title)
	header := title + " " + buttons

	sep := separatorStyle.Render(strings.Repeat("─", innerW))

	rows := []string{
		header,
		sep,
		m.chat.View(),
		sep,
		fit.Render(m.quickView()),
		fit.Render(m.input.View()),
	}
	return panelStyle.
		Width(innerW).
		Height(m.panel.Height - 2).
		MaxHeight(m.panel.Height).
		Render(strings.Join(rows, "\n"))
}

func (m *App) quickView() string {
	quick := m.w.QuickReplies()
	parts := make([]string, 0, len(quick))
	for i, q := range quick {
		if i >= 9 {
			break
		}
		parts = append(parts, fmt.Sprintf("alt+%d %s", i+1, q.Label))
	}
	return quickStyle.Render(strings.Join(parts, " · "))
}

func (m *App) toastView() string {
	text := m.toast.Body
	if m.toast.Title != "" {
		text = m.toast.Title + ": " + text
	}
	if m.toast.Level == widget.LevelError {
		return toastErrStyle.Render(" " + text + " ")
	}
	return toastInfoStyle.Render(" " + text + " ")
}
