package tui

import (
	"bytes"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxLogLines = 500

var logLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray

// LogPanel shows intercepted log output behind the widget when toggled on.
type LogPanel struct {
	viewport viewport.Model
	lines    []string
	maxLines int
}

// NewLogPanel creates a log panel.
func NewLogPanel() *LogPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &LogPanel{
		viewport: vp,
		maxLines: defaultMaxLogLines,
	}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case LogLineMsg:
		line := strings.TrimRight(msg.Line, "\n")
		p.lines = append(p.lines, logLineStyle.Render(line))
		if len(p.lines) > p.maxLines {
			p.lines = p.lines[len(p.lines)-p.maxLines:]
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *LogPanel) View() string {
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}

// Sender is the part of tea.Program the log writer needs.
type Sender interface {
	Send(msg tea.Msg)
}

const logQueueSize = 256

// LogWriter forwards each written line to the program as a LogLineMsg.
// Writes never block: lines are queued for a pump goroutine and dropped
// when the queue is full, so logging from inside Update or before the
// program runs cannot stall the event loop.
type LogWriter struct {
	program Sender
	lines   chan string
	done    chan struct{}
	once    sync.Once
}

// NewLogWriter starts a writer that feeds program.
func NewLogWriter(program Sender) *LogWriter {
	w := &LogWriter{
		program: program,
		lines:   make(chan string, logQueueSize),
		done:    make(chan struct{}),
	}
	go w.pump()
	return w
}

func (w *LogWriter) pump() {
	for {
		select {
		case <-w.done:
			return
		case line := <-w.lines:
			w.program.Send(LogLineMsg{Line: line})
		}
	}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	select {
	case <-w.done:
		return len(p), nil
	default:
	}
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case <-w.done:
			return len(p), nil
		case w.lines <- string(line):
		default:
			// queue full, drop
		}
	}
	return len(p), nil
}

// Close stops the pump. Later writes are discarded.
func (w *LogWriter) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}
