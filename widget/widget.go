// Package widget composes the drag controller, the message log and the
// reply dispatcher into the chat panel's behavior.
package widget

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/linanwx/floatchat/chatlog"
	"github.com/linanwx/floatchat/dispatch"
	"github.com/linanwx/floatchat/drag"
	"github.com/linanwx/floatchat/logger"
)

var (
	// ErrBusy is returned when a send starts while another is unresolved.
	ErrBusy = errors.New("widget: a reply is still pending")
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("widget: message is empty")
)

// ErrorPrefix marks bot messages that report a failed dispatch.
const ErrorPrefix = "Error: "

const interruptedReply = "the previous session ended before a reply arrived"

// State is the visibility of the panel.
type State int

const (
	Closed State = iota
	Minimized
	Open
)

func (s State) String() string {
	switch s {
	case Minimized:
		return "minimized"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// QuickReply is a canned prompt.
type QuickReply struct {
	Label   string
	Message string
}

// Config wires a Widget.
type Config struct {
	Store      *chatlog.Store
	Dispatcher dispatch.Dispatcher
	Drag       *drag.Controller
	Notifier   Notifier

	// DispatchTimeout bounds each dispatch; expiry is handled like any other
	// dispatch failure. Zero means no deadline.
	DispatchTimeout time.Duration
	QuickReplies    []QuickReply
}

// Widget is the parent controller the UI renders against.
type Widget struct {
	store      *chatlog.Store
	dispatcher dispatch.Dispatcher
	drag       *drag.Controller
	notifier   Notifier
	timeout    time.Duration
	quick      []QuickReply

	mu      sync.Mutex
	state   State
	busy    bool
	unread  bool
	dragSub *drag.Subscription
}

// New creates a closed widget. Loading placeholders left behind by an
// earlier session are settled with an error so none stay stuck.
func New(cfg Config) *Widget {
	w := &Widget{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		drag:       cfg.Drag,
		notifier:   cfg.Notifier,
		timeout:    cfg.DispatchTimeout,
		quick:      append([]QuickReply(nil), cfg.QuickReplies...),
	}
	if w.notifier == nil {
		w.notifier = discardNotifier{}
	}
	if w.drag == nil {
		w.drag = drag.New(drag.Coordinate{})
	}
	if n := w.store.SettleLoading(ErrorPrefix + interruptedReply); n > 0 {
		logger.Warn("settled stranded loading messages", "count", n)
	}
	return w
}

// Store returns the message log.
func (w *Widget) Store() *chatlog.Store { return w.store }

// Drag returns the position controller.
func (w *Widget) Drag() *drag.Controller { return w.drag }

// State returns the panel visibility.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Busy reports whether a dispatch is outstanding. Input must stay disabled
// while it is.
func (w *Widget) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Unread reports whether a reply arrived while the panel was not open.
func (w *Widget) Unread() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unread
}

// QuickReplies returns the configured canned prompts.
func (w *Widget) QuickReplies() []QuickReply {
	return append([]QuickReply(nil), w.quick...)
}

// Open shows the full panel and clears the unread flag.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Open
	w.unread = false
}

// Minimize collapses the panel to its bar.
func (w *Widget) Minimize() {
	w.endDrag()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Minimized
}

// Close hides the panel and restores its initial position, so reopening
// starts fresh.
func (w *Widget) Close() {
	w.endDrag()
	w.drag.ResetPosition()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Closed
}

// Toggle opens a closed or minimized panel and minimizes an open one.
func (w *Widget) Toggle() {
	if w.State() == Open {
		w.Minimize()
		return
	}
	w.Open()
}

// ClearHistory empties the message log. It is refused while a reply is
// pending so the placeholder cannot vanish under the dispatch.
func (w *Widget) ClearHistory() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	w.store.Clear()
	return nil
}

// BeginDrag starts moving the panel. It only applies while open.
func (w *Widget) BeginDrag(pointer drag.Coordinate) bool {
	w.mu.Lock()
	if w.state != Open {
		w.mu.Unlock()
		return false
	}
	w.mu.Unlock()

	sub := w.drag.BeginDrag(pointer)
	w.mu.Lock()
	w.dragSub = sub
	w.mu.Unlock()
	return true
}

// DragTo moves the panel with the pointer.
func (w *Widget) DragTo(pointer drag.Coordinate) drag.Coordinate {
	w.mu.Lock()
	sub := w.dragSub
	w.mu.Unlock()
	if sub == nil {
		return w.drag.Position()
	}
	return sub.Move(pointer)
}

// EndDrag finishes the current drag, if any.
func (w *Widget) EndDrag() {
	w.endDrag()
}

func (w *Widget) endDrag() {
	w.mu.Lock()
	sub := w.dragSub
	w.dragSub = nil
	w.mu.Unlock()
	if sub != nil {
		sub.Release()
	}
}

// Begin commits the user's text and a loading placeholder and returns the
// pending dispatch. The caller must Run it.
func (w *Widget) Begin(text string) (*Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}
	return w.begin(chatlog.NewMessage{Content: text, Sender: chatlog.SenderUser}, func(p *Pending) {
		p.text = text
	})
}

// BeginMedia is Begin for an attachment.
func (w *Widget) BeginMedia(m dispatch.Media) (*Pending, error) {
	if m.FileName == "" {
		return nil, ErrEmpty
	}
	return w.begin(chatlog.NewMessage{
		Content:  m.FileName,
		Sender:   chatlog.SenderUser,
		Type:     chatlog.MessageType(m.Kind),
		FileName: m.FileName,
		MediaURL: mediaURL(m),
	}, func(p *Pending) {
		media := m
		p.media = &media
	})
}

func (w *Widget) begin(user chatlog.NewMessage, fill func(*Pending)) (*Pending, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.busy = true
	w.mu.Unlock()

	w.store.Add(user)
	loadingID := w.store.Add(chatlog.NewMessage{Sender: chatlog.SenderBot, IsLoading: true})

	p := &Pending{w: w, loadingID: loadingID}
	fill(p)
	return p, nil
}

func (w *Widget) finish(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err == nil && w.state != Open {
		w.unread = true
	}
}

func mediaURL(m dispatch.Media) string {
	if m.Source == "" {
		return ""
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(m.Source)}).String()
}
