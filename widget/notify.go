package widget

import "time"

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient user-facing message, shown apart from the
// chat log.
type Notification struct {
	Title string
	Body  string
	Level Level
	At    time.Time
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ChanNotifier delivers notifications on a buffered channel, dropping them
// when the reader falls behind.
type ChanNotifier struct {
	ch chan Notification
}

// NewChanNotifier returns a notifier with the given buffer size.
func NewChanNotifier(size int) *ChanNotifier {
	if size <= 0 {
		size = 1
	}
	return &ChanNotifier{ch: make(chan Notification, size)}
}

func (c *ChanNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

// C returns the receive side.
func (c *ChanNotifier) C() <-chan Notification {
	return c.ch
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
