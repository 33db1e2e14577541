package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linanwx/floatchat/chatlog"
	"github.com/linanwx/floatchat/dispatch"
	"github.com/linanwx/floatchat/logger"
)

// Result is the outcome of one send cycle.
type Result struct {
	LoadingID string
	Reply     string
	Err       error
}

// Pending is a committed send waiting for its reply. Run settles the
// loading placeholder exactly once, whatever the dispatcher does.
type Pending struct {
	w         *Widget
	loadingID string
	text      string
	media     *dispatch.Media

	once   sync.Once
	result Result
}

// LoadingID returns the id of the placeholder this send will patch.
func (p *Pending) LoadingID() string { return p.loadingID }

// Run dispatches and patches the placeholder with the reply, or with an
// error message plus a notification on failure. Later calls return the
// first result.
func (p *Pending) Run(ctx context.Context) Result {
	p.once.Do(func() {
		reply, err := p.dispatch(ctx)
		p.settle(reply, err)
		p.result = Result{LoadingID: p.loadingID, Reply: reply, Err: err}
	})
	return p.result
}

func (p *Pending) dispatch(ctx context.Context) (reply string, err error) {
	if p.w.dispatcher == nil {
		return "", errors.New("no reply endpoint configured")
	}
	if p.w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.w.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()

	if p.media != nil {
		return p.w.dispatcher.SendMedia(ctx, *p.media)
	}
	return p.w.dispatcher.SendText(ctx, p.text)
}

func (p *Pending) settle(reply string, err error) {
	defer p.w.finish(err)

	if err == nil {
		p.w.store.Update(p.loadingID, chatlog.Settle(reply))
		return
	}

	msg := failureMessage(err, p.w.timeout)
	logger.Error("reply dispatch failed", "loading_id", p.loadingID, "err", err)
	p.w.store.Update(p.loadingID, chatlog.Settle(ErrorPrefix+msg))
	p.w.notifier.Notify(Notification{
		Title: "Error",
		Body:  msg,
		Level: LevelError,
		At:    time.Now(),
	})
}

// failureMessage turns a dispatch error into the text shown to the user.
func failureMessage(err error, timeout time.Duration) string {
	var se *dispatch.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if timeout > 0 {
			return fmt.Sprintf("no reply within %s", timeout)
		}
		return "the reply timed out"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	case errors.As(err, &se):
		return se.Error()
	default:
		return "failed to send message, please try again"
	}
}

// Send runs a full cycle for text: commit, dispatch, settle. Dispatch
// failures are recorded in the log and notified, never returned; only
// ErrEmpty and ErrBusy come back.
func (w *Widget) Send(ctx context.Context, text string) (Result, error) {
	p, err := w.Begin(text)
	if err != nil {
		return Result{}, err
	}
	return p.Run(ctx), nil
}

// SendMedia is Send for an attachment.
func (w *Widget) SendMedia(ctx context.Context, m dispatch.Media) (Result, error) {
	p, err := w.BeginMedia(m)
	if err != nil {
		return Result{}, err
	}
	return p.Run(ctx), nil
}
