package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/linanwx/floatchat/chatlog"
	"github.com/linanwx/floatchat/config"
	"github.com/linanwx/floatchat/dispatch"
	"github.com/linanwx/floatchat/drag"
	"github.com/linanwx/floatchat/logger"
	"github.com/linanwx/floatchat/storage"
	"github.com/linanwx/floatchat/widget"
)

// openStore opens the configured backend and the message log on top of it.
func openStore(c *config.Config) (*chatlog.Store, io.Closer, error) {
	port, closer, err := storage.Open(c.Storage)
	if err != nil {
		return nil, nil, err
	}
	return chatlog.Open(port, chatlog.WithKey(c.Storage.Key)), closer, nil
}

// newDispatcher returns the webhook dispatcher, or nil when no URL is set.
// A nil dispatcher makes every send fail with a visible error.
func newDispatcher(c *config.Config) (dispatch.Dispatcher, error) {
	if c.Webhook.URL == "" {
		logger.Warn("no webhook URL configured", "env", config.EnvWebhookURL)
		return nil, nil
	}
	wh, err := dispatch.NewWebhook(dispatch.WebhookConfig{
		URL:     c.Webhook.URL,
		Timeout: webhookTimeout(c),
		Headers: c.Webhook.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}
	return wh, nil
}

func webhookTimeout(c *config.Config) time.Duration {
	return time.Duration(c.Webhook.Timeout) * time.Second
}

func quickReplies(c *config.Config) []widget.QuickReply {
	out := make([]widget.QuickReply, 0, len(c.QuickReplies))
	for _, q := range c.QuickReplies {
		if q.Message == "" {
			continue
		}
		label := q.Label
		if label == "" {
			label = q.Message
		}
		out = append(out, widget.QuickReply{Label: label, Message: q.Message})
	}
	return out
}

// initialPosition resolves the configured panel origin against the screen.
// Negative values count from the right or bottom edge.
func initialPosition(p config.PanelConfig, screen drag.Extent) drag.Coordinate {
	x, y := p.X, p.Y
	if x < 0 {
		x += screen.Width
	}
	if y < 0 {
		y += screen.Height
	}
	return drag.Coordinate{X: max(x, 0), Y: max(y, 0)}
}

// widgetDeps is everything newWidget needs beyond the config.
type widgetDeps struct {
	store    *chatlog.Store
	drag     *drag.Controller
	notifier widget.Notifier
}

func newWidget(c *config.Config, deps widgetDeps) (*widget.Widget, error) {
	d, err := newDispatcher(c)
	if err != nil {
		return nil, err
	}
	return widget.New(widget.Config{
		Store:           deps.store,
		Dispatcher:      d,
		Drag:            deps.drag,
		Notifier:        deps.notifier,
		DispatchTimeout: webhookTimeout(c),
		QuickReplies:    quickReplies(c),
	}), nil
}
