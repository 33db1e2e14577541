// Package dispatch sends chat messages to the reply webhook and decodes
// whatever shape the webhook answers with.
package dispatch

import (
	"context"
	"fmt"
)

// MediaKind is the type tag sent for binary payloads.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindAudio    MediaKind = "audio"
	KindDocument MediaKind = "document"
)

// Media is a binary attachment.
type Media struct {
	Kind     MediaKind
	FileName string
	MimeType string
	Data     []byte
	Source   string // local path the data was read from, if any
}

// Dispatcher turns an outbound message into the bot's reply text.
type Dispatcher interface {
	SendText(ctx context.Context, text string) (string, error)
	SendMedia(ctx context.Context, m Media) (string, error)
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned HTTP %d", e.Code)
}

// Func adapts a plain function to Dispatcher; media is sent as its file name.
type Func func(ctx context.Context, text string) (string, error)

func (f Func) SendText(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func (f Func) SendMedia(ctx context.Context, m Media) (string, error) {
	return f(ctx, m.FileName)
}
