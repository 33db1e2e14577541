// Package chatlog owns the ordered chat message log and its persistence.
package chatlog

import "time"

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// MessageType classifies message content. Empty means plain text.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeAudio    MessageType = "audio"
	TypeDocument MessageType = "document"
)

// Message is one entry of the log.
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	IsLoading bool        `json:"isLoading,omitempty"`
	Type      MessageType `json:"type,omitempty"`
	MediaURL  string      `json:"mediaUrl,omitempty"`
	FileName  string      `json:"fileName,omitempty"`
}

// NewMessage holds the caller-supplied fields of a message; the store
// assigns ID and Timestamp. IsLoading is only honored for bot messages.
type NewMessage struct {
	Content   string
	Sender    Sender
	IsLoading bool
	Type      MessageType
	MediaURL  string
	FileName  string
}

// Patch is a shallow update. Nil fields are left untouched. IsLoading can
// only be set on bot messages.
type Patch struct {
	Content   *string
	IsLoading *bool
	Type      *MessageType
	MediaURL  *string
	FileName  *string
}

// Settle returns the patch that finalizes a loading placeholder.
func Settle(content string) Patch {
	loading := false
	return Patch{Content: &content, IsLoading: &loading}
}

func (p Patch) empty() bool {
	return p.Content == nil && p.IsLoading == nil && p.Type == nil && p.MediaURL == nil && p.FileName == nil
}

func (p Patch) apply(m *Message) {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.IsLoading != nil {
		m.IsLoading = *p.IsLoading && m.Sender == SenderBot
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.MediaURL != nil {
		m.MediaURL = *p.MediaURL
	}
	if p.FileName != nil {
		m.FileName = *p.FileName
	}
}
