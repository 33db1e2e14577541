package chatlog

import (
	"encoding/json"
	"fmt"
	"time"
)

// record is the persisted form of a Message. Timestamps are stored as
// RFC 3339 text in UTC with nanoseconds so reloads sort identically.
type record struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp string      `json:"timestamp"`
	IsLoading bool        `json:"isLoading,omitempty"`
	Type      MessageType `json:"type,omitempty"`
	MediaURL  string      `json:"mediaUrl,omitempty"`
	FileName  string      `json:"fileName,omitempty"`
}

func encodeLog(msgs []Message) ([]byte, error) {
	out := make([]record, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, record{
			ID:        m.ID,
			Content:   m.Content,
			Sender:    m.Sender,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
			IsLoading: m.IsLoading,
			Type:      m.Type,
			MediaURL:  m.MediaURL,
			FileName:  m.FileName,
		})
	}
	return json.Marshal(out)
}

func decodeLog(data []byte) ([]Message, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("chatlog: decode log: %w", err)
	}

	msgs := make([]Message, 0, len(recs))
	for i, r := range recs {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("chatlog: message %d timestamp: %w", i, err)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("chatlog: message %d has no id", i)
		}
		msgs = append(msgs, Message{
			ID:        r.ID,
			Content:   r.Content,
			Sender:    r.Sender,
			Timestamp: ts,
			IsLoading: r.IsLoading && r.Sender == SenderBot,
			Type:      r.Type,
			MediaURL:  r.MediaURL,
			FileName:  r.FileName,
		})
	}
	return msgs, nil
}
