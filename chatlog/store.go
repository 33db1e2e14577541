package chatlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linanwx/floatchat/logger"
	"github.com/linanwx/floatchat/storage"
)

const (
	// DefaultKey is the storage key holding the serialized log.
	DefaultKey = "chat-messages"

	persistTimeout = 5 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides id generation. An id already present in the
// log is suffixed to keep ids unique.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store owns the message log. Every mutation rewrites the whole log under a
// single key; callers only ever see copies.
type Store struct {
	port  storage.Port
	key   string
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	messages []Message
}

// Open creates a store on port and loads any persisted history.
func Open(port storage.Port, opts ...Option) *Store {
	s := &Store{
		port:  port,
		key:   DefaultKey,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load()
	return s
}

// Load replaces the in-memory log with the persisted one. A missing blob
// yields an empty log; so does a malformed one, after a warning.
func (s *Store) Load() []Message {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var msgs []Message
	data, err := s.port.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.Warn("chat history unavailable, starting empty", "key", s.key, "err", err)
	default:
		msgs, err = decodeLog(data)
		if err != nil {
			logger.Warn("chat history malformed, starting empty", "key", s.key, "err", err)
			msgs = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
	return s.snapshotLocked()
}

// Add appends a message with a fresh id and the current time, persists the
// log and returns the id.
func (s *Store) Add(nm NewMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        s.uniqueIDLocked(),
		Content:   nm.Content,
		Sender:    nm.Sender,
		Timestamp: s.now(),
		IsLoading: nm.IsLoading && nm.Sender == SenderBot,
		Type:      nm.Type,
		MediaURL:  nm.MediaURL,
		FileName:  nm.FileName,
	}
	s.messages = append(s.messages, msg)
	logger.Debug("chat message added", "id", msg.ID, "sender", msg.Sender, "total", len(s.messages))
	s.persistLocked()
	return msg.ID
}

// Update merges p into the message with the given id and persists the log.
// An unknown id is ignored.
func (s *Store) Update(id string, p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		if p.empty() {
			return
		}
		p.apply(&s.messages[i])
		s.persistLocked()
		return
	}
	logger.Debug("chat message update skipped, id not found", "id", id)
}

// Clear empties the log and deletes the persisted key.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.port.Delete(ctx, s.key); err != nil {
		logger.Warn("failed to delete chat history", "key", s.key, "err", err)
	}
}

// SettleLoading finalizes every loading placeholder with content and
// returns how many were patched.
func (s *Store) SettleLoading(content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	patch := Settle(content)
	for i := range s.messages {
		if s.messages[i].IsLoading {
			patch.apply(&s.messages[i])
			n++
		}
	}
	if n > 0 {
		s.persistLocked()
	}
	return n
}

// Messages returns a copy of the log in display order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Store) snapshotLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// uniqueIDLocked returns a generated id, suffixed if the generator
// repeats an id already in the log.
func (s *Store) uniqueIDLocked() string {
	base := s.newID()
	id := base
	for n := 1; s.hasIDLocked(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (s *Store) hasIDLocked(id string) bool {
	for _, m := range s.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// persistLocked writes the whole log. Failures are logged, not returned.
func (s *Store) persistLocked() {
	data, err := encodeLog(s.messages)
	if err != nil {
		logger.Warn("failed to encode chat history", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.port.Set(ctx, s.key, data); err != nil {
		logger.Warn("failed to persist chat history", "key", s.key, "err", err)
	}
}
