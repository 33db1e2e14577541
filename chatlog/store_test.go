package chatlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linanwx/floatchat/storage"
)

func TestAddReturnsDistinctIDsWithinOneTick(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := Open(storage.NewMemory(), WithClock(func() time.Time { return frozen }))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := s.Add(NewMessage{Content: "x", Sender: SenderUser})
		if seen[id] {
			t.Fatalf("duplicate id %q at iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestAddSuffixesRepeatedGeneratorIDs(t *testing.T) {
	s := Open(storage.NewMemory(), WithIDGenerator(func() string { return "same" }))

	a := s.Add(NewMessage{Content: "a", Sender: SenderUser})
	b := s.Add(NewMessage{Content: "b", Sender: SenderUser})
	c := s.Add(NewMessage{Content: "c", Sender: SenderUser})
	if a != "same" || b != "same-1" || c != "same-2" {
		t.Fatalf("ids = %q %q %q", a, b, c)
	}
}

func TestUpdateUnknownIDLeavesLogUnchanged(t *testing.T) {
	mem := storage.NewMemory()
	s := Open(mem)
	s.Add(NewMessage{Content: "hi", Sender: SenderUser})
	before := s.Messages()

	s.Update("missing", Settle("nope"))

	after := s.Messages()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("log changed: before=%+v after=%+v", before, after)
	}
}

func TestUpdateMergesOnlySetFields(t *testing.T) {
	s := Open(storage.NewMemory())
	id := s.Add(NewMessage{Content: "", Sender: SenderBot, IsLoading: true, FileName: "keep.txt"})

	content := "hello"
	s.Update(id, Patch{Content: &content})

	got, ok := s.Get(id)
	if !ok {
		t.Fatal("message missing")
	}
	if got.Content != "hello" || !got.IsLoading || got.FileName != "keep.txt" || got.Sender != SenderBot {
		t.Fatalf("after patch = %+v", got)
	}
}

func TestReloadRoundTripsTimestamp(t *testing.T) {
	mem := storage.NewMemory()
	ts := time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.FixedZone("BRT", -3*3600))
	s := Open(mem, WithClock(func() time.Time { return ts }))
	id := s.Add(NewMessage{Content: "hi", Sender: SenderUser})

	reloaded := Open(mem)
	msgs := reloaded.Messages()
	if len(msgs) != 1 {
		t.Fatalf("reloaded %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.ID != id || m.Content != "hi" || m.Sender != SenderUser {
		t.Fatalf("reloaded message = %+v", m)
	}
	if !m.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", m.Timestamp, ts)
	}
}

func TestReloadPreservesOrderAndOptionalFields(t *testing.T) {
	mem := storage.NewMemory()
	s := Open(mem)
	s.Add(NewMessage{Content: "photo.png", Sender: SenderUser, Type: TypeImage, FileName: "photo.png", MediaURL: "file:///tmp/photo.png"})
	s.Add(NewMessage{Content: "", Sender: SenderBot, IsLoading: true})

	msgs := s.Load()
	if len(msgs) != 2 {
		t.Fatalf("Load() returned %d messages", len(msgs))
	}
	if msgs[0].Type != TypeImage || msgs[0].FileName != "photo.png" || msgs[0].MediaURL != "file:///tmp/photo.png" {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if msgs[1].Sender != SenderBot || !msgs[1].IsLoading {
		t.Fatalf("second message = %+v", msgs[1])
	}
}

func TestClearDeletesKey(t *testing.T) {
	mem := storage.NewMemory()
	s := Open(mem)
	s.Add(NewMessage{Content: "hi", Sender: SenderUser})
	if !mem.Has(DefaultKey) {
		t.Fatal("expected persisted blob after Add")
	}

	s.Clear()
	if mem.Has(DefaultKey) {
		t.Fatal("key still present after Clear")
	}
	if got := Open(mem).Messages(); len(got) != 0 {
		t.Fatalf("reloaded %d messages after Clear", len(got))
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", s.Len())
	}
}

func TestMalformedBlobFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: "{{{"},
		{name: "object instead of array", blob: `{"id":"1"}`},
		{name: "bad timestamp", blob: `[{"id":"1","content":"x","sender":"user","timestamp":"yesterday"}]`},
		{name: "missing id", blob: `[{"content":"x","sender":"user","timestamp":"2026-03-01T09:00:00Z"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemory()
			if err := mem.Set(context.Background(), DefaultKey, []byte(tt.blob)); err != nil {
				t.Fatal(err)
			}
			s := Open(mem)
			if s.Len() != 0 {
				t.Fatalf("Len() = %d, want 0", s.Len())
			}
			s.Add(NewMessage{Content: "fresh", Sender: SenderUser})
			if s.Len() != 1 {
				t.Fatalf("Len() = %d after Add", s.Len())
			}
		})
	}
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	s := Open(storage.NewMemory())
	s.Add(NewMessage{Content: "original", Sender: SenderUser})

	snap := s.Messages()
	snap[0].Content = "mutated"

	if got := s.Messages()[0].Content; got != "original" {
		t.Fatalf("store content = %q, want original", got)
	}
}

func TestSettleLoadingPatchesStrandedPlaceholders(t *testing.T) {
	mem := storage.NewMemory()
	s := Open(mem)
	s.Add(NewMessage{Content: "hi", Sender: SenderUser})
	s.Add(NewMessage{Sender: SenderBot, IsLoading: true})

	reopened := Open(mem)
	if n := reopened.SettleLoading("Error: interrupted"); n != 1 {
		t.Fatalf("SettleLoading() = %d, want 1", n)
	}
	msgs := Open(mem).Messages()
	if msgs[1].IsLoading || msgs[1].Content != "Error: interrupted" {
		t.Fatalf("settled message = %+v", msgs[1])
	}
	if n := reopened.SettleLoading("again"); n != 0 {
		t.Fatalf("second SettleLoading() = %d, want 0", n)
	}
}

type failingPort struct{ storage.Port }

func (failingPort) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestWriteFailureKeepsInMemoryLog(t *testing.T) {
	s := Open(failingPort{Port: storage.NewMemory()})
	id := s.Add(NewMessage{Content: "hi", Sender: SenderUser})
	if _, ok := s.Get(id); !ok {
		t.Fatal("message lost after failed persist")
	}
}

func TestLoadingFlagOnlyAppliesToBotMessages(t *testing.T) {
	mem := storage.NewMemory()
	s := Open(mem)

	userID := s.Add(NewMessage{Content: "hi", Sender: SenderUser, IsLoading: true})
	botID := s.Add(NewMessage{Sender: SenderBot, IsLoading: true})

	if m, _ := s.Get(userID); m.IsLoading {
		t.Fatalf("user message stored as loading: %+v", m)
	}
	if m, _ := s.Get(botID); !m.IsLoading {
		t.Fatalf("bot placeholder lost its loading flag: %+v", m)
	}

	loading := true
	s.Update(userID, Patch{IsLoading: &loading})
	if m, _ := s.Get(userID); m.IsLoading {
		t.Fatalf("patch marked a user message as loading: %+v", m)
	}

	reloaded := Open(mem)
	if m, _ := reloaded.Get(userID); m.IsLoading {
		t.Fatalf("reloaded user message is loading: %+v", m)
	}
}

func TestDecodeClearsLoadingOnUserRecords(t *testing.T) {
	blob := []byte(`[{"id":"u1","content":"hi","sender":"user","timestamp":"2026-03-01T09:00:00Z","isLoading":true}]`)
	msgs, err := decodeLog(blob)
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}
	if len(msgs) != 1 || msgs[0].IsLoading {
		t.Fatalf("decoded = %+v", msgs)
	}
}
