package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "array with output", body: `[{"output":"from array"}]`, want: "from array"},
		{name: "object with message", body: `{"message":"from message"}`, want: "from message"},
		{name: "object with output", body: `{"output":"from output"}`, want: "from output"},
		{name: "message wins over output", body: `{"output":"o","message":"m"}`, want: "m"},
		{name: "bare json string", body: `"just text"`, want: "just text"},
		{name: "plain text", body: `hello there`, want: "hello there"},
		{name: "empty body", body: ``, want: ``},
		{name: "array without output", body: `[{"text":"x"}]`, want: `[{"text":"x"}]`},
		{name: "empty array", body: `[]`, want: `[]`},
		{name: "object without known field", body: `{"reply":"x"}`, want: `{"reply":"x"}`},
		{name: "empty message falls through to output", body: `{"message":"","output":"o"}`, want: "o"},
		{name: "non-string output", body: `{"output":42}`, want: `{"output":42}`},
		{name: "number", body: `42`, want: `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeReply([]byte(tt.body)); got != tt.want {
				t.Errorf("DecodeReply(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestWebhookSendTextPayloadAndReply(t *testing.T) {
	var captured map[string]any
	var contentType, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Write([]byte(`[{"output":"hello"}]`))
	}))
	defer server.Close()

	wh, err := NewWebhook(WebhookConfig{URL: server.URL, Headers: map[string]string{"Authorization": "Bearer t"}})
	if err != nil {
		t.Fatalf("NewWebhook() error = %v", err)
	}
	reply, err := wh.SendText(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if reply != "hello" {
		t.Fatalf("reply = %q, want hello", reply)
	}
	if captured["type"] != "text" || captured["content"] != "hi" || len(captured) != 2 {
		t.Fatalf("payload = %v", captured)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q", contentType)
	}
	if auth != "Bearer t" {
		t.Fatalf("Authorization = %q", auth)
	}
}

func TestWebhookSendMediaPayload(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.Write([]byte(`{"message":"got it"}`))
	}))
	defer server.Close()

	wh, _ := NewWebhook(WebhookConfig{URL: server.URL})
	reply, err := wh.SendMedia(context.Background(), Media{
		Kind:     KindImage,
		FileName: "cat.png",
		MimeType: "image/png",
		Data:     []byte{0x89, 'P', 'N', 'G'},
	})
	if err != nil {
		t.Fatalf("SendMedia() error = %v", err)
	}
	if reply != "got it" {
		t.Fatalf("reply = %q", reply)
	}
	if captured["type"] != "image" || captured["content"] != "cat.png" || captured["mimeType"] != "image/png" {
		t.Fatalf("payload = %v", captured)
	}
	raw, err := base64.StdEncoding.DecodeString(captured["file"])
	if err != nil || string(raw) != "\x89PNG" {
		t.Fatalf("file = %q (%v)", captured["file"], err)
	}
}

func TestWebhookNon2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"output":"should not be used"}`))
	}))
	defer server.Close()

	wh, _ := NewWebhook(WebhookConfig{URL: server.URL})
	_, err := wh.SendText(context.Background(), "hi")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Fatalf("Code = %d", se.Code)
	}
}

func TestWebhookTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	wh, _ := NewWebhook(WebhookConfig{URL: url})
	if _, err := wh.SendText(context.Background(), "hi"); err == nil {
		t.Fatal("SendText() error = nil for closed server")
	}
}

func TestWebhookRespectsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	wh, _ := NewWebhook(WebhookConfig{URL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := wh.SendText(ctx, "hi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestNewWebhookRequiresURL(t *testing.T) {
	if _, err := NewWebhook(WebhookConfig{URL: "  "}); err == nil {
		t.Fatal("NewWebhook() error = nil for empty URL")
	}
}

func TestMediaFromFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		data []byte
		want MediaKind
	}{
		{name: "image", file: "photo.png", data: []byte("\x89PNG\r\n\x1a\n"), want: KindImage},
		{name: "audio", file: "note.mp3", data: []byte("ID3"), want: KindAudio},
		{name: "document", file: "report.pdf", data: []byte("%PDF-1.4"), want: KindDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			m, err := MediaFromFile(path)
			if err != nil {
				t.Fatalf("MediaFromFile() error = %v", err)
			}
			if m.Kind != tt.want || m.FileName != tt.file || string(m.Data) != string(tt.data) {
				t.Fatalf("media = %+v", m)
			}
		})
	}
}
