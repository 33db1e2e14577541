package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linanwx/floatchat/dispatch"
)

func TestHookShapesDecodeToSameReply(t *testing.T) {
	srv := httptest.NewServer(newHookRouter())
	defer srv.Close()

	for _, shape := range []string{"", "message", "output", "array", "string", "raw"} {
		t.Run("shape="+shape, func(t *testing.T) {
			wh, err := dispatch.NewWebhook(dispatch.WebhookConfig{URL: srv.URL + "/webhook?shape=" + shape})
			if err != nil {
				t.Fatalf("NewWebhook: %v", err)
			}
			got, err := wh.SendText(context.Background(), `say "hi"`)
			if err != nil {
				t.Fatalf("SendText: %v", err)
			}
			if want := `echo: say "hi"`; got != want {
				t.Fatalf("reply = %q, want %q", got, want)
			}
		})
	}
}

func TestHookEchoesMedia(t *testing.T) {
	srv := httptest.NewServer(newHookRouter())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	media, err := dispatch.MediaFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	wh, _ := dispatch.NewWebhook(dispatch.WebhookConfig{URL: srv.URL + "/webhook"})

	got, err := wh.SendMedia(context.Background(), media)
	if err != nil {
		t.Fatalf("SendMedia: %v", err)
	}
	if want := "received image photo.png (16 bytes)"; got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestHookRequestedStatus(t *testing.T) {
	srv := httptest.NewServer(newHookRouter())
	defer srv.Close()

	wh, _ := dispatch.NewWebhook(dispatch.WebhookConfig{URL: srv.URL + "/webhook?status=503"})
	_, err := wh.SendText(context.Background(), "hi")

	var se *dispatch.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want status 503", err)
	}
}

func TestHookDelayHonoursClientDeadline(t *testing.T) {
	srv := httptest.NewServer(newHookRouter())
	defer srv.Close()

	wh, _ := dispatch.NewWebhook(dispatch.WebhookConfig{URL: srv.URL + "/webhook?delay=2s"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := wh.SendText(ctx, "hi"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestHookRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(newHookRouter())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhook", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestShapeReplyUnknown(t *testing.T) {
	if _, _, err := shapeReply("xml", "hi"); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}
