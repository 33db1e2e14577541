package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/linanwx/floatchat/logger"
)

const (
	maxResponseBytes = 4 << 20
	errorBodyPreview = 512
)

// WebhookConfig configures a Webhook.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration // per-request client timeout, 0 = none
	Headers map[string]string
	Client  *http.Client
}

// Webhook posts each message as JSON to a single endpoint.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a webhook dispatcher.
func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("dispatch: webhook URL is not configured")
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Webhook{url: url, headers: cfg.Headers, client: client}, nil
}

// SendText sends {"type":"text","content":text}.
func (w *Webhook) SendText(ctx context.Context, text string) (string, error) {
	body, err := textPayload(text)
	if err != nil {
		return "", err
	}
	logger.Debug("dispatching text message", "length", len(text))
	return w.post(ctx, body)
}

// SendMedia sends the file base64-encoded alongside its name and mime type.
func (w *Webhook) SendMedia(ctx context.Context, m Media) (string, error) {
	body, err := mediaPayload(m)
	if err != nil {
		return "", err
	}
	logger.Debug("dispatching media message", "file", m.FileName, "kind", m.Kind, "mime", m.MimeType, "size", len(m.Data))
	return w.post(ctx, body)
}

func textPayload(text string) ([]byte, error) {
	body, err := sjson.SetBytes(nil, "type", "text")
	if err == nil {
		body, err = sjson.SetBytes(body, "content", text)
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: build text payload: %w", err)
	}
	return body, nil
}

func mediaPayload(m Media) ([]byte, error) {
	fields := []struct {
		path  string
		value string
	}{
		{"type", string(m.Kind)},
		{"content", m.FileName},
		{"file", base64.StdEncoding.EncodeToString(m.Data)},
		{"mimeType", m.MimeType},
	}
	var body []byte
	var err error
	for _, f := range fields {
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return nil, fmt.Errorf("dispatch: build media payload: %w", err)
		}
	}
	return body, nil
}

func (w *Webhook) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("dispatch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("dispatch: send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("dispatch: read response: %w", err)
	}
	logger.Debug("webhook responded", "status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := string(data)
		if len(preview) > errorBodyPreview {
			preview = preview[:errorBodyPreview]
		}
		return "", &StatusError{Code: resp.StatusCode, Body: preview}
	}
	return DecodeReply(data), nil
}
