package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/linanwx/floatchat/logger"
)

const (
	hookMaxBody         = 16 << 20
	hookShutdownTimeout = 5 * time.Second
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Serve a local echo webhook for testing",
	Long: `Serve a local webhook that echoes each message back.

The reply shape is chosen with ?shape= on the URL:
  message  {"message": "..."} (default)
  output   {"output": "..."}
  array    [{"output": "..."}]
  string   "..."
  raw      plain text body
Add ?status=500 to answer with an error status, or ?delay=3s to answer slowly.`,
	GroupID: "setup",
	RunE:    runHook,
}

var hookAddr string

func init() {
	hookCmd.Flags().StringVar(&hookAddr, "addr", "127.0.0.1:8787", "Listen address")
	rootCmd.AddCommand(hookCmd)
}

func runHook(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              hookAddr,
		Handler:           newHookRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("Echo webhook listening on http://%s/webhook\n", hookAddr)
	logger.Info("echo webhook started", "addr", hookAddr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("hook server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), hookShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHookRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hookRequestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/webhook", handleHook)
	return r
}

func hookRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("hook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func handleHook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, hookMaxBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if !gjson.ValidBytes(body) {
		http.Error(w, "body must be JSON", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if d, err := time.ParseDuration(q.Get("delay")); err == nil && d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}
	if code, err := strconv.Atoi(q.Get("status")); err == nil && code >= 400 {
		http.Error(w, "requested failure", code)
		return
	}

	reply := echoReply(body)
	out, contentType, err := shapeReply(q.Get("shape"), reply)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(out)
}

// echoReply describes what the webhook received.
func echoReply(body []byte) string {
	req := gjson.ParseBytes(body)
	kind := req.Get("type").String()
	content := req.Get("content").String()
	if kind == "" || kind == "text" {
		return "echo: " + content
	}
	size := 0
	if data, err := base64.StdEncoding.DecodeString(req.Get("file").String()); err == nil {
		size = len(data)
	}
	return fmt.Sprintf("received %s %s (%d bytes)", kind, content, size)
}

// shapeReply encodes reply in one of the response shapes the dispatcher accepts.
func shapeReply(shape, reply string) ([]byte, string, error) {
	const jsonType = "application/json"
	switch shape {
	case "", "message":
		out, err := sjson.SetBytes([]byte(`{}`), "message", reply)
		return out, jsonType, err
	case "output":
		out, err := sjson.SetBytes([]byte(`{}`), "output", reply)
		return out, jsonType, err
	case "array":
		out, err := sjson.SetBytes([]byte(`[]`), "0.output", reply)
		return out, jsonType, err
	case "string":
		out, err := sjson.SetBytes([]byte(`{}`), "v", reply)
		if err != nil {
			return nil, "", err
		}
		return []byte(gjson.GetBytes(out, "v").Raw), jsonType, nil
	case "raw":
		return []byte(reply), "text/plain; charset=utf-8", nil
	default:
		return nil, "", fmt.Errorf("unknown shape %q", shape)
	}
}
