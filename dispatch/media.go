package dispatch

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MediaFromFile reads path and classifies it by mime type.
func MediaFromFile(path string) (Media, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Media{}, fmt.Errorf("dispatch: read attachment: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return Media{
		Kind:     KindForMime(mimeType),
		FileName: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
		Source:   abs,
	}, nil
}

// KindForMime maps a mime type to the webhook type tag.
func KindForMime(mimeType string) MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	default:
		return KindDocument
	}
}
