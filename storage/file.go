package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// File stores each key as one file under dir. Writes go through a temp
// file and rename so a crash never leaves a half-written blob.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile returns a file-backed store rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: strings.TrimSpace(dir)}
}

// PathForKey returns the file that holds key. Keys made only of
// [a-zA-Z0-9._-] that do not start or end with '.' or '_' map to
// "<key>.json". Any other key is sanitized and suffixed with a hash of
// the original, so distinct keys do not share a file.
func (f *File) PathForKey(key string) string {
	name := strings.Trim(unsafeKeyChars.ReplaceAllString(key, "_"), "._")
	if name == "" {
		name = "default"
	}
	if name != key {
		name = fmt.Sprintf("%s-%016x", name, xxhash.Sum64String(key))
	}
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.PathForKey(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return data, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.PathForKey(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: rename temp file: %w", err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.PathForKey(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}
