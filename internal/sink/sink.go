// Package sink writes catalog output files.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Sink receives output files. Implementations are safe for concurrent use.
type Sink interface {
	// WriteFile writes content to a slash-separated path relative to the
	// sink's destination.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(ctx context.Context, s Sink, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.WriteFile(ctx, path, append(data, '\n'))
}

// Dir writes files below a directory on the local filesystem.
type Dir struct {
	Root string
	// Mode is the file mode of written files. Zero means 0644.
	Mode os.FileMode
}

// WriteFile replaces the file atomically: content goes to a temporary file
// in the target directory which is then renamed over the destination.
func (d Dir) WriteFile(ctx context.Context, p string, content []byte) error {
	if err := ValidatePath(p); err != nil {
		return fmt.Errorf("invalid path %q: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(d.Root, filepath.FromSlash(p))
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	mode := d.Mode
	if mode == 0 {
		mode = 0o644
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Memory keeps written files in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// WriteFile implements Sink.
func (m *Memory) WriteFile(ctx context.Context, p string, content []byte) error {
	if err := ValidatePath(p); err != nil {
		return fmt.Errorf("invalid path %q: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[p] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of the file at p, or nil.
func (m *Memory) Get(p string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[p]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// ValidatePath reports whether p is a clean, relative, slash-separated path
// that stays inside the destination.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return errors.New("path is empty")
	case strings.HasPrefix(p, "/") || filepath.IsAbs(p) || filepath.VolumeName(p) != "":
		return errors.New("absolute paths not allowed")
	case strings.Contains(p, `\`):
		return errors.New("path must use forward slashes")
	}
	if cleaned := path.Clean(p); cleaned != p {
		return fmt.Errorf("path is not clean (expected %q)", cleaned)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return errors.New("path traversal not allowed")
	}
	return nil
}
