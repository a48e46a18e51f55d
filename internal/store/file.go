package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/roomkey"
)

const roomExt = ".json"

// File stores each room as <dir>/<key>.json.
type File struct {
	dir string
}

// NewFile creates the directory if needed and returns a store over it.
func NewFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create room directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) (string, error) {
	if err := roomkey.Validate(key); err != nil {
		return "", notFound(key)
	}
	return filepath.Join(f.dir, key+roomExt), nil
}

func (f *File) Load(_ context.Context, key string) (*game.Game, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read room %s: %w", key, err)
	}
	return decode(key, data)
}

func (f *File) Save(_ context.Context, g *game.Game) error {
	path, err := f.path(g.Key)
	if err != nil {
		return err
	}
	data, err := encode(g)
	if err != nil {
		return err
	}
	return writeAtomic(path, data, 0o644)
}

func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete room %s: %w", key, err)
	}
	return nil
}

func (f *File) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, roomExt) {
			continue
		}
		key := strings.TrimSuffix(name, roomExt)
		if roomkey.Validate(key) == nil {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (f *File) Close() error { return nil }

// writeAtomic writes into a temp file beside path and renames it over path,
// so readers see either the old or the new room, never a torn one.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	committed = true
	return nil
}
