package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileSuffix = ".kv"

// FileBackend stores one file per key inside a directory.
type FileBackend struct {
	dir string
}

// OpenFile returns a file backend rooted at dir, creating it if needed.
func OpenFile(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("fallback directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fallback directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Name implements Backend.
func (f *FileBackend) Name() string { return "file" }

// Close implements Backend.
func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) pathFor(key string) string {
	return filepath.Join(f.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+fileSuffix)
}

// Get implements Backend.
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Set writes the value through a temp file and rename.
func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	tmpFile, err := os.CreateTemp(f.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp entry: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close entry: %w", err)
	}
	if err := os.Rename(tmpPath, f.pathFor(key)); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (f *FileBackend) Delete(_ context.Context, key string) (bool, error) {
	err := os.Remove(f.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Entries returns every entry ordered by encoded file name.
func (f *FileBackend) Entries(_ context.Context) ([]RawEntry, error) {
	dirEntries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var result []RawEntry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			continue
		}
		result = append(result, RawEntry{Key: string(key), Value: data})
	}
	return result, nil
}
