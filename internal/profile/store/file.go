package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File keeps the profile as one JSON object on disk.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", false, err
	}

	v, ok := entries[key]

	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	entries[key] = value

	return f.save(entries)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := entries[key]; !ok {
		return nil
	}

	delete(entries, key)

	return f.save(entries)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing profile: %w", err)
	}

	return nil
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	return entries, nil
}

// save replaces the file through a rename.
func (f *File) save(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing profile: %w", err)
	}

	return nil
}
