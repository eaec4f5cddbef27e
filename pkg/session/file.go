package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/spangrid/pkg/errors"
)

// FileStore is a file-based anchor store for the CLI.
// Anchors are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based anchor store.
// If baseDir is empty, defaults to ~/.config/spangrid/anchors/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create anchor dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns ~/.config/spangrid/anchors.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "spangrid", "anchors"), nil
}

func (s *FileStore) anchorPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (*Anchor, error) {
	if err := errors.ValidateAnchorID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.anchorPath(id)
	a, err := readAnchor(path)
	if err != nil || a == nil {
		return nil, err
	}
	if a.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return a, nil
}

func (s *FileStore) Set(ctx context.Context, a *Anchor) error {
	if err := validate(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal anchor: %w", err)
	}
	if err := writeAtomic(s.baseDir, s.anchorPath(a.ID), data); err != nil {
		return fmt.Errorf("write anchor file: %w", err)
	}
	return nil
}

// writeAtomic replaces path so that a concurrent reader in another process
// sees either the old anchor or the new one.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".anchor-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateAnchorID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.anchorPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove anchor file: %w", err)
	}
	return nil
}

// List returns live anchors, most recently updated first.
func (s *FileStore) List(ctx context.Context) ([]*Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Anchor
	err := s.each(func(path string, a *Anchor) {
		if !a.IsExpired() {
			out = append(out, a)
		}
	})
	slices.SortFunc(out, func(a, b *Anchor) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, err
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.each(func(path string, a *Anchor) {
		if a.IsExpired() {
			os.Remove(path)
		}
	})
}

// Clear removes every anchor file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.each(func(path string, _ *Anchor) { os.Remove(path) })
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for anchor files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// each calls fn for every readable anchor file. Unreadable files are skipped.
func (s *FileStore) each(fn func(path string, a *Anchor)) error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read anchor dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		a, err := readAnchor(path)
		if err != nil || a == nil {
			continue
		}
		fn(path, a)
	}
	return nil
}

func readAnchor(path string) (*Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read anchor file: %w", err)
	}
	var a Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse anchor: %w", err)
	}
	return &a, nil
}

var _ Store = (*FileStore)(nil)
