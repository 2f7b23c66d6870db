package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileBackend stores one JSON envelope per board in a directory.
type FileBackend struct {
	mu      sync.RWMutex
	baseDir string
}

// fileRecord is the on-disk envelope. Data is base64 in JSON.
type fileRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Digest    string    `json:"digest"`
	Encoding  Encoding  `json:"encoding"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      []byte    `json:"data"`
}

const fileExt = ".board.json"

// NewFileBackend creates a file backend. If baseDir is empty, it defaults
// to ~/.config/whiteboard/boards/.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "whiteboard", "boards")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create board dir: %w", err)
	}
	return &FileBackend{baseDir: baseDir}, nil
}

// Name implements Backend.
func (s *FileBackend) Name() string { return "file" }

// Path returns the directory holding the board files.
func (s *FileBackend) Path() string { return s.baseDir }

func (s *FileBackend) boardPath(id string) string {
	return filepath.Join(s.baseDir, id+fileExt)
}

func (s *FileBackend) read(path string) (*fileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read board file: %w", err)
	}
	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, filepath.Base(path), err)
	}
	return &fr, nil
}

// Load implements Backend.
func (s *FileBackend) Load(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fr, err := s.read(s.boardPath(id))
	if err != nil {
		return nil, err
	}
	return &Record{
		ID: fr.ID, Title: fr.Title, Digest: fr.Digest, Encoding: fr.Encoding,
		Size: fr.Size, Data: fr.Data, UpdatedAt: fr.UpdatedAt,
	}, nil
}

// Stat implements Backend.
func (s *FileBackend) Stat(ctx context.Context, id string) (Summary, error) {
	r, err := s.Load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return r.Summary(), nil
}

// Save implements Backend. The file is replaced atomically.
func (s *FileBackend) Save(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileRecord{
		ID: r.ID, Title: r.Title, Digest: r.Digest, Encoding: r.Encoding,
		Size: r.Size, UpdatedAt: r.UpdatedAt, Data: r.Data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write board file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write board file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write board file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.boardPath(r.ID)); err != nil {
		return fmt.Errorf("write board file: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (s *FileBackend) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.boardPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove board file: %w", err)
	}
	return nil
}

// Scan implements Backend. Unreadable files are skipped.
func (s *FileBackend) Scan(context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read board dir: %w", err)
	}
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		fr, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, Summary{ID: fr.ID, Title: fr.Title, Digest: fr.Digest, Size: fr.Size, UpdatedAt: fr.UpdatedAt})
	}
	return out, nil
}

// Close implements Backend.
func (s *FileBackend) Close() error { return nil }

var _ Backend = (*FileBackend)(nil)
