package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/oshokin/minio-warden/internal/domain/install"
)

// Repository defines persistence operations for the install record.
type Repository interface {
	Load(ctx context.Context) (*install.State, error)
	Save(ctx context.Context, st *install.State) error
}

// FileRepository persists the install record as a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the record file.
	path string
	// mu protects concurrent access to the record file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when nothing has been recorded yet.
	ErrNotFound = errors.New("install record not found")

	// errStateIsNotSet is returned when a nil record is saved.
	errStateIsNotSet = errors.New("install record is not set")
)

// NewFileRepository creates a repository reading and writing the record at
// the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the install record from disk.
func (r *FileRepository) Load(_ context.Context) (*install.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read install record: %w", err)
	}

	var st install.State
	if err = json.Unmarshal(contents, &st); err != nil {
		return nil, fmt.Errorf("decode install record: %w", err)
	}

	return &st, nil
}

// Save replaces the install record on disk.
// The write goes through a temp file and a rename, so a concurrent reader
// sees either the previous record or the new one, never a torn file.
func (r *FileRepository) Save(_ context.Context, st *install.State) error {
	if st == nil {
		return errStateIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode install record: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	if err = atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write install record: %w", err)
	}

	return nil
}
