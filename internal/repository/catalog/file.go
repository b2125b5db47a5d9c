package catalog

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

	"github.com/oshokin/minio-warden/internal/domain/release"
)

// Repository defines persistence operations for one kind's checksum catalog.
type Repository interface {
	Load(ctx context.Context) (*release.Catalog, error)
	Save(ctx context.Context, catalog *release.Catalog) error
}

// FileRepository persists a catalog as a JSON snapshot on disk, keyed
// version first: {"<version>": {"<architecture>": "<hex digest>"}}.
type FileRepository struct {
	// kind is the artifact kind the snapshot describes.
	kind release.Kind
	// path is the filesystem location of the snapshot file.
	path string
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when no snapshot has been built yet.
	ErrNotFound = errors.New("catalog snapshot not found")

	// errCatalogIsNotSet is returned when a nil catalog is saved.
	errCatalogIsNotSet = errors.New("catalog is not set")
)

// NewFileRepository creates a repository reading and writing the kind's
// snapshot at the provided path.
func NewFileRepository(kind release.Kind, path string) *FileRepository {
	return &FileRepository{
		kind: kind,
		path: filepath.Clean(path),
	}
}

// Load reads the snapshot from disk into a frozen catalog.
func (r *FileRepository) Load(_ context.Context) (*release.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read catalog snapshot: %w", err)
	}

	var digests map[release.Version]map[release.Architecture]string
	if err = json.Unmarshal(contents, &digests); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}

	return release.NewCatalog(r.kind, digests), nil
}

// Save replaces the snapshot on disk with the provided catalog.
// The write goes through a temp file and a rename, so a concurrent reader
// sees either the previous snapshot or the new one, never a torn file.
func (r *FileRepository) Save(_ context.Context, catalog *release.Catalog) error {
	if catalog == nil {
		return errCatalogIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(catalog.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	if err = atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write catalog snapshot: %w", err)
	}

	return nil
}
