package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"joints/internal/models"
	"joints/internal/observability"

	"github.com/google/uuid"
)

// FileStore keeps each collection in <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the collection file. A missing or empty file is an empty collection.
func (s *FileStore) Load(ctx context.Context, name string) ([]Document, error) {
	defer observability.TrackStore("load", name)()

	if err := checkName(name); err != nil {
		return nil, models.NewStorageError("load", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("load", name, err)
	}

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return []Document{}, nil
	}
	if err != nil {
		observability.StoreErrors.WithLabelValues("load", name).Inc()
		return nil, models.NewStorageError("load", name, err)
	}

	docs, err := decodeDocuments(data)
	if err != nil {
		observability.StoreErrors.WithLabelValues("load", name).Inc()
		return nil, models.NewStorageError("load", name, err)
	}
	return docs, nil
}

// Save writes the whole collection to a temp file and renames it over the
// previous version, so a reader sees either the old or the new file.
func (s *FileStore) Save(ctx context.Context, name string, docs []Document) error {
	defer observability.TrackStore("save", name)()

	if err := checkName(name); err != nil {
		return models.NewStorageError("save", name, err)
	}
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("save", name, err)
	}

	data, err := encodeDocuments(docs)
	if err != nil {
		return models.NewStorageError("save", name, err)
	}

	if err := s.writeAtomic(name, data); err != nil {
		observability.StoreErrors.WithLabelValues("save", name).Inc()
		return models.NewStorageError("save", name, err)
	}
	return nil
}

func (s *FileStore) writeAtomic(name string, data []byte) error {
	tmp := filepath.Join(s.dir, fmt.Sprintf(".%s.%s.tmp", name, uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace collection file: %w", err)
	}
	return nil
}
