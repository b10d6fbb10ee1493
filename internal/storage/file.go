package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// FileStore keeps the document in a single JSON file
type FileStore struct {
	FilePath string
}

// NewFileStore creates a file store for the given path
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		FilePath: filePath,
	}
}

// Load reads the document from the file. A missing file means nothing has
// been saved yet.
func (s *FileStore) Load(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewStorageError("load", err)
	}
	data, err := os.ReadFile(s.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.NewStorageError("load", errors.Wrap(err, "failed to read file"))
	}
	return decodeLoaded(data)
}

// Save writes the document to a temporary file next to the target and
// renames it into place, so readers never see a partial file.
func (s *FileStore) Save(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return model.NewStorageError("save", err)
	}

	dir := filepath.Dir(s.FilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.NewStorageError("save", errors.Wrap(err, "failed to create directory"))
		}
	}

	data, restore, err := encodeForSave(doc)
	if err != nil {
		return model.NewStorageError("save", err)
	}
	if err := writeFileAtomic(s.FilePath, data); err != nil {
		restore()
		return model.NewStorageError("save", err)
	}
	return nil
}

// Clear removes the file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return model.NewStorageError("clear", err)
	}
	if err := os.Remove(s.FilePath); err != nil && !os.IsNotExist(err) {
		return model.NewStorageError("clear", errors.Wrap(err, "failed to remove file"))
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(err, "failed to set file mode")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "failed to replace file")
	}
	return nil
}
