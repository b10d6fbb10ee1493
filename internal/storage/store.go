// Package storage persists the current mind map under a single fixed key
package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pstuifzand/tui-mindmap/internal/exchange"
	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// DefaultKey is the logical key the current document is stored under.
const DefaultKey = "mindmap_state"

// Store keeps exactly one document. Implementations write atomically: a
// concurrent Load sees either the old or the new document, never a mix.
// Failures are returned as *model.StorageError.
type Store interface {
	// Load returns the saved document, or nil and no error when nothing has
	// been saved or the store was cleared.
	Load(ctx context.Context) (*model.Document, error)

	// Save sets doc.UpdatedAt to the current time and writes the whole
	// document, replacing the previous one.
	Save(ctx context.Context, doc *model.Document) error

	// Clear deletes the document. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	Close() error
}

// Backend selects a Store implementation
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options configures Open
type Options struct {
	Backend  Backend
	Dir      string // data directory for the file and sqlite backends
	Key      string
	RedisURL string
	Logger   *zap.Logger
}

// Open creates the store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("opening store", zap.String("backend", string(opts.Backend)), zap.String("key", opts.Key))

	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(filepath.Join(opts.Dir, opts.Key+".json")), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(opts.Dir, "mindmap.db"), opts.Key)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, opts.Key)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", opts.Backend)
	}
}

// timeNow is replaced in tests.
var timeNow = time.Now

// encodeForSave stamps doc with the current time and encodes it. The
// returned restore function puts the previous timestamp back and is called
// when the write fails.
func encodeForSave(doc *model.Document) ([]byte, func(), error) {
	previous := doc.UpdatedAt
	now := timeNow().UTC()
	doc.UpdatedAt = &now
	restore := func() { doc.UpdatedAt = previous }

	data, err := exchange.Encode(doc)
	if err != nil {
		restore()
		return nil, nil, err
	}
	return data, restore, nil
}

// decodeLoaded turns stored bytes back into a document.
func decodeLoaded(data []byte) (*model.Document, error) {
	doc, err := exchange.Decode(data)
	if err != nil {
		return nil, model.NewStorageError("load", err)
	}
	return doc, nil
}
