package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// MemoryStore keeps the encoded document in memory. It is used for
// throw-away sessions and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewStorageError("load", err)
	}
	s.mu.Lock()
	data := slices.Clone(s.data)
	s.mu.Unlock()

	if data == nil {
		return nil, nil
	}
	return decodeLoaded(data)
}

func (s *MemoryStore) Save(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return model.NewStorageError("save", err)
	}
	data, _, err := encodeForSave(doc)
	if err != nil {
		return model.NewStorageError("save", err)
	}

	s.mu.Lock()
	s.data = data
	s.writes++
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return model.NewStorageError("clear", err)
	}
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Writes returns how many times Save has stored a document.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
