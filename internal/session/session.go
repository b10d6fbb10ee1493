// Package session holds the open mind map and the selected node, and saves
// every change through a debounced autosave.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pstuifzand/tui-mindmap/internal/exchange"
	"github.com/pstuifzand/tui-mindmap/internal/logging"
	"github.com/pstuifzand/tui-mindmap/internal/model"
	"github.com/pstuifzand/tui-mindmap/internal/storage"
)

// Options configures Open
type Options struct {
	Store storage.Store

	// IDs defaults to model.RandomIDs
	IDs model.IDGenerator

	// Backups is optional; without it nothing is backed up before a
	// document is replaced.
	Backups *storage.BackupManager

	Logger *zap.Logger

	// AutosaveDelay defaults to storage.DefaultAutosaveDelay; use a
	// negative value for no delay.
	AutosaveDelay time.Duration

	// CollapseOnOpen collapses every branch below the root after loading.
	CollapseOnOpen bool
}

// Session is one open mind map. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	doc        *model.Document
	selectedID string

	store     storage.Store
	autosaver *storage.Autosaver
	ids       model.IDGenerator
	backups   *storage.BackupManager
	logger    *zap.Logger
	delay     time.Duration
	closed    bool
}

// Snapshot is a copy of the session state for rendering
type Snapshot struct {
	Document   *model.Document
	SelectedID string
}

// Hit is one search result
type Hit struct {
	ID          string
	Title       string
	Description string
}

var ErrClosed = errors.New("session closed")

// Open loads the saved document, or starts from the sample when nothing is
// saved. A stored document that cannot be decoded is logged and replaced by
// the sample; other storage failures are returned.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	logger := logging.Nop(opts.Logger)

	ids := opts.IDs
	if ids == nil {
		ids = model.RandomIDs{}
	}
	delay := opts.AutosaveDelay
	switch {
	case delay == 0:
		delay = storage.DefaultAutosaveDelay
	case delay < 0:
		delay = 0
	}

	doc, err := opts.Store.Load(ctx)
	switch {
	case errors.Is(err, model.ErrMalformedInput):
		logger.Warn("stored document is invalid, starting from the sample", zap.Error(err))
		doc = model.Sample()
	case err != nil:
		return nil, err
	case doc == nil:
		logger.Info("no saved document, starting from the sample")
		doc = model.Sample()
	default:
		logger.Info("loaded document", zap.Int("nodes", doc.Count()))
	}

	if opts.CollapseOnOpen {
		collapseBelowRoot(doc)
	}

	return &Session{
		doc:       doc,
		store:     opts.Store,
		autosaver: storage.NewAutosaver(opts.Store, logger),
		ids:       ids,
		backups:   opts.Backups,
		logger:    logger,
		delay:     delay,
	}, nil
}

// collapseBelowRoot collapses every branch under the root while the root
// itself stays expanded. Leaves keep an expanded state so a child added to
// them later is visible.
func collapseBelowRoot(doc *model.Document) {
	var collapse func(n *model.Node)
	collapse = func(n *model.Node) {
		for _, child := range n.Subtree() {
			collapse(child)
		}
		if !n.IsLeaf() && !n.Collapsed() {
			n.Toggle()
		}
	}
	for _, child := range doc.Root.Subtree() {
		collapse(child)
	}
	if doc.Root.Collapsed() {
		doc.Root.Toggle()
	}
}

// WithDocument runs fn with the live document while holding the session
// lock. fn must not call other Session methods.
func (s *Session) WithDocument(fn func(*model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// mutate applies an edit and schedules autosave when it succeeds. The
// returned node is a copy.
func (s *Session) mutate(op string, fn func(doc *model.Document) (*model.Node, error)) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	n, err := fn(s.doc)
	if err != nil {
		s.logger.Debug("edit rejected", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	s.dropStaleSelection()
	s.autosaver.Schedule(s, s.delay)
	s.logger.Debug("edit", zap.String("op", op), zap.String("node", n.ID))
	return n.Clone(), nil
}

func (s *Session) dropStaleSelection() {
	if s.selectedID != "" && !s.doc.Contains(s.selectedID) {
		s.selectedID = ""
	}
}

// AddChild appends a new leaf to the node with the given id.
func (s *Session) AddChild(parentID, title, description string) (*model.Node, error) {
	return s.mutate("add", func(doc *model.Document) (*model.Node, error) {
		return doc.AddChild(s.ids, parentID, title, description)
	})
}

// DeleteBranch removes a node together with its subtree.
func (s *Session) DeleteBranch(id string) (*model.Node, error) {
	return s.mutate("delete", func(doc *model.Document) (*model.Node, error) {
		return doc.DeleteBranch(id)
	})
}

// DeleteSingle removes a node and moves its children up into its place.
func (s *Session) DeleteSingle(id string) (*model.Node, error) {
	return s.mutate("delete-single", func(doc *model.Document) (*model.Node, error) {
		return doc.DeleteSingle(id)
	})
}

func (s *Session) Toggle(id string) (*model.Node, error) {
	return s.mutate("toggle", func(doc *model.Document) (*model.Node, error) {
		return doc.ToggleCollapse(id)
	})
}

func (s *Session) CollapseAll(id string) (*model.Node, error) {
	return s.mutate("collapse-all", func(doc *model.Document) (*model.Node, error) {
		return doc.CollapseAll(id)
	})
}

func (s *Session) ExpandAll(id string) (*model.Node, error) {
	return s.mutate("expand-all", func(doc *model.Document) (*model.Node, error) {
		return doc.ExpandAll(id)
	})
}

func (s *Session) EditField(id string, field model.Field, value string) (*model.Node, error) {
	return s.mutate("edit", func(doc *model.Document) (*model.Node, error) {
		return doc.EditField(id, field, value)
	})
}

func (s *Session) Rename(id, title string) (*model.Node, error) {
	return s.EditField(id, model.FieldTitle, title)
}

func (s *Session) Describe(id, description string) (*model.Node, error) {
	return s.EditField(id, model.FieldDescription, description)
}

// SetColor sets the base color of a node; an empty color clears it.
func (s *Session) SetColor(id, color string) (*model.Node, error) {
	return s.mutate("color", func(doc *model.Document) (*model.Node, error) {
		return doc.SetColor(id, color)
	})
}

// Move reparents a node. See model.Document.Move for index handling.
func (s *Session) Move(id, newParentID string, index int) (*model.Node, error) {
	return s.mutate("move", func(doc *model.Document) (*model.Node, error) {
		return doc.Move(id, newParentID, index)
	})
}

// Select marks a node as selected. An unknown id leaves the selection as it
// was.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.Contains(id) {
		return errors.Wrapf(model.ErrNotFound, "node %q", id)
	}
	s.selectedID = id
	return nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// Selected returns the selected node id, or "" when nothing is selected.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Search finds nodes by title, then by description.
func (s *Session) Search(query string) []Hit {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.doc.Search(query)
	hits := make([]Hit, len(nodes))
	for i, n := range nodes {
		hits[i] = Hit{ID: n.ID, Title: n.Title, Description: n.Description}
	}
	return hits
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Document: s.doc.Clone(), SelectedID: s.selectedID}
}

// Export writes the document as pretty-printed JSON.
func (s *Session) Export(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exchange.Export(s.doc, w)
}

// ExportMarkdown writes the document as a nested markdown list.
func (s *Session) ExportMarkdown(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exchange.ExportMarkdown(s.doc, w)
}

// Import replaces the document with the one read from r. On any failure the
// session keeps its current document.
func (s *Session) Import(r io.Reader) error {
	doc, err := exchange.Import(r)
	if err != nil {
		return err
	}
	return s.replace("import", doc)
}

// ImportOutline replaces the document with a markdown or indented text
// outline. New nodes get ids from the session's generator.
func (s *Session) ImportOutline(r io.Reader, format exchange.OutlineFormat) error {
	doc, err := exchange.ImportOutline(r, format, s.ids)
	if err != nil {
		return err
	}
	return s.replace("import "+string(format), doc)
}

// RestoreBackup replaces the document with a backup file.
func (s *Session) RestoreBackup(path string) error {
	if s.backups == nil {
		return errors.New("backups are disabled")
	}
	doc, err := s.backups.Restore(path)
	if err != nil {
		return err
	}
	return s.replace("restore", doc)
}

func (s *Session) replace(op string, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.backupLocked(); err != nil {
		return err
	}
	s.doc = doc
	s.selectedID = ""
	s.autosaver.Schedule(s, s.delay)
	s.logger.Info("document replaced", zap.String("op", op), zap.Int("nodes", doc.Count()))
	return nil
}

func (s *Session) backupLocked() error {
	if s.backups == nil {
		return nil
	}
	path, err := s.backups.CreateBackup(s.doc)
	if err != nil {
		return errors.Wrap(err, "failed to back up current document")
	}
	s.logger.Info("backup written", zap.String("path", path))
	return nil
}

// Backups lists the backup files, oldest first.
func (s *Session) Backups() ([]storage.BackupMetadata, error) {
	if s.backups == nil {
		return nil, nil
	}
	return s.backups.List()
}

// NewMap discards the document: a pending autosave is dropped, the current
// document is backed up, storage is cleared and the sample takes its place.
func (s *Session) NewMap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.autosaver.Cancel()
	if err := s.backupLocked(); err != nil {
		s.autosaver.Schedule(s, s.delay)
		return err
	}
	if err := s.store.Clear(ctx); err != nil {
		s.autosaver.Schedule(s, s.delay)
		return err
	}
	s.doc = model.Sample()
	s.selectedID = ""
	s.logger.Info("started a new map")
	return nil
}

// Save writes the document now. A pending autosave becomes unnecessary and
// is dropped.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, s.doc); err != nil {
		return err
	}
	s.autosaver.Cancel()
	return nil
}

// Flush writes a pending autosave immediately.
func (s *Session) Flush(ctx context.Context) error {
	// not under s.mu: the autosaver takes it through WithDocument
	return s.autosaver.Flush(ctx)
}

// Close flushes pending changes and closes the store. Further edits fail
// with ErrClosed.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	flushErr := s.autosaver.Flush(ctx)
	s.autosaver.Wait()

	s.mu.Lock()
	s.closed = true
	s.autosaver.Cancel()
	s.mu.Unlock()

	closeErr := s.store.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Autosaves reports how many background and flushed saves succeeded.
func (s *Session) Autosaves() int64 {
	return s.autosaver.Saves()
}
