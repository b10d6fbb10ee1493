package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// DefaultAutosaveDelay is the debounce window used when none is configured.
const DefaultAutosaveDelay = 500 * time.Millisecond

// defaultSaveTimeout bounds a single background save.
const defaultSaveTimeout = 30 * time.Second

// errSuperseded is returned internally when a save was overtaken by a newer
// schedule or a cancel.
var errSuperseded = errors.New("autosave superseded")

// Source gives the autosaver access to the live document. The owner of the
// document holds its lock while fn runs, so the save sees a consistent tree.
// *model.Document implements Source without locking.
type Source interface {
	WithDocument(fn func(*model.Document) error) error
}

// Autosaver debounces saves: every Schedule call restarts the delay, and only
// the last call of a burst writes. The write reads the document when the
// timer fires, not when Schedule was called.
type Autosaver struct {
	store       Store
	logger      *zap.Logger
	saveTimeout time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending Source
	// seq identifies the latest Schedule/Cancel/Flush; a save carrying an
	// older value does not write.
	seq uint64

	saveMu   sync.Mutex
	inflight sync.WaitGroup

	saves    atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Value // error wrapped in errBox
}

type errBox struct{ err error }

// NewAutosaver creates an autosaver writing to store. A nil logger logs
// nothing.
func NewAutosaver(store Store, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		store:       store,
		logger:      logger,
		saveTimeout: defaultSaveTimeout,
	}
}

// Schedule arranges for src to be saved after delay, replacing any save that
// is still waiting.
func (a *Autosaver) Schedule(src Source, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.seq++
	seq := a.seq
	a.pending = src
	a.timer = time.AfterFunc(delay, func() { a.fire(seq) })
}

func (a *Autosaver) fire(seq uint64) {
	a.mu.Lock()
	if seq != a.seq || a.pending == nil {
		a.mu.Unlock()
		return
	}
	src := a.pending
	a.pending = nil
	a.timer = nil
	a.inflight.Add(1)
	a.mu.Unlock()
	defer a.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()

	if err := a.save(ctx, src, seq); err != nil && !errors.Is(err, errSuperseded) {
		// editing goes on; the next successful save writes the same state
		a.logger.Warn("autosave failed", zap.Error(err))
	}
}

// Flush writes a waiting save immediately. It returns nil when nothing was
// waiting.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.pending == nil {
		a.mu.Unlock()
		return nil
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
	seq := a.seq
	src := a.pending
	a.pending = nil
	a.mu.Unlock()

	err := a.save(ctx, src, seq)
	if errors.Is(err, errSuperseded) {
		return nil
	}
	return err
}

// Cancel drops a waiting save. A save that already started reading the
// document is not interrupted, but one that has not reached the document yet
// will not write.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
	a.seq++
}

// Pending reports whether a save is waiting for its timer.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Wait blocks until background saves that already started have finished.
func (a *Autosaver) Wait() {
	a.inflight.Wait()
}

// Saves returns the number of successful writes.
func (a *Autosaver) Saves() int64 { return a.saves.Load() }

// Failures returns the number of failed writes.
func (a *Autosaver) Failures() int64 { return a.failures.Load() }

// LastError returns the error of the most recent failed write, or nil.
func (a *Autosaver) LastError() error {
	if box, ok := a.lastErr.Load().(errBox); ok {
		return box.err
	}
	return nil
}

func (a *Autosaver) current(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq == seq
}

// save runs one write at a time. The sequence check happens while the
// document owner's lock is held, so a Cancel that precedes the owner's next
// change always wins.
func (a *Autosaver) save(ctx context.Context, src Source, seq uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	start := time.Now()
	var nodes int
	err := src.WithDocument(func(doc *model.Document) error {
		if !a.current(seq) {
			return errSuperseded
		}
		nodes = doc.Count()
		return a.store.Save(ctx, doc)
	})
	if errors.Is(err, errSuperseded) {
		a.logger.Debug("autosave superseded")
		return err
	}
	if err != nil {
		a.failures.Add(1)
		a.lastErr.Store(errBox{err: err})
		return err
	}

	a.saves.Add(1)
	a.logger.Debug("autosaved",
		zap.Int("nodes", nodes),
		zap.Duration("took", time.Since(start)))
	return nil
}
