package storage

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// lockedDoc mimics a session: the document is only touched under mu.
type lockedDoc struct {
	mu  sync.Mutex
	doc *model.Document
}

func (l *lockedDoc) WithDocument(fn func(*model.Document) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.doc)
}

func (l *lockedDoc) rename(t *testing.T, title string) {
	t.Helper()
	require.NoError(t, l.WithDocument(func(d *model.Document) error {
		_, err := d.Rename(model.RootID, title)
		return err
	}))
}

// gatedDoc blocks inside WithDocument until released.
type gatedDoc struct {
	doc     *model.Document
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDoc) WithDocument(fn func(*model.Document) error) error {
	close(g.entered)
	<-g.release
	return fn(g.doc)
}

type failingStore struct {
	MemoryStore
}

func (f *failingStore) Save(ctx context.Context, doc *model.Document) error {
	return model.NewStorageError("save", errors.New("disk full"))
}

func loadTitle(t *testing.T, s Store) string {
	t.Helper()
	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc.Root.Title
}

func TestAutosaveDebouncesBurst(t *testing.T) {
	mem := NewMemoryStore()
	a := NewAutosaver(mem, nil)
	src := &lockedDoc{doc: model.Sample()}

	for i := 0; i < 10; i++ {
		src.rename(t, "title "+strconv.Itoa(i))
		a.Schedule(src, 40*time.Millisecond)
	}

	require.Eventually(t, func() bool { return a.Saves() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	a.Wait()

	assert.Equal(t, 1, mem.Writes())
	assert.Equal(t, int64(1), a.Saves())
	assert.Equal(t, "title 9", loadTitle(t, mem))
}

func TestAutosaveWritesStateAtFireTime(t *testing.T) {
	mem := NewMemoryStore()
	a := NewAutosaver(mem, nil)
	src := &lockedDoc{doc: model.Sample()}

	a.Schedule(src, 50*time.Millisecond)
	src.rename(t, "changed after schedule")

	require.Eventually(t, func() bool { return a.Saves() == 1 }, time.Second, 5*time.Millisecond)
	a.Wait()
	assert.Equal(t, "changed after schedule", loadTitle(t, mem))
}

func TestAutosaveCancel(t *testing.T) {
	mem := NewMemoryStore()
	a := NewAutosaver(mem, nil)

	a.Schedule(model.Sample(), 20*time.Millisecond)
	assert.True(t, a.Pending())
	a.Cancel()
	assert.False(t, a.Pending())

	time.Sleep(60 * time.Millisecond)
	a.Wait()
	assert.Equal(t, 0, mem.Writes())
}

func TestAutosaveCancelDuringInFlightSave(t *testing.T) {
	mem := NewMemoryStore()
	a := NewAutosaver(mem, nil)
	src := &gatedDoc{
		doc:     model.Sample(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	a.Schedule(src, 0)
	select {
	case <-src.entered:
	case <-time.After(time.Second):
		t.Fatal("autosave never reached the document")
	}

	a.Cancel()
	close(src.release)
	a.Wait()

	assert.Equal(t, 0, mem.Writes())
	assert.Equal(t, int64(0), a.Saves())
	assert.Equal(t, int64(0), a.Failures())
}

func TestAutosaveFlush(t *testing.T) {
	mem := NewMemoryStore()
	a := NewAutosaver(mem, nil)
	src := &lockedDoc{doc: model.Sample()}

	require.NoError(t, a.Flush(context.Background()), "flush with nothing pending")
	assert.Equal(t, 0, mem.Writes())

	a.Schedule(src, time.Hour)
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, 1, mem.Writes())
	assert.False(t, a.Pending())

	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, 1, mem.Writes())
}

func TestAutosaveFailureIsLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := &failingStore{}
	a := NewAutosaver(store, zap.New(core))

	a.Schedule(model.Sample(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return a.Failures() == 1 }, time.Second, 5*time.Millisecond)
	a.Wait()

	assert.Equal(t, int64(0), a.Saves())
	assert.True(t, errors.Is(a.LastError(), model.ErrStorage))

	failures := logs.FilterMessage("autosave failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.WarnLevel, failures[0].Level)

	// the autosaver keeps working after a failure
	a.Schedule(model.Sample(), time.Hour)
	err := a.Flush(context.Background())
	assert.True(t, errors.Is(err, model.ErrStorage))
	assert.Equal(t, int64(2), a.Failures())
}

func TestAutosaveSuccessLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := NewAutosaver(NewMemoryStore(), zap.New(core))

	a.Schedule(model.Sample(), time.Hour)
	require.NoError(t, a.Flush(context.Background()))

	entries := logs.FilterMessage("autosaved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(4), entries[0].ContextMap()["nodes"])
	assert.Nil(t, a.LastError())
}
