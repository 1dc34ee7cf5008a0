package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryStoreHydratesFromSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	seed := []Case{
		{ID: 3, Title: "Three", Slug: "three", Date: "2024-01-03", Tags: []string{"Legal"}},
		{ID: 7, Title: "Seven", Slug: "seven", Date: "2024-01-07", Tags: []string{"Legal"}, PublishedToDiscord: true},
	}
	raw, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s := NewMemoryStore(SnapshotOptions{Path: path})
	ctx := context.Background()

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "seven", all[0].Slug)
	assert.True(t, all[0].PublishedToDiscord)

	created, err := s.CreateCase(ctx, sampleCase("Eight", "eight", "2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), created.ID)
}

func TestMemoryStoreWritesSnapshotAfterMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cases.json")
	s := NewMemoryStore(SnapshotOptions{Path: path})
	ctx := context.Background()

	readBack := func() []Case {
		t.Helper()
		cases, err := readSnapshot(path)
		require.NoError(t, err)
		return cases
	}

	c, err := s.CreateCase(ctx, sampleCase("One", "one", "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, readBack(), 1)

	_, err = s.UpdateCase(ctx, c.ID, CasePatch{Title: ptr("One (revised)")})
	require.NoError(t, err)
	assert.Equal(t, "One (revised)", readBack()[0].Title)

	_, err = s.ImportCases(ctx, []NewCase{sampleCase("Two", "two", "2024-01-02")})
	require.NoError(t, err)
	assert.Len(t, readBack(), 2)

	require.NoError(t, s.DeleteCase(ctx, c.ID))
	remaining := readBack()
	require.Len(t, remaining, 1)
	assert.Equal(t, "two", remaining[0].Slug)

	reopened := NewMemoryStore(SnapshotOptions{Path: path})
	got, err := reopened.GetCaseBySlug(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, remaining[0].ID, got.ID)
}

func TestMemoryStoreSnapshotFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewMemoryStore(SnapshotOptions{Path: filepath.Join(blocker, "cases.json"), Logger: zap.New(core)})

	created, err := s.CreateCase(context.Background(), sampleCase("Kept", "kept", "2024-01-01"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, logs.FilterMessage("write case snapshot").Len())
}

func TestMemoryStoreCorruptSnapshotIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	now := func() time.Time { return time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC) }
	s := NewMemoryStore(SnapshotOptions{Path: path, Logger: zap.New(core), Now: now})

	all, err := s.ListCases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, logs.FilterMessage("case snapshot unreadable, starting empty").Len())

	_, err = s.CreateCase(context.Background(), sampleCase("Fresh", "fresh", "2024-01-01"))
	require.NoError(t, err)

	aside, err := os.ReadFile(filepath.Join(dir, "cases.json.corrupt-20240215T093000Z"))
	require.NoError(t, err, "the unreadable snapshot is kept")
	assert.Equal(t, "{not json", string(aside))

	current, err := readSnapshot(path)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "fresh", current[0].Slug)
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
	last  []byte
	err   error
}

func (r *recordingSink) PutSnapshot(_ context.Context, name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.last = data
	return r.err
}

func TestMemoryStoreMirrorsSnapshotsToSink(t *testing.T) {
	sink := &recordingSink{}
	s := NewMemoryStore(SnapshotOptions{Path: filepath.Join(t.TempDir(), "cases.json"), Sink: sink})

	_, err := s.CreateCase(context.Background(), sampleCase("Mirrored", "mirrored", "2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{"cases.json"}, sink.names)
	var cases []Case
	require.NoError(t, json.Unmarshal(sink.last, &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "mirrored", cases[0].Slug)
}

// gatedSink blocks its first upload until released.
type gatedSink struct {
	recordingSink
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSink) PutSnapshot(ctx context.Context, name string, data []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return g.recordingSink.PutSnapshot(ctx, name, data)
}

func TestMemoryStoreSlowMirrorNeverOverwritesNewerSnapshot(t *testing.T) {
	sink := &gatedSink{started: make(chan struct{}), release: make(chan struct{})}
	s := NewMemoryStore(SnapshotOptions{Path: filepath.Join(t.TempDir(), "cases.json"), Sink: sink})
	ctx := context.Background()

	_, err := s.CreateCase(ctx, sampleCase("First", "first", "2024-01-01"))
	require.NoError(t, err)
	<-sink.started

	_, err = s.CreateCase(ctx, sampleCase("Second", "second", "2024-01-02"))
	require.NoError(t, err)
	close(sink.release)
	require.NoError(t, s.Close())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var cases []Case
	require.NoError(t, json.Unmarshal(sink.last, &cases))
	assert.Len(t, cases, 2, "the bucket ends with the latest snapshot")
	assert.Len(t, sink.names, 2)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(SnapshotOptions{Sink: &recordingSink{}})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.CreateCase(context.Background(), sampleCase("After", "after", "2024-01-01"))
	require.NoError(t, err)
}

func TestMemoryStoreSinkFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &recordingSink{err: errors.New("bucket unavailable")}
	s := NewMemoryStore(SnapshotOptions{Sink: sink, Logger: zap.New(core), SinkTimeout: time.Second})

	_, err := s.CreateCase(context.Background(), sampleCase("Lost", "lost", "2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, 1, logs.FilterMessage("mirror case snapshot").Len())
}

func TestMemoryStoreConcurrentImportsNeverDuplicateSlugs(t *testing.T) {
	s := NewMemoryStore(SnapshotOptions{})
	ctx := context.Background()
	batch := []NewCase{sampleCase("Race", "race", "2024-01-01")}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ImportCases(ctx, batch)
		}()
	}
	wg.Wait()

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
