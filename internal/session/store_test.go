package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/validate"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// desktopSession is a session.json as written by the desktop app, including
// fields this package does not model.
const desktopSession = `{
  "id": "01HXTEST",
  "title": "Pricing strategy",
  "status": "exploring",
  "mode": "decision",
  "workingDir": "/tmp/work",
  "isProjectLocal": false,
  "created": "2026-02-01T10:00:00Z",
  "updated": "2026-02-02T10:00:00Z",
  "contextFiles": [],
  "claims": [
    {"id": "A", "content": "Usage pricing fits", "sourceId": "s1", "marker": "[INSIGHT]", "createdAt": "2026-02-01T10:00:00Z"},
    {"id": "B", "content": "Costs scale with usage", "sourceId": "s1", "createdAt": "2026-02-01T10:00:00Z"}
  ],
  "tensions": [{"id": "t1", "claimAId": "A", "claimBId": "B", "description": "x", "createdAt": "2026-02-01T10:00:00Z"}],
  "thesis": {"content": "Go usage-based", "confidence": 0.6, "updatedAt": "2026-02-01T10:00:00Z"},
  "passes": [],
  "terminal": {"running": false},
  "cdgEdges": [
    {"sourceClaimId": "B", "targetClaimId": "A", "edgeType": "REQUIRE", "weight": 1.0, "createdAt": "2026-02-01T10:00:00Z"}
  ],
  "cdgSnapshots": []
}`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	n := 0
	store := NewStore(dataDir,
		WithClock(func() time.Time { return fixedNow }),
		WithLockTimeout(200*time.Millisecond),
	)
	store.newID = func() string {
		n++
		return fmt.Sprintf("test-%d", n)
	}
	return store, dataDir
}

func writeSessionFile(t *testing.T, store *Store, id, body string) {
	t.Helper()
	dir, err := store.Dir(id)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func TestNormalizeID(t *testing.T) {
	for _, id := range []string{"abc", "sess_abc", "01HX-y_z"} {
		_, err := NormalizeID(id)
		assert.NoError(t, err, id)
	}

	norm, err := NormalizeID("sess_abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", norm)

	for _, id := range []string{"", "sess_", "../etc", "a/b", `a\b`, "..", "a b", "a.b"} {
		_, err := NormalizeID(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestIDFromDirName(t *testing.T) {
	id, ok := IDFromDirName("sess_abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = IDFromDirName("abc")
	assert.False(t, ok)
	_, ok = IDFromDirName("sess_a.b")
	assert.False(t, ok)
}

func TestStore_LoadNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsTraversal(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = store.Update(context.Background(), "a/b", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStore_RoundTripPreservesUnknownFields(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "01HXTEST", desktopSession)

	sess, err := store.Load("sess_01HXTEST")
	require.NoError(t, err)
	assert.Equal(t, "Pricing strategy", sess.Title)
	assert.Equal(t, "decision", sess.Mode)
	require.Len(t, sess.Claims, 2)
	assert.Equal(t, "[INSIGHT]", sess.Claims[0].MarkerText())
	require.Len(t, sess.CdgEdges, 1)
	assert.Equal(t, model.EdgeRequire, sess.CdgEdges[0].EdgeType)

	require.NoError(t, store.Save(sess))

	path, _ := store.Path("01HXTEST")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got, want map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.NoError(t, json.Unmarshal([]byte(desktopSession), &want))
	assert.Equal(t, want, got)
}

func TestStore_SaveWritesEmptyLists(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(&Session{ID: "bare", Title: "bare"}))

	path, _ := store.Path("bare")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []any{}, got["claims"])
	assert.Equal(t, []any{}, got["cdgEdges"])
	assert.Equal(t, []any{}, got["cdgSnapshots"])
	assert.Equal(t, StatusBacklog, got["status"])
}

func TestStore_LoadReturnsIndependentCopies(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "01HXTEST", desktopSession)

	first, err := store.Load("01HXTEST")
	require.NoError(t, err)
	first.Claims[0].Content = "mutated"
	first.CdgEdges = nil

	second, err := store.Load("01HXTEST")
	require.NoError(t, err)
	assert.Equal(t, "Usage pricing fits", second.Claims[0].Content)
	assert.Len(t, second.CdgEdges, 1)
}

func TestStore_LoadSeesExternalWrites(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "s1", `{"id":"s1","title":"old","created":"2026-01-01T00:00:00Z","updated":"2026-01-01T00:00:00Z"}`)

	sess, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, "old", sess.Title)

	writeSessionFile(t, store, "s1", `{"id":"s1","title":"new title","created":"2026-01-01T00:00:00Z","updated":"2026-01-01T00:00:00Z"}`)
	path, _ := store.Path("s1")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	sess, err = store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, "new title", sess.Title)
}

func TestStore_List(t *testing.T) {
	store, _ := newTestStore(t)

	sessions, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	writeSessionFile(t, store, "old", `{"id":"old","title":"Old","created":"2026-01-01T00:00:00Z","updated":"2026-01-01T00:00:00Z"}`)
	writeSessionFile(t, store, "new", `{"id":"new","title":"New","created":"2026-01-01T00:00:00Z","updated":"2026-02-01T00:00:00Z"}`)
	writeSessionFile(t, store, "broken", `{not json`)
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "sess_empty"), 0o755))

	sessions, err = store.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "empty", "new", "old"}, ids)
}

func TestStore_Update(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "01HXTEST", desktopSession)

	sess, err := store.Update(context.Background(), "01HXTEST", func(s *Session) error {
		_, err := s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "tension", Weight: 0.5}, fixedNow)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, sess.CdgEdges, 2)
	assert.True(t, sess.Updated.Equal(fixedNow))

	reloaded, err := store.Load("01HXTEST")
	require.NoError(t, err)
	require.Len(t, reloaded.CdgEdges, 2)
	assert.Equal(t, model.ResolutionUnresolved, reloaded.CdgEdges[1].ResolutionOf())

	dir, _ := store.Dir("01HXTEST")
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err), "lock file should be released")
}

func TestStore_UpdateErrorWritesNothing(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "01HXTEST", desktopSession)
	path, _ := store.Path("01HXTEST")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = store.Update(context.Background(), "01HXTEST", func(s *Session) error {
		_, err := s.AddEdge(validate.EdgeInput{Source: "A", Target: "nope", Type: "support", Weight: 1}, fixedNow)
		return err
	})
	assert.ErrorIs(t, err, validate.ErrClaimNotFound)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_UpdateNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Update(context.Background(), "ghost", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateLocked(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "s1", `{"id":"s1","title":"t","created":"2026-01-01T00:00:00Z","updated":"2026-01-01T00:00:00Z"}`)
	dir, _ := store.Dir("s1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("999"), 0o644))

	_, err := store.Update(context.Background(), "s1", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrLocked)
}

func TestStore_UpdateTakesOverStaleLock(t *testing.T) {
	store, _ := newTestStore(t)
	writeSessionFile(t, store, "s1", `{"id":"s1","title":"t","created":"2026-01-01T00:00:00Z","updated":"2026-01-01T00:00:00Z"}`)
	dir, _ := store.Dir("s1")
	lockPath := filepath.Join(dir, lockFileName)
	require.NoError(t, os.WriteFile(lockPath, []byte("999"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	_, err := store.Update(context.Background(), "s1", func(s *Session) error {
		s.Title = "taken over"
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	store, _ := newTestStore(t)
	store.lockWait = 10 * time.Second
	writeSessionFile(t, store, "01HXTEST", desktopSession)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(context.Background(), "01HXTEST", func(s *Session) error {
				_, err := s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "support", Weight: 0.5}, fixedNow)
				return err
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sess, err := store.Load("01HXTEST")
	require.NoError(t, err)
	assert.Len(t, sess.CdgEdges, writers+1)
}

func TestStore_CreateForkDelete(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.Create("Launch plan", "")
	require.NoError(t, err)
	assert.Equal(t, "test-1", created.ID)
	assert.Equal(t, ModeIdea, created.Mode)
	assert.Equal(t, StatusBacklog, created.Status)

	dir, _ := store.Dir(created.ID)
	assert.DirExists(t, filepath.Join(dir, "claims"))
	raw, ok := created.Extra("workingDir")
	require.True(t, ok)
	assert.JSONEq(t, mustString(t, dir), string(raw))

	_, err = store.Create("x", "brainstorm")
	assert.Error(t, err)

	writeSessionFile(t, store, "01HXTEST", desktopSession)
	_, err = store.Update(context.Background(), "01HXTEST", func(s *Session) error {
		s.TakeSnapshot("p1", fixedNow)
		return nil
	})
	require.NoError(t, err)

	forked, err := store.Fork("01HXTEST", "")
	require.NoError(t, err)
	assert.Equal(t, "Pricing strategy (fork)", forked.Title)
	assert.Equal(t, "01HXTEST", forked.ParentSessionID)
	assert.Len(t, forked.Claims, 2)
	assert.Len(t, forked.CdgEdges, 1)
	assert.Empty(t, forked.CdgSnapshots)
	_, ok = forked.Extra("passes")
	assert.False(t, ok)
	_, ok = forked.Extra("thesis")
	assert.True(t, ok)

	require.NoError(t, store.Delete(forked.ID))
	_, err = store.Load(forked.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(forked.ID), ErrNotFound)
}

func mustString(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, AppIdentifier, filepath.Base(dir))
}
