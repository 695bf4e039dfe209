package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultLockWait  = 5 * time.Second
	defaultLockStale = 30 * time.Second
	lockRetry        = 50 * time.Millisecond
)

// Store loads and saves sessions under <data_dir>/sessions
type Store struct {
	root   string
	logger *slog.Logger
	reads  *gocache.Cache

	lockWait  time.Duration
	lockStale time.Duration
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithLockTimeout sets how long Update waits for another process's lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockWait = d }
}

// WithClock replaces time.Now for timestamps written by the store
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store rooted at dataDir
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		root:      filepath.Join(dataDir, "sessions"),
		logger:    slog.Default(),
		reads:     gocache.New(5*time.Minute, 10*time.Minute),
		lockWait:  defaultLockWait,
		lockStale: defaultLockStale,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the sessions directory
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a session
func (s *Store) Dir(id string) (string, error) {
	norm, err := NormalizeID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, dirPrefix+norm), nil
}

// Path returns the session.json path of a session
func (s *Store) Path(id string) (string, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

type cachedRead struct {
	modTime time.Time
	size    int64
	session *Session
}

// Load reads a session. The result is the caller's to modify.
func (s *Store) Load(id string) (*Session, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("stat session: %w", err)
	}

	if v, ok := s.reads.Get(path); ok {
		c := v.(cachedRead)
		if c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
			return c.session.Clone(), nil
		}
	}

	sess, err := readSession(path)
	if err != nil {
		return nil, err
	}
	s.reads.Set(path, cachedRead{modTime: info.ModTime(), size: info.Size(), session: sess}, gocache.DefaultExpiration)
	s.logger.Debug("loaded session", "session_id", id, "claims", len(sess.Claims), "edges", len(sess.CdgEdges))

	return sess.Clone(), nil
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sess, nil
}

// Save writes a session atomically. It does not take the session lock; use
// Update for read-modify-write.
func (s *Store) Save(sess *Session) error {
	dir, err := s.Dir(sess.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	s.reads.Delete(path)
	s.logger.Debug("saved session", "session_id", sess.ID)
	return nil
}

// Update loads a session, applies fn and saves the result with a fresh
// updated timestamp. Calls for the same session are serialized within this
// process and, through a lock file, across processes. If fn returns an
// error nothing is written.
func (s *Store) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return nil, err
	}

	mu := s.sessionMutex(dir)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	lock, err := acquireFileLock(lockCtx, dir, s.lockStale, lockRetry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			s.logger.Warn("release session lock", "session_id", id, "error", err)
		}
	}()

	sess, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.Updated = s.now()
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) sessionMutex(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

// List returns every readable session, most recently updated first.
// Unreadable session files are logged and skipped.
func (s *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	sessions := make([]*Session, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.root, entry.Name(), FileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		sess, err := readSession(path)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "path", path, "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Updated.Equal(sessions[j].Updated) {
			return sessions[i].Updated.After(sessions[j].Updated)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// IDs returns the ids of every session directory, sorted
func (s *Store) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if id, ok := IDFromDirName(entry.Name()); ok && entry.IsDir() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Create writes a new empty session
func (s *Store) Create(title, mode string) (*Session, error) {
	if mode == "" {
		mode = ModeIdea
	}
	if mode != ModeIdea && mode != ModeDecision {
		return nil, fmt.Errorf("unknown mode %q (expected idea or decision)", mode)
	}

	now := s.now()
	sess := &Session{
		ID:      s.newID(),
		Title:   title,
		Status:  StatusBacklog,
		Mode:    mode,
		Created: now,
		Updated: now,
	}

	dir, err := s.Dir(sess.ID)
	if err != nil {
		return nil, err
	}
	// The desktop app requires these and lays out these subdirectories.
	sess.extra = map[string]json.RawMessage{
		"workingDir":     mustRaw(dir),
		"isProjectLocal": json.RawMessage("false"),
	}
	for _, sub := range []string{"context", "claims", "tensions", "thesis"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	if err := s.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info("created session", "session_id", sess.ID, "title", title, "mode", mode)
	return sess, nil
}

// fields reset when a session is forked
var transientFields = []string{"passes", "terminal", "contextBudget", "paperTrail", "lastResumed", "conversationId"}

// Fork copies a session's claims and edges into a new session whose parent
// is the source. Snapshots and run state are not carried over.
func (s *Store) Fork(id, title string) (*Session, error) {
	src, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = src.Title + " (fork)"
	}
	now := s.now()
	forked := src.Clone()
	forked.ID = s.newID()
	forked.Title = title
	forked.Status = StatusBacklog
	forked.Created = now
	forked.Updated = now
	forked.ParentSessionID = src.ID
	forked.CdgSnapshots = nil
	for _, k := range transientFields {
		delete(forked.extra, k)
	}

	if err := s.Save(forked); err != nil {
		return nil, err
	}
	s.logger.Info("forked session", "session_id", forked.ID, "parent_id", src.ID,
		"claims", len(forked.Claims), "edges", len(forked.CdgEdges))
	return forked, nil
}

// Delete removes a session directory
func (s *Store) Delete(id string) error {
	dir, err := s.Dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.reads.Delete(filepath.Join(dir, FileName))
	s.logger.Info("deleted session", "session_id", id)
	return nil
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
