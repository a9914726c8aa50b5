package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/strataflow/catalog/observability"
	"github.com/strataflow/catalog/source"
)

const replicaExt = ".replica"

// FileStore is a directory-backed Store. Each persisted replica lives in
// one msgpack-encoded file named after the source token, so the token
// index can be rebuilt from a directory listing alone.
type FileStore struct {
	root     string
	observer observability.Observer
	now      func() time.Time

	mu     sync.RWMutex
	index  map[string]bool // token presence
	closed bool
}

// StoreOption configures a FileStore after construction.
type StoreOption func(*FileStore)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) StoreOption {
	return func(s *FileStore) { s.observer = o }
}

// WithClock overrides the store's time source. Intended for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates a FileStore rooted at dir, creating the directory
// when missing and indexing any replica files already present.
func NewFileStore(dir string, opts ...StoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	s := &FileStore{
		root:     dir,
		observer: observability.NoOpObserver{},
		now:      time.Now,
		index:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan store root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), replicaExt) {
			continue
		}
		s.index[strings.TrimSuffix(e.Name(), replicaExt)] = true
	}

	return s, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

// Persist materializes src and stores its output as a replica with the
// given expiry window (zero ttl means the replica never expires). The
// source must satisfy source.Materializer and source.Origin so a later
// Refresh can redo the materialization.
func (s *FileStore) Persist(ctx context.Context, src source.DataSource, ttl time.Duration) (*Replica, error) {
	m, ok := src.(source.Materializer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMaterializable, src.Name())
	}
	origin, ok := src.(source.Origin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrigin, src.Name())
	}

	payload, err := m.Materialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", src.Name(), err)
	}

	rec := record{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Token:     src.Token(),
		Name:      src.Name(),
		Container: src.Container(),
		Driver:    origin.Driver(),
		Args:      origin.OpenArgs(),
		Payload:   payload,
		TTL:       ttl,
		Timestamp: s.now(),
		Extra:     src.Metadata().Extra,
	}

	if err := s.writeRecord(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.index[rec.Token] = true
	s.mu.Unlock()

	s.emit(ctx, EventReplicaPersisted, observability.LevelInfo, map[string]any{
		"token":  rec.Token,
		"driver": rec.Driver,
		"ttl":    ttl.String(),
	})

	return &Replica{rec: rec}, nil
}

// HasBeenPersisted reports whether a replica exists for the source token.
func (s *FileStore) HasBeenPersisted(_ context.Context, src source.DataSource) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	return s.index[src.Token()], nil
}

// GetPersisted returns the stored replica for the source's token.
func (s *FileStore) GetPersisted(_ context.Context, src source.DataSource) (source.DataSource, error) {
	rec, err := s.readRecord(src.Token())
	if err != nil {
		return nil, err
	}
	return &Replica{rec: rec}, nil
}

// Refresh re-opens the replica's origin driver with its original
// arguments, re-materializes the output, and rewrites the record in place.
// The record ID is preserved; the timestamp is reset.
func (s *FileStore) Refresh(ctx context.Context, replica source.DataSource) (source.DataSource, error) {
	rep, ok := replica.(*Replica)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignReplica, replica)
	}

	drv, err := source.Lookup(rep.rec.Driver)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", rep.rec.Token, err)
	}

	fresh, err := drv.Open(ctx, rep.rec.Args)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: reopen: %w", rep.rec.Token, err)
	}

	m, ok := fresh.(source.Materializer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMaterializable, fresh.Name())
	}
	payload, err := m.Materialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: materialize: %w", rep.rec.Token, err)
	}

	rec := rep.rec
	rec.Payload = payload
	rec.Timestamp = s.now()

	if err := s.writeRecord(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.index[rec.Token] = true
	s.mu.Unlock()

	s.emit(ctx, EventReplicaRefreshed, observability.LevelInfo, map[string]any{
		"token":  rec.Token,
		"driver": rec.Driver,
	})

	return &Replica{rec: rec}, nil
}

// Remove deletes the replica for a token. Missing tokens are ignored.
func (s *FileStore) Remove(ctx context.Context, token string) error {
	path := filepath.Join(s.root, token+replicaExt)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove replica %s: %w", token, err)
	}

	s.mu.Lock()
	delete(s.index, token)
	s.mu.Unlock()

	s.emit(ctx, EventReplicaRemoved, observability.LevelInfo, map[string]any{
		"token": token,
	})
	return nil
}

// Tokens returns the tokens of all indexed replicas, sorted.
func (s *FileStore) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]string, 0, len(s.index))
	for t := range s.index {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Info summarizes a stored replica for inspection.
type Info struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	Container string    `json:"container"`
	Driver    string    `json:"driver"`
	TTL       string    `json:"ttl"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
}

// Stat returns the stored replica's summary without loading it as a source.
func (s *FileStore) Stat(token string) (Info, error) {
	rec, err := s.readRecord(token)
	if err != nil {
		return Info{}, err
	}
	return Info{
		ID:        rec.ID,
		Token:     rec.Token,
		Name:      rec.Name,
		Container: rec.Container,
		Driver:    rec.Driver,
		TTL:       rec.TTL.String(),
		Timestamp: rec.Timestamp,
		Size:      len(rec.Payload),
	}, nil
}

// Sweep applies the ModeDefault staleness policy to every indexed replica
// and refreshes the ones the policy sends down the refresh branch.
// Returns the number of replicas refreshed.
func (s *FileStore) Sweep(ctx context.Context) (int, error) {
	s.emit(ctx, EventSweepStart, observability.LevelVerbose, map[string]any{
		"replicas": len(s.Tokens()),
	})

	refreshed := 0
	for _, token := range s.Tokens() {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		rec, err := s.readRecord(token)
		if err != nil {
			return refreshed, err
		}
		rep := &Replica{rec: rec}

		if Decide(ModeDefault, rep.Metadata(), s.now()) != OutcomeRefresh {
			continue
		}
		if _, err := s.Refresh(ctx, rep); err != nil {
			return refreshed, err
		}
		refreshed++
	}

	s.emit(ctx, EventSweepComplete, observability.LevelInfo, map[string]any{
		"refreshed": refreshed,
	})
	return refreshed, nil
}

// Close marks the store closed. Subsequent persistence probes fail with
// ErrStoreClosed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// addToken and dropToken keep the index in sync with external writes.
// Used by the Watcher.
func (s *FileStore) addToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[token] = true
}

func (s *FileStore) dropToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.index, token)
}

func (s *FileStore) writeRecord(rec record) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode replica %s: %w", rec.Token, err)
	}

	path := filepath.Join(s.root, rec.Token+replicaExt)
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write replica %s: %w", rec.Token, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write replica %s: %w", rec.Token, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write replica %s: %w", rec.Token, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write replica %s: %w", rec.Token, err)
	}
	return nil
}

func (s *FileStore) readRecord(token string) (record, error) {
	path := filepath.Join(s.root, token+replicaExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return record{}, fmt.Errorf("%w: %s", ErrNotPersisted, token)
		}
		return record{}, fmt.Errorf("read replica %s: %w", token, err)
	}

	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, token, err)
	}
	return rec, nil
}

func (s *FileStore) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: s.now(),
		Source:    "persist.FileStore",
		Data:      data,
	})
}
