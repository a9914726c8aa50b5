package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strataflow/catalog/persist"
	"github.com/strataflow/catalog/source"
)

// blobSource is a materializable source that remembers its origin.
type blobSource struct {
	name    string
	driver  string
	args    map[string]any
	payload []byte
}

func (s *blobSource) Name() string              { return s.name }
func (s *blobSource) Container() string         { return "blob" }
func (s *blobSource) Token() string             { return source.TokenFor(s.driver, s.args) }
func (s *blobSource) Metadata() source.Metadata { return source.Metadata{} }

func (s *blobSource) Materialize(_ context.Context) ([]byte, error) {
	return s.payload, nil
}

func (s *blobSource) Driver() string           { return s.driver }
func (s *blobSource) OpenArgs() map[string]any { return s.args }

// blobDriver serves payloads from a mutable map so refreshes observe
// updated content.
type blobDriver struct {
	name string

	mu   sync.Mutex
	data map[string][]byte
}

func (d *blobDriver) Name() string      { return d.name }
func (d *blobDriver) Container() string { return "blob" }

func (d *blobDriver) Open(_ context.Context, args map[string]any) (source.DataSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key, _ := args["key"].(string)
	return &blobSource{
		name:    key,
		driver:  d.name,
		args:    args,
		payload: d.data[key],
	}, nil
}

func (d *blobDriver) set(key string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[key] = payload
}

func registerBlobDriver(t *testing.T, name string) *blobDriver {
	t.Helper()
	d := &blobDriver{name: name, data: make(map[string][]byte)}
	if err := source.Register(d); err != nil {
		t.Fatalf("Register driver failed: %v", err)
	}
	t.Cleanup(func() { source.Unregister(name) })
	return d
}

func openBlob(t *testing.T, d *blobDriver, key string) source.DataSource {
	t.Helper()
	src, err := d.Open(context.Background(), map[string]any{"key": key})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return src
}

func TestFileStore_PersistRoundTrip(t *testing.T) {
	drv := registerBlobDriver(t, "blob-roundtrip")
	drv.set("a", []byte("payload-a"))

	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	src := openBlob(t, drv, "a")

	ok, err := store.HasBeenPersisted(context.Background(), src)
	if err != nil {
		t.Fatalf("HasBeenPersisted failed: %v", err)
	}
	if ok {
		t.Fatal("source reported persisted before Persist")
	}

	rep, err := store.Persist(context.Background(), src, time.Minute)
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if rep.Token() != src.Token() {
		t.Errorf("replica token = %q, want %q", rep.Token(), src.Token())
	}
	if rep.ID() == "" {
		t.Error("replica has empty record ID")
	}

	ok, err = store.HasBeenPersisted(context.Background(), src)
	if err != nil {
		t.Fatalf("HasBeenPersisted failed: %v", err)
	}
	if !ok {
		t.Fatal("source not reported persisted after Persist")
	}

	got, err := store.GetPersisted(context.Background(), src)
	if err != nil {
		t.Fatalf("GetPersisted failed: %v", err)
	}
	payload, err := got.(*persist.Replica).Materialize(context.Background())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if string(payload) != "payload-a" {
		t.Errorf("payload = %q, want payload-a", payload)
	}

	md := got.Metadata()
	if md.TTL != time.Minute {
		t.Errorf("TTL = %v, want 1m", md.TTL)
	}
	if md.Timestamp.IsZero() {
		t.Error("replica timestamp is zero")
	}
}

func TestFileStore_GetPersisted_NotPersisted(t *testing.T) {
	drv := registerBlobDriver(t, "blob-missing")

	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.GetPersisted(context.Background(), openBlob(t, drv, "nope"))
	if !errors.Is(err, persist.ErrNotPersisted) {
		t.Errorf("got %v, want ErrNotPersisted", err)
	}
}

func TestFileStore_Refresh(t *testing.T) {
	drv := registerBlobDriver(t, "blob-refresh")
	drv.set("a", []byte("v1"))

	base := time.Now().Add(-time.Hour)
	clock := base
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	store, err := persist.NewFileStore(t.TempDir(), persist.WithClock(now))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	src := openBlob(t, drv, "a")
	rep, err := store.Persist(context.Background(), src, time.Minute)
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	drv.set("a", []byte("v2"))
	mu.Lock()
	clock = base.Add(30 * time.Second)
	mu.Unlock()

	refreshed, err := store.Refresh(context.Background(), rep)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	payload, err := refreshed.(*persist.Replica).Materialize(context.Background())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if string(payload) != "v2" {
		t.Errorf("refreshed payload = %q, want v2", payload)
	}
	if refreshed.(*persist.Replica).ID() != rep.ID() {
		t.Error("refresh did not preserve the record ID")
	}
	if !refreshed.Metadata().Timestamp.After(rep.Metadata().Timestamp) {
		t.Error("refresh did not advance the timestamp")
	}

	// The rewrite is visible to a later read.
	got, err := store.GetPersisted(context.Background(), src)
	if err != nil {
		t.Fatalf("GetPersisted failed: %v", err)
	}
	payload, _ = got.(*persist.Replica).Materialize(context.Background())
	if string(payload) != "v2" {
		t.Errorf("stored payload after refresh = %q, want v2", payload)
	}
}

func TestFileStore_IndexRebuiltFromDisk(t *testing.T) {
	drv := registerBlobDriver(t, "blob-reindex")
	drv.set("a", []byte("payload"))

	root := t.TempDir()
	store, err := persist.NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	src := openBlob(t, drv, "a")
	if _, err := store.Persist(context.Background(), src, 0); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	reopened, err := persist.NewFileStore(root)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	ok, err := reopened.HasBeenPersisted(context.Background(), src)
	if err != nil {
		t.Fatalf("HasBeenPersisted failed: %v", err)
	}
	if !ok {
		t.Error("reopened store lost the replica index")
	}
}

func TestFileStore_RemoveAndTokens(t *testing.T) {
	drv := registerBlobDriver(t, "blob-remove")
	drv.set("a", []byte("pa"))
	drv.set("b", []byte("pb"))

	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	srcA := openBlob(t, drv, "a")
	srcB := openBlob(t, drv, "b")
	for _, src := range []source.DataSource{srcA, srcB} {
		if _, err := store.Persist(context.Background(), src, 0); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
	}

	if got := len(store.Tokens()); got != 2 {
		t.Fatalf("Tokens = %d, want 2", got)
	}

	if err := store.Remove(context.Background(), srcA.Token()); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got := len(store.Tokens()); got != 1 {
		t.Errorf("Tokens after Remove = %d, want 1", got)
	}

	// Removing a missing token is a no-op.
	if err := store.Remove(context.Background(), srcA.Token()); err != nil {
		t.Errorf("Remove of missing token failed: %v", err)
	}
}

func TestFileStore_Stat(t *testing.T) {
	drv := registerBlobDriver(t, "blob-stat")
	drv.set("a", []byte("payload"))

	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	src := openBlob(t, drv, "a")
	if _, err := store.Persist(context.Background(), src, time.Hour); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	info, err := store.Stat(src.Token())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Driver != "blob-stat" || info.Name != "a" || info.Size != len("payload") {
		t.Errorf("Stat = %+v", info)
	}
}

func TestFileStore_Sweep(t *testing.T) {
	drv := registerBlobDriver(t, "blob-sweep")
	drv.set("fresh", []byte("f1"))
	drv.set("expired", []byte("e1"))
	drv.set("forever", []byte("n1"))

	base := time.Now()
	clock := base
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	store, err := persist.NewFileStore(t.TempDir(), persist.WithClock(now))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// Inside its ttl window at sweep time: the policy refreshes it.
	if _, err := store.Persist(context.Background(), openBlob(t, drv, "fresh"), time.Hour); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	// Past its ttl at sweep time: kept as-is.
	if _, err := store.Persist(context.Background(), openBlob(t, drv, "expired"), time.Second); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	// No expiry: kept as-is.
	if _, err := store.Persist(context.Background(), openBlob(t, drv, "forever"), 0); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	mu.Lock()
	clock = base.Add(30 * time.Second)
	mu.Unlock()

	refreshed, err := store.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("Sweep refreshed %d replicas, want 1", refreshed)
	}
}

func TestFileStore_ClosedProbeFails(t *testing.T) {
	drv := registerBlobDriver(t, "blob-closed")

	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = store.HasBeenPersisted(context.Background(), openBlob(t, drv, "a"))
	if !errors.Is(err, persist.ErrStoreClosed) {
		t.Errorf("got %v, want ErrStoreClosed", err)
	}
}
