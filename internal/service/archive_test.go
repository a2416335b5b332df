package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
)

// memoryStorage is an in-memory storage.ObjectStorage.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, io.EOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStorage) GetURL(key string) string { return "mem://" + key }

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 7, 23, 30, 0, 0, time.FixedZone("x", -5*3600))
	got := ObjectKey(cache.PrefixAggregate+"abc123", at)
	if got != "aggregates/2025/03/08/abc123.json" {
		t.Errorf("ObjectKey() = %q", got)
	}
}

func TestSnapshotArchive(t *testing.T) {
	if NewSnapshotArchive(nil) != nil {
		t.Fatal("nil storage should disable the archive")
	}
	var disabled *SnapshotArchive
	disabled.SaveAsync(context.Background(), "k", &domain.AggregateResult{})
	disabled.Wait()

	store := newMemoryStorage()
	a := NewSnapshotArchive(store)
	a.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	result := &domain.AggregateResult{Results: []domain.Job{{ID: "1", Title: "Go"}}}
	a.SaveAsync(context.Background(), cache.PrefixAggregate+"fp", result)
	a.Wait()

	key := "aggregates/2025/06/01/fp.json"
	raw, ok := store.objects[key]
	if !ok {
		t.Fatalf("snapshot not stored at %s: %v", key, store.objects)
	}
	var decoded domain.AggregateResult
	if err := json.Unmarshal(raw, &decoded); err != nil || len(decoded.Results) != 1 {
		t.Errorf("stored snapshot = %s (%v)", raw, err)
	}
	if store.types[key] != "application/json" {
		t.Errorf("content type = %q", store.types[key])
	}

	loaded, ok := a.Load(context.Background(), cache.PrefixAggregate+"fp")
	if !ok || len(loaded.Results) != 1 || loaded.Results[0].ID != "1" {
		t.Errorf("Load() = %+v, %v", loaded, ok)
	}
	if _, ok := a.Load(context.Background(), cache.PrefixAggregate+"other"); ok {
		t.Error("Load() found a snapshot that was never saved")
	}

	store.err = errStub
	if err := a.Save(context.Background(), "k", result); err == nil {
		t.Error("Save() should report upload failures")
	}
}
