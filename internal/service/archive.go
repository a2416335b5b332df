package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/storage"
)

// SnapshotArchive writes aggregate results to object storage for later
// analysis. Writes are best-effort.
type SnapshotArchive struct {
	storage storage.ObjectStorage
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewSnapshotArchive returns nil when no storage is configured.
func NewSnapshotArchive(store storage.ObjectStorage) *SnapshotArchive {
	if store == nil {
		return nil
	}
	return &SnapshotArchive{storage: store, now: time.Now}
}

// ObjectKey is the storage key of a snapshot taken at t.
func ObjectKey(aggregateKey string, t time.Time) string {
	fingerprint := strings.TrimPrefix(aggregateKey, cache.PrefixAggregate)
	return fmt.Sprintf("aggregates/%s/%s.json", t.UTC().Format("2006/01/02"), fingerprint)
}

// Save uploads one snapshot synchronously.
func (a *SnapshotArchive) Save(ctx context.Context, aggregateKey string, result *domain.AggregateResult) error {
	if a == nil || result == nil {
		return nil
	}
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := ObjectKey(aggregateKey, a.now())
	if err := a.storage.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	logger.With(logger.Fields{logger.FieldSize: len(body)}).Debug(ctx, "snapshot archived: url=%s", a.storage.GetURL(key))
	return nil
}

// Load returns today's snapshot for aggregateKey, if one was archived.
func (a *SnapshotArchive) Load(ctx context.Context, aggregateKey string) (*domain.AggregateResult, bool) {
	if a == nil {
		return nil, false
	}
	key := ObjectKey(aggregateKey, a.now())
	ok, err := a.storage.Exists(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "snapshot lookup failed: key=%s, error=%v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	body, err := a.storage.Download(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "snapshot download failed: key=%s, error=%v", key, err)
		return nil, false
	}
	defer body.Close()

	var result domain.AggregateResult
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		logger.CtxWarn(ctx, "snapshot decode failed: key=%s, error=%v", key, err)
		return nil, false
	}
	return &result, true
}

// SaveAsync uploads in the background, logging failures.
func (a *SnapshotArchive) SaveAsync(ctx context.Context, aggregateKey string, result *domain.AggregateResult) {
	if a == nil {
		return
	}
	bg := logger.Detach(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(bg, 30*time.Second)
		defer cancel()
		if err := a.Save(ctx, aggregateKey, result); err != nil {
			logger.CtxWarn(ctx, "snapshot archive failed: %v", err)
		}
	}()
}

// Wait blocks until pending uploads finish.
func (a *SnapshotArchive) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}
