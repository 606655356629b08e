// Package statsrepo owns the persisted statistics record: loading, legacy
// reconciliation, migration, and every read-modify-write applied to it.
package statsrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiquiz/internal/legacy"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/scoring"
)

// Store is the persistence surface the repository needs.
type Store interface {
	Load(ctx context.Context, key string, dst any) bool
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) bool
	Keys(ctx context.Context) []string
}

// Repository holds the in-memory record and serializes every mutation.
type Repository struct {
	mu     sync.Mutex
	store  Store
	legacy *legacy.Engine
	log    *zap.Logger
	now    func() time.Time
	rec    model.StatisticsRecord
}

// New builds a repository holding a fresh record. Call Open to load persisted data.
func New(store Store, engine *legacy.Engine, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		store:  store,
		legacy: engine,
		log:    log,
		now:    time.Now,
		rec:    model.NewRecord(),
	}
}

// SetClock replaces the time source used to stamp results.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// LoadCurrent reads the current-schema record. A missing, unreadable or
// differently versioned payload is reported as absent.
func (r *Repository) LoadCurrent(ctx context.Context) (*model.StatisticsRecord, bool) {
	var rec model.StatisticsRecord
	if !r.store.Load(ctx, model.StatsKey, &rec) {
		return nil, false
	}
	if rec.Version != model.SchemaVersion {
		r.log.Info("stored statistics have a different schema version",
			zap.String("version", rec.Version), zap.String("want", model.SchemaVersion))
		return nil, false
	}
	rec.Normalize()
	return &rec, true
}

// Snapshot returns a copy of the record that callers may keep.
func (r *Repository) Snapshot() model.StatisticsRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Clone()
}

// Save persists the in-memory record.
func (r *Repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(ctx)
}

func (r *Repository) saveLocked(ctx context.Context) error {
	r.rec.Normalize()
	if err := r.store.Save(ctx, model.StatsKey, r.rec); err != nil {
		r.log.Error("statistics kept in memory only", zap.Error(err))
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

// RecordResult folds a finished session into the record and persists it.
// The returned achievements were earned by this result. The record is
// updated even when persisting fails.
func (r *Repository) RecordResult(ctx context.Context, res model.TestResult) ([]model.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	earned := scoring.Apply(&r.rec, res, r.now())
	r.log.Info("recorded test result",
		zap.String("category", res.CategoryName),
		zap.Int("percentage", res.Percentage),
		zap.Int("total_tests", r.rec.TotalTests),
		zap.Int("achievements", len(earned)))
	return earned, r.saveLocked(ctx)
}

// Clear replaces the record with a fresh one and persists it.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec = model.NewRecord()
	r.log.Info("statistics cleared")
	return r.saveLocked(ctx)
}

// Purge deletes every key that looks statistics-related, then saves a fresh
// record. It returns how many keys were removed.
func (r *Repository) Purge(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, key := range r.store.Keys(ctx) {
		if !purgeable(key) {
			continue
		}
		if r.store.Delete(ctx, key) {
			r.log.Info("purged key", zap.String("key", key))
			removed++
		}
	}
	r.rec = model.NewRecord()
	return removed, r.saveLocked(ctx)
}

func purgeable(key string) bool {
	return strings.Contains(key, "quiz") ||
		strings.Contains(key, "stats") ||
		key == model.StatsKey ||
		key == "userStats"
}
