package statsrepo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiquiz/internal/legacy"
	"github.com/verte-zerg/tuiquiz/internal/model"
)

// State classifies what was found at startup.
type State int

const (
	StateEmpty State = iota
	StateCurrentOnly
	StateLegacyOnly
	StateBoth
)

func (s State) String() string {
	switch s {
	case StateCurrentOnly:
		return "current-only"
	case StateLegacyOnly:
		return "legacy-only"
	case StateBoth:
		return "both"
	default:
		return "empty"
	}
}

// Decision is the outcome of comparing current and legacy data.
type Decision struct {
	State     State
	UseLegacy bool
}

// Reconcile picks between an optional current record and optional legacy
// payload. With both present the higher totalTests wins and ties keep current.
func Reconcile(current *model.StatisticsRecord, legacyData any) Decision {
	hasLegacy := legacyData != nil
	switch {
	case current == nil && !hasLegacy:
		return Decision{State: StateEmpty}
	case current == nil:
		return Decision{State: StateLegacyOnly, UseLegacy: true}
	case !hasLegacy:
		return Decision{State: StateCurrentOnly}
	}
	return Decision{State: StateBoth, UseLegacy: legacyTests(legacyData) > current.TotalTests}
}

// NewerLegacy reports whether legacy data holds more tests or a later last
// test date than current. It drives the delayed sweep.
func NewerLegacy(current *model.StatisticsRecord, legacyData any) bool {
	if legacyData == nil {
		return false
	}
	if current == nil {
		return true
	}
	if legacyTests(legacyData) > current.TotalTests {
		return true
	}
	var currentLast time.Time
	if current.LastTestDate != nil {
		currentLast = *current.LastTestDate
	}
	var legacyLast time.Time
	if obj, ok := legacyData.(map[string]any); ok {
		if t, ok := parseDate(obj["lastTestDate"]); ok {
			legacyLast = t
		}
	}
	return legacyLast.After(currentLast)
}

func legacyTests(data any) int {
	obj, ok := data.(map[string]any)
	if !ok {
		return 0
	}
	n, _ := wholeCount(obj["totalTests"])
	return n
}

// Outcome describes what Open or Sweep did.
type Outcome struct {
	State     State
	Migrated  bool
	LegacyKey string
	Cleaned   int
}

// Open runs startup reconciliation and leaves the winning record in memory.
// A returned error means the record could not be persisted; it is still usable.
func (r *Repository) Open(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, _ := r.LoadCurrent(ctx)
	cand, found := r.legacy.Find(ctx)
	var legacyData any
	if found {
		legacyData = cand.Data
	}
	d := Reconcile(current, legacyData)
	out := Outcome{State: d.State, LegacyKey: cand.Key}
	r.log.Info("statistics startup", zap.Stringer("state", d.State), zap.String("legacy_key", cand.Key))

	switch {
	case d.State == StateEmpty:
		r.rec = model.NewRecord()
		return out, r.saveLocked(ctx)
	case d.UseLegacy:
		return r.adoptLegacyLocked(ctx, cand, current, out)
	default:
		r.rec = *current
		out.Cleaned = r.legacy.Cleanup(ctx, cand.Key)
		return out, nil
	}
}

// Sweep repeats discovery with a broad scan and adopts legacy data holding
// newer information. Running it again with unchanged storage changes nothing.
func (r *Repository) Sweep(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, hasCurrent := r.LoadCurrent(ctx)
	cand, found := r.legacy.Scan(ctx)
	if !found {
		return Outcome{State: stateOf(hasCurrent, false), Cleaned: r.legacy.Cleanup(ctx, "")}, nil
	}

	out := Outcome{State: stateOf(hasCurrent, true), LegacyKey: cand.Key}
	if NewerLegacy(current, cand.Data) {
		r.log.Info("sweep found newer legacy statistics", zap.String("key", cand.Key))
		return r.adoptLegacyLocked(ctx, cand, current, out)
	}
	out.Cleaned = r.legacy.Cleanup(ctx, cand.Key)
	return out, nil
}

// ManualMigrate tries each known legacy key present in storage and adopts the
// first one that migrates. It returns the key used.
func (r *Repository) ManualMigrate(ctx context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := r.legacy.Diagnose(ctx)
	for _, kr := range rep.Legacy {
		var data any
		if !r.store.Load(ctx, kr.Key, &data) {
			r.log.Warn("legacy key unreadable", zap.String("key", kr.Key))
			continue
		}
		migrated, ok := Migrate(data)
		if !ok {
			r.log.Warn("legacy key holds no usable statistics", zap.String("key", kr.Key))
			continue
		}
		r.rec = migrated
		if err := r.saveLocked(ctx); err != nil {
			return kr.Key, true, err
		}
		r.store.Delete(ctx, kr.Key)
		r.log.Info("manual migration complete", zap.String("key", kr.Key), zap.Int("total_tests", migrated.TotalTests))
		return kr.Key, true, nil
	}
	return "", false, nil
}

func (r *Repository) adoptLegacyLocked(ctx context.Context, cand legacy.Candidate, current *model.StatisticsRecord, out Outcome) (Outcome, error) {
	migrated, ok := Migrate(cand.Data)
	if !ok {
		r.log.Warn("legacy payload is not an object; keeping existing data", zap.String("key", cand.Key))
		if current != nil {
			r.rec = *current
		} else {
			r.rec = model.NewRecord()
		}
		return out, r.saveLocked(ctx)
	}

	r.rec = migrated
	out.Migrated = true
	if err := r.saveLocked(ctx); err != nil {
		// Legacy data stays in place so the next start can retry.
		return out, err
	}
	out.Cleaned = r.legacy.Cleanup(ctx, cand.Key)
	r.log.Info("migrated legacy statistics",
		zap.String("key", cand.Key),
		zap.Int("total_tests", migrated.TotalTests),
		zap.Int("history", len(migrated.TestHistory)),
		zap.Int("categories", len(migrated.CategoryPerformance)),
		zap.Int("weak_questions", len(migrated.WeakQuestions)),
		zap.Int("cleaned", out.Cleaned))
	return out, nil
}

func stateOf(current, legacy bool) State {
	switch {
	case current && legacy:
		return StateBoth
	case current:
		return StateCurrentOnly
	case legacy:
		return StateLegacyOnly
	default:
		return StateEmpty
	}
}
