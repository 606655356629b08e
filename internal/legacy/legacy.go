// Package legacy locates statistics written under historical storage keys.
//
// Known legacy keys are tried first. Failing that, every persisted entry is
// decoded and classified by shape; the first quiz-shaped object wins.
package legacy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/storage"
)

// KnownKeys lists historical statistics keys in lookup order.
var KnownKeys = []string{
	"uvt_quiz_stats",
	"uvt_quiz_stats_old",
	"quiz_stats",
	"userStats",
	"quizStats",
}

// Indicators are the top-level fields of a statistics object.
var Indicators = []string{
	"totalTests",
	"totalQuestionsAnswered",
	"totalCorrectAnswers",
	"testHistory",
	"categoryPerformance",
	"weakQuestions",
	"streakData",
}

// MinIndicators is how many indicator fields make an object quiz-shaped.
const MinIndicators = 3

const themeKey = "darkMode"

// Candidate is a legacy payload and the key it was found under.
type Candidate struct {
	Key  string
	Data any
}

// Decoder turns a raw payload into a value.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Store is the storage surface the engine needs.
type Store interface {
	Load(ctx context.Context, key string, dst any) bool
	Delete(ctx context.Context, key string) bool
	Entries(ctx context.Context) []storage.RawEntry
}

// Denied reports whether a key is excluded from the broad scan.
func Denied(key string) bool {
	return key == model.StatsKey || key == themeKey || strings.HasPrefix(key, "_")
}

// IsQuizShaped reports whether v is an object exposing enough indicator fields.
func IsQuizShaped(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	count := 0
	for _, field := range Indicators {
		if _, ok := obj[field]; ok {
			count++
		}
	}
	return count >= MinIndicators
}

// Classify decodes entries and returns the quiz-shaped ones in scan order.
// Entries that fail to decode are skipped.
func Classify(entries []storage.RawEntry, dec Decoder) []Candidate {
	var out []Candidate
	for _, e := range entries {
		if Denied(e.Key) || len(e.Value) == 0 {
			continue
		}
		var v any
		if err := dec.Decode(e.Value, &v); err != nil {
			continue
		}
		if IsQuizShaped(v) {
			out = append(out, Candidate{Key: e.Key, Data: v})
		}
	}
	return out
}

// Engine runs discovery and cleanup against a store.
type Engine struct {
	store Store
	dec   Decoder
	log   *zap.Logger
}

// NewEngine builds an engine.
func NewEngine(store Store, dec Decoder, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, dec: dec, log: log}
}

// Find tries the known keys in order, then falls back to a broad scan.
func (e *Engine) Find(ctx context.Context) (Candidate, bool) {
	for _, key := range KnownKeys {
		var v any
		if e.store.Load(ctx, key, &v) && v != nil {
			e.log.Info("found legacy statistics", zap.String("key", key))
			return Candidate{Key: key, Data: v}, true
		}
	}
	return e.Scan(ctx)
}

// Scan classifies every persisted entry and returns the first match.
func (e *Engine) Scan(ctx context.Context) (Candidate, bool) {
	candidates := Classify(e.store.Entries(ctx), e.dec)
	if len(candidates) == 0 {
		e.log.Debug("no quiz-shaped data found in scan")
		return Candidate{}, false
	}
	e.log.Info("found quiz-shaped data in scan", zap.String("key", candidates[0].Key))
	return candidates[0], true
}

// Cleanup deletes every known legacy key plus specificKey, returning how many were present.
func (e *Engine) Cleanup(ctx context.Context, specificKey string) int {
	keys := append([]string{}, KnownKeys...)
	if specificKey != "" && !contains(keys, specificKey) {
		keys = append(keys, specificKey)
	}
	removed := 0
	for _, key := range keys {
		if e.store.Delete(ctx, key) {
			e.log.Info("removed legacy statistics", zap.String("key", key))
			removed++
		}
	}
	return removed
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
