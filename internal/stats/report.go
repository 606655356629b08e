package stats

import (
	"strings"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Summary holds the headline numbers of a record.
type Summary struct {
	Tests         int
	Questions     int
	Correct       int
	Accuracy      float64
	Hours         float64
	CurrentStreak int
	BestStreak    int
	FirstTest     *time.Time
	LastTest      *time.Time
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Summary      Summary
	Categories   []CategoryRow
	Focus        []string
	Weak         []model.WeakQuestion
	History      []model.TestRecord
	Achievements []model.Achievement
}

// Empty reports whether there is nothing to show.
func (r Report) Empty() bool {
	return r.Summary.Tests == 0 && len(r.History) == 0 && len(r.Categories) == 0
}

// BuildReport prepares a record for rendering. A category filter narrows the
// tables and history; Last caps history, WeakTop caps weak questions.
func BuildReport(rec model.StatisticsRecord, cfg model.StatsConfig) Report {
	rep := Report{
		Summary: Summary{
			Tests:         rec.TotalTests,
			Questions:     rec.TotalQuestionsAnswered,
			Correct:       rec.TotalCorrectAnswers,
			Accuracy:      Accuracy(rec),
			Hours:         Hours(rec),
			CurrentStreak: rec.StreakData.Current,
			BestStreak:    rec.StreakData.Best,
			FirstTest:     rec.FirstTestDate,
			LastTest:      rec.LastTestDate,
		},
		Achievements: append([]model.Achievement{}, rec.Achievements...),
	}

	perf := rec.CategoryPerformance
	if cfg.Category != "" {
		perf = map[string]model.CategoryStats{}
		for name, cs := range rec.CategoryPerformance {
			if strings.EqualFold(name, cfg.Category) {
				perf[name] = cs
			}
		}
	}
	rep.Categories = CategoryRows(perf)
	rep.Focus = WeakestCategories(perf, 3)
	rep.Weak = SelectWeakQuestions(rec.WeakQuestions, cfg.Category, cfg.WeakTop)

	rep.History = make([]model.TestRecord, 0, len(rec.TestHistory))
	for _, h := range rec.TestHistory {
		if cfg.Category != "" && !strings.EqualFold(h.CategoryName, cfg.Category) {
			continue
		}
		rep.History = append(rep.History, h)
	}
	if cfg.Last > 0 && len(rep.History) > cfg.Last {
		rep.History = rep.History[:cfg.Last]
	}
	return rep
}
