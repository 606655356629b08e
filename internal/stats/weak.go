package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// SelectWeakQuestions filters weak questions by category and keeps the top
// entries by miss count. top <= 0 keeps all.
func SelectWeakQuestions(weak []model.WeakQuestion, category string, top int) []model.WeakQuestion {
	out := make([]model.WeakQuestion, 0, len(weak))
	for _, w := range weak {
		if category != "" && !strings.EqualFold(w.Category, category) {
			continue
		}
		out = append(out, w)
	}
	model.SortWeakQuestions(out)
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// WeakestCategories returns up to n category names with the lowest average
// score. Categories without tests are skipped.
func WeakestCategories(perf map[string]model.CategoryStats, n int) []string {
	type item struct {
		name string
		avg  int
	}
	items := make([]item, 0, len(perf))
	for name, cs := range perf {
		if cs.TotalTests == 0 {
			continue
		}
		items = append(items, item{name: name, avg: cs.AverageScore})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].avg == items[j].avg {
			return items[i].name < items[j].name
		}
		return items[i].avg < items[j].avg
	})
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for _, it := range items[:n] {
		out = append(out, it.name)
	}
	return out
}
