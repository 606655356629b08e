package stats

import (
	"sort"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// CategoryRow is one line of the category table.
type CategoryRow struct {
	Name string
	model.CategoryStats
	Median float64
	Trend  float64
	Trendy bool
}

// CategoryRows flattens the performance map, most practised first.
func CategoryRows(perf map[string]model.CategoryStats) []CategoryRow {
	rows := make([]CategoryRow, 0, len(perf))
	for name, cs := range perf {
		trend, ok := Trend(cs.RecentScores)
		rows = append(rows, CategoryRow{
			Name:          name,
			CategoryStats: cs,
			Median:        Median(cs.RecentScores),
			Trend:         trend,
			Trendy:        ok,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalTests == rows[j].TotalTests {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TotalTests > rows[j].TotalTests
	})
	return rows
}

// TopCategories returns the names of the n most practised categories.
func TopCategories(perf map[string]model.CategoryStats, n int) []string {
	if n <= 0 {
		return nil
	}
	rows := CategoryRows(perf)
	n = min(n, len(rows))
	out := make([]string, 0, n)
	for _, r := range rows[:n] {
		out = append(out, r.Name)
	}
	return out
}
