// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Score classes used to color and label percentages.
const (
	ClassExcellent = "excellent"
	ClassGood      = "good"
	ClassNeedsWork = "needs-work"
)

// Accuracy returns the share of correct answers across all tests, 0..100.
func Accuracy(rec model.StatisticsRecord) float64 {
	if rec.TotalQuestionsAnswered <= 0 {
		return 0
	}
	return float64(rec.TotalCorrectAnswers) / float64(rec.TotalQuestionsAnswered) * 100
}

// Hours converts the accumulated seconds into hours.
func Hours(rec model.StatisticsRecord) float64 {
	return float64(rec.TotalTimeSpent) / 3600
}

// ScoreClass buckets a percentage.
func ScoreClass(pct int) string {
	switch {
	case pct >= 80:
		return ClassExcellent
	case pct >= 60:
		return ClassGood
	default:
		return ClassNeedsWork
	}
}

// Median returns the median of the scores, 0 when empty.
func Median(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// Trend compares the mean of the three most recent scores against the three
// before them. Scores are newest first. ok is false with fewer than four.
func Trend(scores []int) (delta float64, ok bool) {
	if len(scores) < 4 {
		return 0, false
	}
	recent := scores[:3]
	prior := scores[3:]
	if len(prior) > 3 {
		prior = prior[:3]
	}
	return mean(recent) - mean(prior), true
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// HistoryScores returns history percentages oldest first, suitable for a
// sparkline.
func HistoryScores(history []model.TestRecord) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[len(history)-1-i] = float64(h.Percentage)
	}
	return out
}
