package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

func TestMedian(t *testing.T) {
	if got := Median(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Median([]int{90, 10, 50}); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := Median([]int{40, 80, 60, 70}); got != 65 {
		t.Fatalf("expected 65, got %v", got)
	}
}

func TestTrend(t *testing.T) {
	if _, ok := Trend([]int{90, 80, 70}); ok {
		t.Fatalf("expected no trend for three scores")
	}
	delta, ok := Trend([]int{90, 80, 70, 60, 50, 40, 0})
	if !ok || delta != 30 {
		t.Fatalf("expected +30, got %v %v", delta, ok)
	}
	delta, _ = Trend([]int{40, 40, 40, 100})
	if delta != -60 {
		t.Fatalf("expected -60, got %v", delta)
	}
}

func TestScoreClass(t *testing.T) {
	cases := map[int]string{100: ClassExcellent, 80: ClassExcellent, 79: ClassGood, 60: ClassGood, 59: ClassNeedsWork, 0: ClassNeedsWork}
	for pct, want := range cases {
		if got := ScoreClass(pct); got != want {
			t.Fatalf("ScoreClass(%d) = %s, want %s", pct, got, want)
		}
	}
}

func TestAccuracyAndHours(t *testing.T) {
	rec := model.NewRecord()
	if Accuracy(rec) != 0 {
		t.Fatalf("expected zero accuracy for empty record")
	}
	rec.TotalQuestionsAnswered = 8
	rec.TotalCorrectAnswers = 6
	rec.TotalTimeSpent = 5400
	if got := Accuracy(rec); math.Abs(got-75) > 1e-9 {
		t.Fatalf("expected 75, got %v", got)
	}
	if got := Hours(rec); got != 1.5 {
		t.Fatalf("expected 1.5h, got %v", got)
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	avg := MovingAverage([]float64{0, 10, 20, 30}, 2)
	want := []float64{0, 5, 15, 25}
	for i := range want {
		if avg[i] != want[i] {
			t.Fatalf("moving average = %v", avg)
		}
	}
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
}

func TestHistoryScoresOldestFirst(t *testing.T) {
	got := HistoryScores([]model.TestRecord{{Percentage: 90}, {Percentage: 40}})
	if got[0] != 40 || got[1] != 90 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(95 * 1e9); got != "1:35" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := FormatDuration(3725 * 1e9); got != "1:02:05" {
		t.Fatalf("unexpected: %s", got)
	}
}
