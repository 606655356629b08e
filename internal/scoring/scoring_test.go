package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

var day0 = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func question(id, category string, correct ...string) model.Question {
	return model.Question{
		ID:             id,
		Text:           "question " + id,
		Category:       category,
		CorrectAnswers: correct,
		Options:        []model.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}
}

func result(category string, total, correct int) model.TestResult {
	return model.TestResult{
		CategoryName:   category,
		TotalQuestions: total,
		CorrectAnswers: correct,
		WrongAnswers:   total - correct,
		Percentage:     Percent(correct, total),
		TimeSpent:      60,
	}
}

func TestComputeResultGradesSets(t *testing.T) {
	snap := model.SessionSnapshot{
		SessionID: "s1",
		Label:     "Networks",
		Questions: []model.Question{
			question("1", "Networks", "a", "b"),
			question("2", "Networks", "c"),
			question("3", "Networks", "a"),
			question("4", "Networks", "b"),
		},
		Answers:   [][]string{{"b", "a"}, {"a"}, nil, {"b"}},
		StartedAt: day0,
		EndedAt:   day0.Add(95 * time.Second),
	}
	res := ComputeResult(snap)
	require.Equal(t, "s1", res.SessionID)
	require.Equal(t, 4, res.TotalQuestions)
	require.Equal(t, 2, res.CorrectAnswers)
	require.Equal(t, 1, res.WrongAnswers)
	require.Equal(t, 1, res.UnansweredQuestions)
	require.Equal(t, 50, res.Percentage)
	require.Equal(t, 95, res.TimeSpent)
	require.False(t, res.IsRandomTest)
	require.False(t, res.IsCustomTest)
	require.Len(t, res.WeakQuestions, 1)
	require.Equal(t, "2", res.WeakQuestions[0].ID)
	require.True(t, res.Questions[0].IsCorrect)
	require.False(t, res.Questions[2].WasAnswered)
}

func TestComputeResultKindsAndEmpty(t *testing.T) {
	res := ComputeResult(model.SessionSnapshot{Kind: model.KindCustom})
	require.Equal(t, 0, res.Percentage)
	require.Equal(t, "Unknown", res.CategoryName)
	require.True(t, res.IsCustomTest)
	require.False(t, res.IsRandomTest)

	res = ComputeResult(model.SessionSnapshot{Kind: model.KindRandom, Label: model.RandomTestLabel})
	require.True(t, res.IsRandomTest)
}

func TestSameSet(t *testing.T) {
	require.True(t, SameSet([]string{"b", "a"}, []string{"a", "b"}))
	require.False(t, SameSet([]string{"a"}, []string{"a", "b"}))
	require.False(t, SameSet([]string{"a", "c"}, []string{"a", "b"}))
	require.True(t, SameSet(nil, []string{}))
}

func TestPercentRounds(t *testing.T) {
	require.Equal(t, 67, Percent(2, 3))
	require.Equal(t, 33, Percent(1, 3))
	require.Equal(t, 0, Percent(5, 0))
}

func TestApplyFirstPerfectTest(t *testing.T) {
	rec := model.NewRecord()
	earned := Apply(&rec, result("Networks", 10, 10), day0)

	require.Equal(t, 1, rec.TotalTests)
	require.Equal(t, 10, rec.TotalQuestionsAnswered)
	require.Equal(t, 10, rec.TotalCorrectAnswers)
	require.Equal(t, 1, rec.StreakData.Current)
	require.Equal(t, 1, rec.StreakData.Best)
	require.NotNil(t, rec.FirstTestDate)
	require.True(t, rec.FirstTestDate.Equal(day0))
	require.Len(t, rec.TestHistory, 1)
	require.NotEmpty(t, rec.TestHistory[0].ID)

	ids := []string{}
	for _, a := range earned {
		ids = append(ids, a.ID)
	}
	require.ElementsMatch(t, []string{"first_test", "perfect_score"}, ids)

	cs := rec.CategoryPerformance["Networks"]
	require.Equal(t, 100, cs.AverageScore)
	require.Equal(t, 100, cs.BestScore)
	require.Equal(t, []int{100}, cs.RecentScores)
}

func TestApplyPerfectScoreAwardedOnce(t *testing.T) {
	rec := model.NewRecord()
	Apply(&rec, result("A", 4, 4), day0)
	earned := Apply(&rec, result("A", 4, 4), day0.Add(time.Hour))
	require.Empty(t, earned)
	count := 0
	for _, a := range rec.Achievements {
		if a.ID == "perfect_score" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestApplyStreakAcrossDays(t *testing.T) {
	rec := model.NewRecord()
	var earned []model.Achievement
	for i := 0; i < 5; i++ {
		earned = Apply(&rec, result("A", 10, 8), day0.AddDate(0, 0, i))
	}
	require.Equal(t, 5, rec.StreakData.Current)
	require.Equal(t, 5, rec.StreakData.Best)
	require.Len(t, earned, 1)
	require.Equal(t, "streak_5", earned[0].ID)
}

func TestApplySameDayDoesNotExtendStreak(t *testing.T) {
	rec := model.NewRecord()
	Apply(&rec, result("A", 10, 9), day0)
	Apply(&rec, result("A", 10, 9), day0.Add(3*time.Hour))
	require.Equal(t, 1, rec.StreakData.Current)
}

func TestApplyFailResetsStreak(t *testing.T) {
	rec := model.NewRecord()
	for i := 0; i < 3; i++ {
		Apply(&rec, result("A", 10, 8), day0.AddDate(0, 0, i))
	}
	Apply(&rec, result("A", 10, 4), day0.AddDate(0, 0, 3))
	require.Equal(t, 0, rec.StreakData.Current)
	require.Equal(t, 3, rec.StreakData.Best)
	require.NotNil(t, rec.StreakData.LastTestDate)
	require.True(t, rec.StreakData.LastTestDate.Equal(day0.AddDate(0, 0, 3)))
}

func TestApplyCategoryAverageIsAllTime(t *testing.T) {
	rec := model.NewRecord()
	Apply(&rec, result("A", 10, 10), day0)
	Apply(&rec, result("A", 30, 15), day0.Add(time.Minute))
	cs := rec.CategoryPerformance["A"]
	require.Equal(t, 2, cs.TotalTests)
	require.Equal(t, 40, cs.TotalQuestions)
	require.Equal(t, 25, cs.TotalCorrect)
	require.Equal(t, 63, cs.AverageScore)
	require.Equal(t, 100, cs.BestScore)
	require.Equal(t, []int{50, 100}, cs.RecentScores)
}

func TestApplyRecentScoresCapped(t *testing.T) {
	rec := model.NewRecord()
	for i := 0; i < 12; i++ {
		Apply(&rec, result("A", 10, i%10), day0.Add(time.Duration(i)*time.Minute))
	}
	cs := rec.CategoryPerformance["A"]
	require.Len(t, cs.RecentScores, model.RecentScoreLimit)
	require.Equal(t, 10, cs.RecentScores[0])
}

func TestApplyWeakQuestionsUpsertSortAndCap(t *testing.T) {
	rec := model.NewRecord()
	res := result("A", 120, 0)
	for i := 0; i < 120; i++ {
		res.WeakQuestions = append(res.WeakQuestions, model.MissedQuestion{ID: fmt.Sprintf("q%d", i), Text: "t"})
	}
	Apply(&rec, res, day0)
	require.Len(t, rec.WeakQuestions, model.WeakQuestionLimit)

	again := result("B", 1, 0)
	again.WeakQuestions = []model.MissedQuestion{{ID: "q50", Text: "t", Category: "Origin"}}
	Apply(&rec, again, day0.Add(time.Hour))

	require.Len(t, rec.WeakQuestions, model.WeakQuestionLimit)
	require.Equal(t, "q50", rec.WeakQuestions[0].ID)
	require.Equal(t, 2, rec.WeakQuestions[0].IncorrectCount)
	require.Equal(t, "Origin", rec.WeakQuestions[0].Category)
	require.True(t, rec.WeakQuestions[0].FirstIncorrectDate.Equal(day0))
	require.True(t, rec.WeakQuestions[0].LastIncorrectDate.Equal(day0.Add(time.Hour)))
	for i := 1; i < len(rec.WeakQuestions); i++ {
		require.GreaterOrEqual(t, rec.WeakQuestions[i-1].IncorrectCount, rec.WeakQuestions[i].IncorrectCount)
	}
	require.Equal(t, "A", rec.WeakQuestions[1].Category)
}

func TestApplyHistoryCappedMostRecentFirst(t *testing.T) {
	rec := model.NewRecord()
	for i := 0; i < 55; i++ {
		res := result("A", 10, 5)
		res.SessionID = fmt.Sprintf("s%d", i)
		Apply(&rec, res, day0.Add(time.Duration(i)*time.Minute))
	}
	require.Len(t, rec.TestHistory, model.HistoryLimit)
	require.Equal(t, "s54", rec.TestHistory[0].ID)
	require.Equal(t, "s5", rec.TestHistory[model.HistoryLimit-1].ID)
	require.Equal(t, 55, rec.TotalTests)
}

func TestApplyMilestones(t *testing.T) {
	rec := model.NewRecord()
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		for _, a := range Apply(&rec, result("A", 10, 5), day0.Add(time.Duration(i)*time.Minute)) {
			seen[a.ID] = true
		}
	}
	require.True(t, seen["first_test"])
	require.True(t, seen["tests_10"])
	require.True(t, seen["tests_25"])
	require.False(t, seen["tests_50"])
	require.False(t, seen["streak_5"])
}
