package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const unknownWeakCategory = "Unknown Category"

var milestones = []int{10, 25, 50, 100}

// Apply folds a result into rec and returns the achievements earned by it.
// It does not persist anything.
func Apply(rec *model.StatisticsRecord, res model.TestResult, now time.Time) []model.Achievement {
	now = now.Round(0)
	if rec.CategoryPerformance == nil {
		rec.CategoryPerformance = map[string]model.CategoryStats{}
	}

	rec.TotalTests++
	rec.TotalQuestionsAnswered += res.TotalQuestions
	rec.TotalCorrectAnswers += res.CorrectAnswers
	rec.TotalTimeSpent += res.TimeSpent

	if rec.FirstTestDate == nil {
		rec.FirstTestDate = stamp(now)
	}
	rec.LastTestDate = stamp(now)

	updateStreak(&rec.StreakData, res.Percentage, now)
	updateCategory(rec, res, now)
	updateWeakQuestions(rec, res, now)

	id := res.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	entry := model.TestRecord{
		ID:                  id,
		Date:                now,
		CategoryName:        res.CategoryName,
		IsRandomTest:        res.IsRandomTest,
		IsCustomTest:        res.IsCustomTest,
		TotalQuestions:      res.TotalQuestions,
		CorrectAnswers:      res.CorrectAnswers,
		WrongAnswers:        res.WrongAnswers,
		UnansweredQuestions: res.UnansweredQuestions,
		TimeSpent:           res.TimeSpent,
		Percentage:          res.Percentage,
		Questions:           res.Questions,
		WeakQuestions:       res.WeakQuestions,
	}
	rec.TestHistory = append([]model.TestRecord{entry}, rec.TestHistory...)
	if len(rec.TestHistory) > model.HistoryLimit {
		rec.TestHistory = rec.TestHistory[:model.HistoryLimit]
	}

	earned := checkAchievements(rec, res, now)
	rec.Normalize()
	return earned
}

func updateStreak(sd *model.StreakData, percentage int, now time.Time) {
	if percentage >= model.PassingScore {
		if sd.LastTestDate == nil || !sameDay(*sd.LastTestDate, now) {
			sd.Current++
			if sd.Current > sd.Best {
				sd.Best = sd.Current
			}
		}
	} else {
		sd.Current = 0
	}
	sd.LastTestDate = stamp(now)
}

func updateCategory(rec *model.StatisticsRecord, res model.TestResult, now time.Time) {
	cs, ok := rec.CategoryPerformance[res.CategoryName]
	if !ok {
		cs = model.CategoryStats{RecentScores: []int{}, WeakTopics: []string{}}
	}
	cs.TotalTests++
	cs.TotalQuestions += res.TotalQuestions
	cs.TotalCorrect += res.CorrectAnswers
	cs.AverageScore = Percent(cs.TotalCorrect, cs.TotalQuestions)
	if res.Percentage > cs.BestScore {
		cs.BestScore = res.Percentage
	}
	recent := make([]int, 0, len(cs.RecentScores)+1)
	recent = append(recent, res.Percentage)
	recent = append(recent, cs.RecentScores...)
	if len(recent) > model.RecentScoreLimit {
		recent = recent[:model.RecentScoreLimit]
	}
	cs.RecentScores = recent
	cs.LastTestDate = stamp(now)
	rec.CategoryPerformance[res.CategoryName] = cs
}

func updateWeakQuestions(rec *model.StatisticsRecord, res model.TestResult, now time.Time) {
	weak := append([]model.WeakQuestion{}, rec.WeakQuestions...)
	index := make(map[string]int, len(weak))
	for i, w := range weak {
		index[w.ID] = i
	}
	for _, missed := range res.WeakQuestions {
		category := missed.Category
		if category == "" {
			category = res.CategoryName
		}
		if category == "" {
			category = unknownWeakCategory
		}
		if i, ok := index[missed.ID]; ok {
			weak[i].IncorrectCount++
			weak[i].LastIncorrectDate = stamp(now)
			weak[i].Category = category
			continue
		}
		index[missed.ID] = len(weak)
		weak = append(weak, model.WeakQuestion{
			ID:                 missed.ID,
			Text:               missed.Text,
			Category:           category,
			IncorrectCount:     1,
			FirstIncorrectDate: stamp(now),
			LastIncorrectDate:  stamp(now),
		})
	}
	model.SortWeakQuestions(weak)
	if len(weak) > model.WeakQuestionLimit {
		weak = weak[:model.WeakQuestionLimit]
	}
	rec.WeakQuestions = weak
}

func checkAchievements(rec *model.StatisticsRecord, res model.TestResult, now time.Time) []model.Achievement {
	var candidates []model.Achievement
	if rec.TotalTests == 1 {
		candidates = append(candidates, badge("first_test", "First Steps", "Completed your first test", "🎯", now))
	}
	if res.Percentage == 100 {
		candidates = append(candidates, badge("perfect_score", "Perfect Score", "Achieved 100% on a test", "🏆", now))
	}
	if rec.StreakData.Current == 5 {
		candidates = append(candidates, badge("streak_5", "Hot Streak", "Passed 5 tests in a row", "🔥", now))
	}
	for _, m := range milestones {
		if rec.TotalTests != m {
			continue
		}
		icon := "📚"
		if m >= 50 {
			icon = "🌟"
		}
		candidates = append(candidates, badge(
			fmt.Sprintf("tests_%d", m),
			fmt.Sprintf("%d Tests", m),
			fmt.Sprintf("Completed %d tests", m),
			icon, now,
		))
	}

	var earned []model.Achievement
	for _, a := range candidates {
		if rec.HasAchievement(a.ID) {
			continue
		}
		rec.Achievements = append(rec.Achievements, a)
		earned = append(earned, a)
	}
	return earned
}

func badge(id, name, description, icon string, now time.Time) model.Achievement {
	return model.Achievement{ID: id, Name: name, Description: description, Icon: icon, Date: stamp(now)}
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func stamp(t time.Time) *time.Time {
	return &t
}
