package statsrepo

import (
	"sort"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const unknownCategory = "Unknown"

// Migrate builds a current-schema record from an arbitrary decoded payload.
// Every field is coerced independently; unusable fields keep their zero
// defaults. ok is false only when legacy is not an object.
// A current-schema record fed back through Migrate comes out unchanged.
func Migrate(legacy any) (model.StatisticsRecord, bool) {
	rec := model.NewRecord()
	obj, isObj := legacy.(map[string]any)
	if !isObj {
		return rec, false
	}

	if n, ok := wholeCount(obj["totalTests"]); ok {
		rec.TotalTests = n
	}
	if n, ok := wholeCount(obj["totalQuestionsAnswered"]); ok {
		rec.TotalQuestionsAnswered = n
	}
	if n, ok := wholeCount(obj["totalCorrectAnswers"]); ok {
		rec.TotalCorrectAnswers = n
	}
	if n, ok := wholeCount(obj["totalTimeSpent"]); ok {
		rec.TotalTimeSpent = n
	}
	rec.FirstTestDate = datePtr(obj["firstTestDate"])
	rec.LastTestDate = datePtr(obj["lastTestDate"])

	if items, ok := obj["testHistory"].([]any); ok {
		rec.TestHistory = migrateHistory(items)
	}
	if perf, ok := obj["categoryPerformance"].(map[string]any); ok {
		for name, raw := range perf {
			if cs, ok := raw.(map[string]any); ok {
				rec.CategoryPerformance[name] = migrateCategory(cs)
			}
		}
	}
	if items, ok := obj["weakQuestions"].([]any); ok {
		rec.WeakQuestions = migrateWeakQuestions(items)
	}
	if items, ok := obj["achievements"].([]any); ok {
		rec.Achievements = migrateAchievements(items)
	}
	if sd, ok := obj["streakData"].(map[string]any); ok {
		rec.StreakData = model.StreakData{
			Current:      looseInt(sd["current"]),
			Best:         looseInt(sd["best"]),
			LastTestDate: datePtr(sd["lastTestDate"]),
		}
	}

	rec.Normalize()
	return rec, true
}

func migrateHistory(items []any) []model.TestRecord {
	out := []model.TestRecord{}
	for _, item := range items {
		t, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date, ok := parseTimestamp(t["date"])
		if !ok {
			continue
		}
		id := idString(t["id"])
		if id == "" {
			id = uuid.NewString()
		}
		category := text(t["categoryName"])
		if category == "" {
			category = unknownCategory
		}
		out = append(out, model.TestRecord{
			ID:                  id,
			Date:                date,
			CategoryName:        category,
			IsRandomTest:        truthy(t["isRandomTest"]),
			IsCustomTest:        truthy(t["isCustomTest"]),
			TotalQuestions:      looseInt(t["totalQuestions"]),
			CorrectAnswers:      looseInt(t["correctAnswers"]),
			WrongAnswers:        looseInt(t["wrongAnswers"]),
			UnansweredQuestions: looseInt(t["unansweredQuestions"]),
			TimeSpent:           looseInt(t["timeSpent"]),
			Percentage:          percent(t["percentage"]),
			Questions:           migrateDetails(t["questions"]),
			WeakQuestions:       migrateMissed(t["weakQuestions"]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if len(out) > model.HistoryLimit {
		out = out[:model.HistoryLimit]
	}
	return out
}

func migrateDetails(v any) []model.QuestionDetail {
	out := []model.QuestionDetail{}
	items, _ := v.([]any)
	for _, item := range items {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.QuestionDetail{
			ID:            idString(firstOf(q, "id", "question_id")),
			Text:          text(firstOf(q, "question_text", "questionText")),
			UserAnswer:    stringList(q["userAnswer"]),
			CorrectAnswer: stringList(firstOf(q, "correctAnswer", "correct_answers")),
			IsCorrect:     truthy(q["isCorrect"]),
			WasAnswered:   truthy(q["wasAnswered"]),
		})
	}
	return out
}

func migrateMissed(v any) []model.MissedQuestion {
	out := []model.MissedQuestion{}
	items, _ := v.([]any)
	for _, item := range items {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := idString(firstOf(q, "id", "question_id"))
		if id == "" {
			continue
		}
		out = append(out, model.MissedQuestion{
			ID:       id,
			Text:     text(firstOf(q, "questionText", "question_text")),
			Category: text(firstOf(q, "category", "subtopic_name_origin", "subtopic_name")),
		})
	}
	return out
}

func migrateCategory(cs map[string]any) model.CategoryStats {
	out := model.CategoryStats{
		TotalTests:     looseInt(cs["totalTests"]),
		TotalQuestions: looseInt(cs["totalQuestions"]),
		TotalCorrect:   looseInt(firstOf(cs, "correctAnswers", "totalCorrect")),
		AverageScore:   percent(cs["averageScore"]),
		BestScore:      percent(cs["bestScore"]),
		RecentScores:   []int{},
		WeakTopics:     []string{},
		LastTestDate:   datePtr(cs["lastTestDate"]),
	}
	if scores, ok := cs["recentScores"].([]any); ok {
		for _, s := range scores {
			if len(out.RecentScores) == model.RecentScoreLimit {
				break
			}
			out.RecentScores = append(out.RecentScores, percent(s))
		}
	}
	if topics, ok := cs["weakTopics"].([]any); ok {
		for _, topic := range topics {
			if s, ok := topic.(string); ok {
				out.WeakTopics = append(out.WeakTopics, s)
			}
		}
	}
	return out
}

// migrateWeakQuestions reads both the current shape (id, incorrectCount)
// and the older one (question, wrongCount, lastWrongDate).
func migrateWeakQuestions(items []any) []model.WeakQuestion {
	out := []model.WeakQuestion{}
	for _, item := range items {
		if len(out) == model.WeakQuestionLimit {
			break
		}
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, label := weakIdentity(q)
		if id == "" {
			continue
		}
		category := text(q["category"])
		if category == "" {
			category = unknownCategory
		}
		last := datePtr(firstOf(q, "lastIncorrectDate", "lastWrongDate"))
		first := datePtr(q["firstIncorrectDate"])
		if first == nil {
			first = last
		}
		out = append(out, model.WeakQuestion{
			ID:                 id,
			Text:               label,
			Category:           category,
			IncorrectCount:     looseInt(firstOf(q, "incorrectCount", "wrongCount")),
			FirstIncorrectDate: first,
			LastIncorrectDate:  last,
		})
	}
	return out
}

func weakIdentity(q map[string]any) (string, string) {
	if id := idString(q["id"]); id != "" {
		return id, text(q["questionText"])
	}
	switch v := q["question"].(type) {
	case string:
		return v, v
	case float64:
		s := idString(v)
		return s, s
	case map[string]any:
		id := idString(firstOf(v, "question_id", "id"))
		return id, text(firstOf(v, "question_text", "questionText"))
	}
	return "", ""
}

func migrateAchievements(items []any) []model.Achievement {
	out := []model.Achievement{}
	for _, item := range items {
		if len(out) == model.AchievementLimit {
			break
		}
		switch a := item.(type) {
		case string:
			if a != "" {
				out = append(out, model.Achievement{ID: a, Name: a})
			}
		case map[string]any:
			name := text(a["name"])
			if name == "" {
				continue
			}
			id := idString(a["id"])
			if id == "" {
				id = name
			}
			out = append(out, model.Achievement{
				ID:          id,
				Name:        name,
				Description: text(a["description"]),
				Icon:        text(a["icon"]),
				Date:        datePtr(a["date"]),
			})
		}
	}
	return out
}
