// Package scoring turns finished sessions into results and folds results into
// the statistics record.
package scoring

import (
	"math"
	"sort"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const unknownCategory = "Unknown"

// ComputeResult grades every question of a finished session.
// A question is correct when the selected set equals the correct set,
// unanswered when nothing was selected, and wrong otherwise.
func ComputeResult(s model.SessionSnapshot) model.TestResult {
	label := s.Label
	if label == "" {
		label = unknownCategory
	}
	res := model.TestResult{
		SessionID:      s.SessionID,
		CategoryName:   label,
		IsRandomTest:   s.Kind == model.KindRandom,
		IsCustomTest:   s.Kind == model.KindCustom,
		TotalQuestions: len(s.Questions),
		TimeSpent:      elapsedSeconds(s),
		Questions:      make([]model.QuestionDetail, 0, len(s.Questions)),
		WeakQuestions:  []model.MissedQuestion{},
	}

	for i, q := range s.Questions {
		var answer []string
		if i < len(s.Answers) {
			answer = s.Answers[i]
		}
		correct := SameSet(answer, q.CorrectAnswers)
		switch {
		case len(answer) == 0:
			res.UnansweredQuestions++
		case correct:
			res.CorrectAnswers++
		default:
			res.WrongAnswers++
			res.WeakQuestions = append(res.WeakQuestions, model.MissedQuestion{
				ID:       q.ID,
				Text:     q.Text,
				Category: q.Category,
			})
		}
		res.Questions = append(res.Questions, model.QuestionDetail{
			ID:            q.ID,
			Text:          q.Text,
			UserAnswer:    append([]string{}, answer...),
			CorrectAnswer: append([]string{}, q.CorrectAnswers...),
			IsCorrect:     correct,
			WasAnswered:   len(answer) > 0,
		})
	}

	res.Percentage = Percent(res.CorrectAnswers, res.TotalQuestions)
	return res
}

// SameSet reports whether a and b hold the same ids, ignoring order.
func SameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string{}, a...)
	bs := append([]string{}, b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Percent returns round(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func elapsedSeconds(s model.SessionSnapshot) int {
	if s.StartedAt.IsZero() || s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return int(s.EndedAt.Sub(s.StartedAt).Seconds())
}
