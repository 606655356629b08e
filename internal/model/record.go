package model

import (
	"sort"
	"time"
)

// SchemaVersion tags the persisted statistics record.
const SchemaVersion = "1.0"

// StatsKey is the storage key of the current statistics record.
const StatsKey = "ls"

// Collection bounds of the statistics record.
const (
	HistoryLimit      = 50
	WeakQuestionLimit = 100
	RecentScoreLimit  = 10
	AchievementLimit  = 50
	PassingScore      = 70
)

// StatisticsRecord is the persisted statistics profile.
type StatisticsRecord struct {
	Version                string                   `json:"version"`
	TotalTests             int                      `json:"totalTests"`
	TotalQuestionsAnswered int                      `json:"totalQuestionsAnswered"`
	TotalCorrectAnswers    int                      `json:"totalCorrectAnswers"`
	TotalTimeSpent         int                      `json:"totalTimeSpent"`
	TestHistory            []TestRecord             `json:"testHistory"`
	CategoryPerformance    map[string]CategoryStats `json:"categoryPerformance"`
	WeakQuestions          []WeakQuestion           `json:"weakQuestions"`
	StreakData             StreakData               `json:"streakData"`
	Achievements           []Achievement            `json:"achievements"`
	FirstTestDate          *time.Time               `json:"firstTestDate"`
	LastTestDate           *time.Time               `json:"lastTestDate"`
}

// TestRecord is an immutable snapshot of one completed session.
type TestRecord struct {
	ID                  string           `json:"id"`
	Date                time.Time        `json:"date"`
	CategoryName        string           `json:"categoryName"`
	IsRandomTest        bool             `json:"isRandomTest"`
	IsCustomTest        bool             `json:"isCustomTest"`
	TotalQuestions      int              `json:"totalQuestions"`
	CorrectAnswers      int              `json:"correctAnswers"`
	WrongAnswers        int              `json:"wrongAnswers"`
	UnansweredQuestions int              `json:"unansweredQuestions"`
	TimeSpent           int              `json:"timeSpent"`
	Percentage          int              `json:"percentage"`
	Questions           []QuestionDetail `json:"questions"`
	WeakQuestions       []MissedQuestion `json:"weakQuestions"`
}

// QuestionDetail records how a single question was answered.
type QuestionDetail struct {
	ID            string   `json:"id"`
	Text          string   `json:"question_text"`
	UserAnswer    []string `json:"userAnswer"`
	CorrectAnswer []string `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	WasAnswered   bool     `json:"wasAnswered"`
}

// MissedQuestion identifies a question answered incorrectly in a session.
type MissedQuestion struct {
	ID       string `json:"id"`
	Text     string `json:"questionText"`
	Category string `json:"category"`
}

// CategoryStats is the per-category rollup.
type CategoryStats struct {
	TotalTests     int        `json:"totalTests"`
	TotalQuestions int        `json:"totalQuestions"`
	TotalCorrect   int        `json:"totalCorrect"`
	AverageScore   int        `json:"averageScore"`
	BestScore      int        `json:"bestScore"`
	RecentScores   []int      `json:"recentScores"`
	WeakTopics     []string   `json:"weakTopics"`
	LastTestDate   *time.Time `json:"lastTestDate"`
}

// WeakQuestion tracks repeated misses of one question.
type WeakQuestion struct {
	ID                 string     `json:"id"`
	Text               string     `json:"questionText"`
	Category           string     `json:"category"`
	IncorrectCount     int        `json:"incorrectCount"`
	FirstIncorrectDate *time.Time `json:"firstIncorrectDate"`
	LastIncorrectDate  *time.Time `json:"lastIncorrectDate"`
}

// StreakData tracks consecutive passing days.
type StreakData struct {
	Current      int        `json:"current"`
	Best         int        `json:"best"`
	LastTestDate *time.Time `json:"lastTestDate"`
}

// Achievement is an earned badge. Never removed once earned.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Date        *time.Time `json:"date"`
}

// NewRecord returns an empty current-schema record.
func NewRecord() StatisticsRecord {
	return StatisticsRecord{
		Version:             SchemaVersion,
		TestHistory:         []TestRecord{},
		CategoryPerformance: map[string]CategoryStats{},
		WeakQuestions:       []WeakQuestion{},
		Achievements:        []Achievement{},
	}
}

// HasAchievement reports whether an achievement id was already earned.
func (r *StatisticsRecord) HasAchievement(id string) bool {
	for _, a := range r.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Normalize clamps counters and re-applies the collection bounds.
func (r *StatisticsRecord) Normalize() {
	r.Version = SchemaVersion
	r.TotalTests = clampMin(r.TotalTests)
	r.TotalQuestionsAnswered = clampMin(r.TotalQuestionsAnswered)
	r.TotalCorrectAnswers = clampMin(r.TotalCorrectAnswers)
	r.TotalTimeSpent = clampMin(r.TotalTimeSpent)
	if r.TotalCorrectAnswers > r.TotalQuestionsAnswered {
		r.TotalCorrectAnswers = r.TotalQuestionsAnswered
	}

	r.StreakData.Current = clampMin(r.StreakData.Current)
	r.StreakData.Best = clampMin(r.StreakData.Best)
	if r.StreakData.Best < r.StreakData.Current {
		r.StreakData.Best = r.StreakData.Current
	}

	if r.TestHistory == nil {
		r.TestHistory = []TestRecord{}
	}
	if len(r.TestHistory) > HistoryLimit {
		r.TestHistory = r.TestHistory[:HistoryLimit]
	}

	if r.CategoryPerformance == nil {
		r.CategoryPerformance = map[string]CategoryStats{}
	}
	for name, cs := range r.CategoryPerformance {
		cs.normalize()
		r.CategoryPerformance[name] = cs
	}

	if r.WeakQuestions == nil {
		r.WeakQuestions = []WeakQuestion{}
	}
	for i := range r.WeakQuestions {
		r.WeakQuestions[i].IncorrectCount = clampMin(r.WeakQuestions[i].IncorrectCount)
	}
	SortWeakQuestions(r.WeakQuestions)
	if len(r.WeakQuestions) > WeakQuestionLimit {
		r.WeakQuestions = r.WeakQuestions[:WeakQuestionLimit]
	}

	r.Achievements = dedupeAchievements(r.Achievements)
}

// SortWeakQuestions orders by descending incorrect count, keeping insertion order on ties.
func SortWeakQuestions(weak []WeakQuestion) {
	sort.SliceStable(weak, func(i, j int) bool {
		return weak[i].IncorrectCount > weak[j].IncorrectCount
	})
}

// Clone returns a copy that shares no mutable collections with r.
// Test records are immutable and their inner slices are shared.
func (r *StatisticsRecord) Clone() StatisticsRecord {
	out := *r
	out.TestHistory = append([]TestRecord{}, r.TestHistory...)
	out.WeakQuestions = append([]WeakQuestion{}, r.WeakQuestions...)
	out.Achievements = append([]Achievement{}, r.Achievements...)
	out.CategoryPerformance = make(map[string]CategoryStats, len(r.CategoryPerformance))
	for name, cs := range r.CategoryPerformance {
		cs.RecentScores = append([]int{}, cs.RecentScores...)
		cs.WeakTopics = append([]string{}, cs.WeakTopics...)
		out.CategoryPerformance[name] = cs
	}
	return out
}

func (c *CategoryStats) normalize() {
	c.TotalTests = clampMin(c.TotalTests)
	c.TotalQuestions = clampMin(c.TotalQuestions)
	c.TotalCorrect = clampMin(c.TotalCorrect)
	if c.TotalCorrect > c.TotalQuestions {
		c.TotalCorrect = c.TotalQuestions
	}
	c.AverageScore = ClampPercent(c.AverageScore)
	c.BestScore = ClampPercent(c.BestScore)
	if c.RecentScores == nil {
		c.RecentScores = []int{}
	}
	if len(c.RecentScores) > RecentScoreLimit {
		c.RecentScores = c.RecentScores[:RecentScoreLimit]
	}
	if c.WeakTopics == nil {
		c.WeakTopics = []string{}
	}
}

func dedupeAchievements(in []Achievement) []Achievement {
	out := make([]Achievement, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ClampPercent limits a score to [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampMin(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
