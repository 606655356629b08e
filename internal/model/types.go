// Package model defines shared data structures.
package model

import "time"

// TestKind distinguishes single-category tests from pooled ones.
type TestKind int

const (
	KindCategory TestKind = iota
	KindRandom
	KindCustom
)

// Umbrella labels used for pooled tests.
const (
	RandomTestLabel = "Random Test"
	CustomTestLabel = "Custom Test"
)

// String returns the kind name.
func (k TestKind) String() string {
	switch k {
	case KindRandom:
		return "random"
	case KindCustom:
		return "custom"
	default:
		return "category"
	}
}

// QuizConfig defines test settings.
type QuizConfig struct {
	BankPath       string
	Category       string
	Random         bool
	Custom         []string
	RandomDuration time.Duration
	CustomSize     int
	CustomMinimum  int
	ShuffleOptions bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Category string
	Last     int
	WeakTop  int
}

// Option is a single answer choice.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Code  string `json:"code,omitempty" yaml:"code,omitempty"`
	Image bool   `json:"image,omitempty" yaml:"image,omitempty"`
}

// Question is a flattened question annotated with its origin category.
type Question struct {
	ID             string
	Text           string
	Code           string
	Language       string
	Options        []Option
	CorrectAnswers []string
	Explanation    string
	Category       string
	Topic          string
}

// Category groups the questions of one subtopic.
type Category struct {
	Name      string
	Topic     string
	Questions []Question
}

// SessionSnapshot is the read-only view of a finished session handed to scoring.
// Answers is aligned with Questions.
type SessionSnapshot struct {
	SessionID string
	Label     string
	Kind      TestKind
	Questions []Question
	Answers   [][]string
	StartedAt time.Time
	EndedAt   time.Time
}

// TestResult summarizes a finished session.
type TestResult struct {
	SessionID           string
	CategoryName        string
	IsRandomTest        bool
	IsCustomTest        bool
	TotalQuestions      int
	CorrectAnswers      int
	WrongAnswers        int
	UnansweredQuestions int
	TimeSpent           int
	Percentage          int
	Questions           []QuestionDetail
	WeakQuestions       []MissedQuestion
}
