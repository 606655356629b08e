// Package session implements the quiz session state machine.
//
// A session moves NotStarted -> Answering -> FeedbackShown -> Answering ...
// -> Finished, or to Aborted from any in-progress state. Operations that do
// not apply to the current state are ignored and report false.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/scoring"
)

// State is the lifecycle position of a session.
type State int

const (
	NotStarted State = iota
	Answering
	FeedbackShown
	Finished
	Aborted
)

func (s State) String() string {
	switch s {
	case Answering:
		return "answering"
	case FeedbackShown:
		return "feedback"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return "not-started"
	}
}

// Config describes the test being started.
type Config struct {
	Label string
	Kind  model.TestKind
	// Duration arms a countdown when positive.
	Duration time.Duration
}

// AnswerKey scopes a selection to one session and one origin category.
type AnswerKey struct {
	SessionID  string
	Category   string
	QuestionID string
}

// OptionFeedback marks one option after the answer is revealed.
type OptionFeedback struct {
	OptionID string
	Selected bool
	Correct  bool
}

// Session is the mutable state of one quiz attempt.
type Session struct {
	id        string
	cfg       Config
	state     State
	questions []model.Question
	index     int
	answers   map[AnswerKey][]string
	startedAt time.Time
	endedAt   time.Time
	timed     bool
	remaining time.Duration
	result    *model.TestResult
	now       func() time.Time
}

// New returns a session in NotStarted.
func New() *Session {
	return &Session{now: time.Now, answers: map[AnswerKey][]string{}}
}

// SetClock replaces the time source.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins a new attempt over questions. It fails on an empty set or
// while another attempt is in progress.
func (s *Session) Start(questions []model.Question, cfg Config) bool {
	if len(questions) == 0 || s.InProgress() {
		return false
	}
	s.id = uuid.NewString()
	s.cfg = cfg
	s.questions = append([]model.Question(nil), questions...)
	s.index = 0
	s.answers = map[AnswerKey][]string{}
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.result = nil
	s.timed = cfg.Duration > 0
	s.remaining = cfg.Duration
	s.state = Answering
	return true
}

// ID returns the identifier of the current or last attempt.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Label returns the display name of the test.
func (s *Session) Label() string { return s.cfg.Label }

// Kind returns the test kind.
func (s *Session) Kind() model.TestKind { return s.cfg.Kind }

// InProgress reports whether answers may still change.
func (s *Session) InProgress() bool {
	return s.state == Answering || s.state == FeedbackShown
}

// Index returns the current question index.
func (s *Session) Index() int { return s.index }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Question returns the question at i.
func (s *Session) Question(i int) (model.Question, bool) {
	if i < 0 || i >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[i], true
}

// Current returns the question at the current index.
func (s *Session) Current() (model.Question, bool) {
	return s.Question(s.index)
}

// Key returns the answer key of q within this session.
func (s *Session) Key(q model.Question) AnswerKey {
	return AnswerKey{SessionID: s.id, Category: q.Category, QuestionID: q.ID}
}

// Selected returns the option ids chosen for question i.
func (s *Session) Selected(i int) []string {
	q, ok := s.Question(i)
	if !ok {
		return nil
	}
	return append([]string(nil), s.answers[s.Key(q)]...)
}

// Answer returns the selection stored under key.
func (s *Session) Answer(key AnswerKey) []string {
	return append([]string(nil), s.answers[key]...)
}

// Answered reports whether question i has a selection.
func (s *Session) Answered(i int) bool {
	q, ok := s.Question(i)
	return ok && len(s.answers[s.Key(q)]) > 0
}

// Remaining returns the countdown value; ok is false for untimed sessions.
func (s *Session) Remaining() (time.Duration, bool) {
	return s.remaining, s.timed
}

// SelectOption toggles optionID on the current question.
func (s *Session) SelectOption(questionID, optionID string) bool {
	if s.state != Answering {
		return false
	}
	q, ok := s.Current()
	if !ok || q.ID != questionID || !hasOption(q, optionID) {
		return false
	}
	key := s.Key(q)
	sel := s.answers[key]
	for i, id := range sel {
		if id == optionID {
			s.answers[key] = append(sel[:i:i], sel[i+1:]...)
			return true
		}
	}
	s.answers[key] = append(sel, optionID)
	return true
}

// RevealFeedback locks the current answer and shows correctness.
func (s *Session) RevealFeedback() bool {
	if s.state != Answering || !s.Answered(s.index) {
		return false
	}
	s.state = FeedbackShown
	return true
}

// Feedback returns per-option correctness for the current question.
func (s *Session) Feedback() ([]OptionFeedback, bool) {
	if s.state != FeedbackShown {
		return nil, false
	}
	q, _ := s.Current()
	selected := toSet(s.answers[s.Key(q)])
	correct := toSet(q.CorrectAnswers)
	out := make([]OptionFeedback, 0, len(q.Options))
	for _, opt := range q.Options {
		_, sel := selected[opt.ID]
		_, ok := correct[opt.ID]
		out = append(out, OptionFeedback{OptionID: opt.ID, Selected: sel, Correct: ok})
	}
	return out, true
}

// CurrentCorrect reports whether the revealed answer is right.
func (s *Session) CurrentCorrect() bool {
	if s.state != FeedbackShown {
		return false
	}
	q, _ := s.Current()
	return scoring.SameSet(s.answers[s.Key(q)], q.CorrectAnswers)
}

// Advance leaves feedback for the next question, finishing after the last.
func (s *Session) Advance() bool {
	if s.state != FeedbackShown {
		return false
	}
	if s.index == len(s.questions)-1 {
		s.finish()
		return true
	}
	s.index++
	s.state = Answering
	return true
}

// Retreat moves to the previous question.
func (s *Session) Retreat() bool {
	if !s.InProgress() || s.index == 0 {
		return false
	}
	s.index--
	s.state = Answering
	return true
}

// JumpTo moves to question i.
func (s *Session) JumpTo(i int) bool {
	if !s.InProgress() || i < 0 || i >= len(s.questions) {
		return false
	}
	s.index = i
	s.state = Answering
	return true
}

// Finish ends the attempt from feedback on the last question.
func (s *Session) Finish() bool {
	if s.state != FeedbackShown || s.index != len(s.questions)-1 {
		return false
	}
	s.finish()
	return true
}

// ForceFinish ends the attempt from any in-progress state.
func (s *Session) ForceFinish() bool {
	if !s.InProgress() {
		return false
	}
	s.finish()
	return true
}

// Abort discards the attempt without a result.
func (s *Session) Abort() bool {
	if !s.InProgress() {
		return false
	}
	s.state = Aborted
	s.endedAt = s.now()
	s.timed = false
	return true
}

// Tick consumes d from the countdown and forces a finish at zero.
func (s *Session) Tick(d time.Duration) bool {
	if !s.InProgress() || !s.timed {
		return false
	}
	s.remaining -= d
	if s.remaining <= 0 {
		s.remaining = 0
		s.finish()
	}
	return true
}

// Result returns the graded result once finished.
func (s *Session) Result() (model.TestResult, bool) {
	if s.result == nil {
		return model.TestResult{}, false
	}
	return *s.result, true
}

// Snapshot returns a read-only copy of the attempt.
func (s *Session) Snapshot() model.SessionSnapshot {
	answers := make([][]string, len(s.questions))
	for i, q := range s.questions {
		answers[i] = append([]string(nil), s.answers[s.Key(q)]...)
	}
	return model.SessionSnapshot{
		SessionID: s.id,
		Label:     s.cfg.Label,
		Kind:      s.cfg.Kind,
		Questions: append([]model.Question(nil), s.questions...),
		Answers:   answers,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}

func (s *Session) finish() {
	s.state = Finished
	s.endedAt = s.now()
	s.timed = false
	res := scoring.ComputeResult(s.Snapshot())
	s.result = &res
}

func hasOption(q model.Question, id string) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
