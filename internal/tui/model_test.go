package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/session"
)

type fakeRecorder struct {
	results []model.TestResult
	earned  []model.Achievement
	err     error
	record  model.StatisticsRecord
}

func (f *fakeRecorder) RecordResult(_ context.Context, res model.TestResult) ([]model.Achievement, error) {
	f.results = append(f.results, res)
	return f.earned, f.err
}

func (f *fakeRecorder) Snapshot() model.StatisticsRecord {
	return f.record
}

func quiz() []model.Question {
	opts := []model.Option{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}}
	return []model.Question{
		{ID: "1", Text: "First?", Category: "Networks", Options: opts, CorrectAnswers: []string{"a"}},
		{ID: "2", Text: "Second?", Category: "Networks", Options: opts, CorrectAnswers: []string{"b"}},
	}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestAnswerAndFinishRecordsOnce(t *testing.T) {
	rec := &fakeRecorder{earned: []model.Achievement{{ID: "first_test", Name: "First Steps", Icon: "🎯"}}}
	m := NewModel(quiz(), session.Config{Label: "Networks"}, rec, nil)

	press(m, "1", "enter")
	if m.Session().State() != session.FeedbackShown {
		t.Fatalf("expected feedback, got %s", m.Session().State())
	}
	press(m, "enter", "2", "enter", "enter")
	if m.Session().State() != session.Finished {
		t.Fatalf("expected finished, got %s", m.Session().State())
	}
	if len(rec.results) != 1 {
		t.Fatalf("expected one recorded result, got %d", len(rec.results))
	}
	if rec.results[0].Percentage != 100 {
		t.Fatalf("unexpected percentage: %d", rec.results[0].Percentage)
	}
	view := m.View()
	if !strings.Contains(view, "100%") || !strings.Contains(view, "First Steps") {
		t.Fatalf("result view missing score or achievement:\n%s", view)
	}
	press(m, "x")
	if len(rec.results) != 1 {
		t.Fatalf("result recorded twice")
	}
}

func TestCursorSelection(t *testing.T) {
	m := NewModel(quiz(), session.Config{}, nil, nil)
	press(m, "j", " ")
	if got := m.Session().Selected(0); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected selection: %v", got)
	}
	press(m, "k", "x")
	if got := m.Session().Selected(0); len(got) != 2 {
		t.Fatalf("expected two selections, got %v", got)
	}
}

func TestQuitNeedsConfirmation(t *testing.T) {
	m := NewModel(quiz(), session.Config{}, nil, nil)
	press(m, "q")
	if !m.confirmQuit || !m.Session().InProgress() {
		t.Fatalf("expected confirmation prompt")
	}
	press(m, "n")
	if m.confirmQuit || !m.Session().InProgress() {
		t.Fatalf("expected prompt dismissed")
	}
	press(m, "q", "y")
	if m.Session().State() != session.Aborted {
		t.Fatalf("expected aborted, got %s", m.Session().State())
	}
}

func TestJumpToQuestion(t *testing.T) {
	m := NewModel(quiz(), session.Config{}, nil, nil)
	press(m, "g", "2", "enter")
	if m.Session().Index() != 1 {
		t.Fatalf("expected index 1, got %d", m.Session().Index())
	}
	press(m, "left")
	if m.Session().Index() != 0 {
		t.Fatalf("expected index 0, got %d", m.Session().Index())
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m := NewModel(quiz(), session.Config{Duration: 2 * time.Second}, nil, nil)
	if m.Init() == nil {
		t.Fatalf("expected tick for timed test")
	}
	m.Update(tickMsg{sessionID: "old"})
	if remaining, _ := m.Session().Remaining(); remaining != 2*time.Second {
		t.Fatalf("stale tick consumed time: %s", remaining)
	}
	m.Update(tickMsg{sessionID: m.Session().ID()})
	m.Update(tickMsg{sessionID: m.Session().ID()})
	if m.Session().State() != session.Finished {
		t.Fatalf("expected timer to finish test, got %s", m.Session().State())
	}
}

func TestUntimedHasNoTick(t *testing.T) {
	m := NewModel(quiz(), session.Config{}, nil, nil)
	if m.Init() != nil {
		t.Fatalf("expected no tick for untimed test")
	}
}

func TestForceFinishAndRetake(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	m := NewModel(quiz(), session.Config{Label: "Networks"}, rec, nil)
	first := m.Session().ID()
	press(m, "F")
	if m.Session().State() != session.Finished {
		t.Fatalf("expected finished")
	}
	if !strings.Contains(m.View(), "could not be saved") {
		t.Fatalf("expected save error in view")
	}
	press(m, "r")
	if !m.Session().InProgress() || m.Session().ID() == first {
		t.Fatalf("expected a fresh attempt")
	}
	if m.saveErr != "" {
		t.Fatalf("expected save error cleared")
	}
}

func TestAnsweringViewHidesAnswerCount(t *testing.T) {
	opts := []model.Option{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}, {ID: "c", Text: "gamma"}}
	single := []model.Question{{ID: "1", Text: "Pick?", Category: "Networks", Options: opts, CorrectAnswers: []string{"a"}}}
	multi := []model.Question{{ID: "1", Text: "Pick?", Category: "Networks", Options: opts, CorrectAnswers: []string{"a", "c"}}}

	one := NewModel(single, session.Config{Label: "Networks"}, nil, nil)
	two := NewModel(multi, session.Config{Label: "Networks"}, nil, nil)
	if one.View() != two.View() {
		t.Fatalf("answering view depends on answer count:\n%s\n---\n%s", one.View(), two.View())
	}
	press(one, "2")
	press(two, "2")
	if one.View() != two.View() {
		t.Fatalf("view with a selection depends on answer count")
	}
}

func TestResultShowsStreak(t *testing.T) {
	rec := &fakeRecorder{record: model.StatisticsRecord{StreakData: model.StreakData{Current: 3, Best: 4}}}
	m := NewModel(quiz(), session.Config{Label: "Networks"}, rec, nil)
	press(m, "1", "enter", "enter", "2", "enter", "enter")
	if view := m.View(); !strings.Contains(view, "Current streak: 3") {
		t.Fatalf("expected streak line:\n%s", view)
	}

	m = NewModel(quiz(), session.Config{Label: "Networks"}, rec, nil)
	press(m, "1", "enter", "enter", "1", "enter", "enter")
	if view := m.View(); !strings.Contains(view, "Streak reset") {
		t.Fatalf("expected streak reset line:\n%s", view)
	}
}

func TestReviewListsAnswers(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewModel(quiz(), session.Config{Label: "Networks"}, rec, nil)
	press(m, "v")
	if m.reviewing {
		t.Fatalf("review opened during the test")
	}
	press(m, "1", "enter", "enter", "1", "enter", "enter")
	if m.Session().State() != session.Finished {
		t.Fatalf("expected finished, got %s", m.Session().State())
	}
	if view := m.View(); !strings.Contains(view, "Press v to review") {
		t.Fatalf("expected review hint:\n%s", view)
	}

	press(m, "v")
	if !m.reviewing {
		t.Fatalf("expected review mode")
	}
	view := m.View()
	for _, want := range []string{
		"Answer review",
		"Question 1: First?",
		"Question 2: Second?",
		"Your answer(s): a",
		"Correct answer(s): b",
		"alpha (your choice - incorrect)",
		"No explanation provided.",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("review missing %q:\n%s", want, view)
		}
	}

	press(m, "esc")
	if m.reviewing || !strings.Contains(m.View(), "Score:") {
		t.Fatalf("expected to return to the result")
	}
	if m.Session().State() != session.Finished {
		t.Fatalf("closing the review changed state")
	}
}
