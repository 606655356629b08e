// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/session"
	"github.com/verte-zerg/tuiquiz/internal/stats"
)

const tickInterval = time.Second

// Recorder persists finished results.
type Recorder interface {
	RecordResult(ctx context.Context, res model.TestResult) ([]model.Achievement, error)
	Snapshot() model.StatisticsRecord
}

// tickMsg carries the id of the attempt that scheduled it so ticks from a
// previous attempt are dropped.
type tickMsg struct {
	sessionID string
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	sess      *session.Session
	questions []model.Question
	cfg       session.Config
	rec       Recorder
	log       *zap.Logger

	width  int
	height int

	cursor      int
	confirmQuit bool
	jumpMode    bool
	jumpInput   string

	recordedID   string
	achievements []model.Achievement
	saveErr      string
	streak       int
	streakKnown  bool

	reviewing bool
	review    viewport.Model
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cursorStyle    = textStyle.Bold(true).Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	codeStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D0D0D0")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
)

// NewModel starts an attempt over questions and returns its UI.
func NewModel(questions []model.Question, cfg session.Config, rec Recorder, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		sess:      session.New(),
		questions: questions,
		cfg:       cfg,
		rec:       rec,
		log:       log,
		review:    viewport.New(0, 0),
	}
	m.start()
	return m
}

// Session exposes the underlying state machine.
func (m *Model) Session() *session.Session {
	return m.sess
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.scheduleTick()
}

func (m *Model) start() {
	if !m.sess.Start(m.questions, m.cfg) {
		return
	}
	m.cursor = 0
	m.confirmQuit = false
	m.jumpMode = false
	m.jumpInput = ""
	m.achievements = nil
	m.saveErr = ""
	m.streak = 0
	m.streakKnown = false
	m.reviewing = false
	m.log.Info("test started",
		zap.String("session", m.sess.ID()),
		zap.String("label", m.cfg.Label),
		zap.Int("questions", m.sess.Len()),
		zap.Duration("duration", m.cfg.Duration),
	)
}

func (m *Model) scheduleTick() tea.Cmd {
	if _, timed := m.sess.Remaining(); !timed || !m.sess.InProgress() {
		return nil
	}
	id := m.sess.ID()
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{sessionID: id}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.reviewing {
			m.layoutReview()
		}
		return m, nil
	case tickMsg:
		if msg.sessionID != m.sess.ID() || !m.sess.Tick(tickInterval) {
			return m, nil
		}
		if m.sess.State() == session.Finished {
			m.log.Info("time expired", zap.String("session", m.sess.ID()))
			m.record()
			return m, nil
		}
		return m, m.scheduleTick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.sess.Abort() {
			m.log.Info("test aborted", zap.String("session", m.sess.ID()))
		}
		return m, tea.Quit
	}
	switch m.sess.State() {
	case session.Finished, session.Aborted, session.NotStarted:
		if m.reviewing {
			return m.handleReview(msg)
		}
		switch msg.String() {
		case "r":
			m.start()
			return m, m.scheduleTick()
		case "v":
			if m.sess.State() == session.Finished {
				m.reviewing = true
				m.layoutReview()
				m.review.GotoTop()
			}
		case "q", "esc", "enter":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.confirmQuit {
		switch msg.String() {
		case "y", "Y":
			m.sess.Abort()
			m.log.Info("test aborted", zap.String("session", m.sess.ID()))
			return m, tea.Quit
		default:
			m.confirmQuit = false
		}
		return m, nil
	}
	if m.jumpMode {
		return m.handleJump(msg)
	}

	q, _ := m.sess.Current()
	switch msg.String() {
	case "q", "esc":
		m.confirmQuit = true
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(len(q.Options)-1, m.cursor+1)
	case " ", "x":
		if m.cursor < len(q.Options) {
			m.sess.SelectOption(q.ID, q.Options[m.cursor].ID)
		}
	case "enter":
		m.submit()
	case "left", "h":
		if m.sess.Retreat() {
			m.cursor = 0
		}
	case "right", "l", "n":
		if m.sess.State() == session.FeedbackShown {
			m.advance()
		}
	case "g":
		m.jumpMode = true
		m.jumpInput = ""
	case "F":
		if m.sess.ForceFinish() {
			m.record()
		}
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(q.Options) {
			m.cursor = n - 1
			m.sess.SelectOption(q.ID, q.Options[n-1].ID)
		}
	}
	return m, nil
}

func (m *Model) handleJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.jumpMode = false
	case tea.KeyEnter:
		m.jumpMode = false
		if n, err := strconv.Atoi(m.jumpInput); err == nil && m.sess.JumpTo(n-1) {
			m.cursor = 0
		}
	case tea.KeyBackspace:
		if m.jumpInput != "" {
			m.jumpInput = m.jumpInput[:len(m.jumpInput)-1]
		}
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r >= '0' && r <= '9' {
				m.jumpInput += string(r)
			}
		}
	}
	return m, nil
}

func (m *Model) handleReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "v", "esc":
		m.reviewing = false
		return m, nil
	case "q":
		return m, tea.Quit
	case "r":
		m.start()
		return m, m.scheduleTick()
	case "g":
		m.review.GotoTop()
		return m, nil
	case "G":
		m.review.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.review, cmd = m.review.Update(msg)
	return m, cmd
}

// layoutReview sizes the review viewport to the window and refreshes its
// content.
func (m *Model) layoutReview() {
	width := m.contentWidth()
	height := 20
	if m.height > 0 {
		height = max(3, m.height-4)
	}
	m.review.Width = width
	m.review.Height = height
	m.review.SetContent(m.renderReview(width))
}

func (m *Model) submit() {
	switch m.sess.State() {
	case session.Answering:
		m.sess.RevealFeedback()
	case session.FeedbackShown:
		m.advance()
	}
}

func (m *Model) advance() {
	last := m.sess.Index() == m.sess.Len()-1
	if last {
		if m.sess.Finish() {
			m.record()
		}
		return
	}
	if m.sess.Advance() {
		m.cursor = 0
	}
}

// record persists the result of the finished attempt once.
func (m *Model) record() {
	res, ok := m.sess.Result()
	if !ok || m.recordedID == res.SessionID {
		return
	}
	m.recordedID = res.SessionID
	m.log.Info("test finished",
		zap.String("session", res.SessionID),
		zap.Int("correct", res.CorrectAnswers),
		zap.Int("total", res.TotalQuestions),
		zap.Int("percentage", res.Percentage),
	)
	if m.rec == nil {
		return
	}
	earned, err := m.rec.RecordResult(context.Background(), res)
	if err != nil {
		m.log.Error("failed to save result", zap.String("session", res.SessionID), zap.Error(err))
		m.saveErr = "Result could not be saved: " + err.Error()
		return
	}
	m.achievements = earned
	m.streak = m.rec.Snapshot().StreakData.Current
	m.streakKnown = true
}

func (m *Model) windowWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) contentWidth() int {
	return max(20, int(float64(m.windowWidth())*0.80))
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.windowWidth()
	contentWidth := m.contentWidth()

	var content string
	switch m.sess.State() {
	case session.Finished:
		if m.reviewing {
			content = titleStyle.Render("Answer review") + "\n\n" + m.review.View()
		} else {
			content = m.renderResult(contentWidth)
		}
	case session.Aborted:
		content = pendingStyle.Render("Test aborted. Press r to retake or q to quit.")
	case session.NotStarted:
		content = pendingStyle.Render("No questions to show.")
	default:
		content = m.renderQuestion(contentWidth)
	}
	content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	footer := footerStyle.Render(m.renderFooter())
	if m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderHeader() string {
	parts := []string{
		titleStyle.Render(m.sess.Label()),
		fmt.Sprintf("Question %d/%d", m.sess.Index()+1, m.sess.Len()),
	}
	if remaining, timed := m.sess.Remaining(); timed {
		style := pendingStyle
		if remaining <= 5*time.Minute {
			style = warnStyle
		}
		parts = append(parts, style.Render(stats.FormatDuration(remaining)+" left"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderProgress() string {
	var b strings.Builder
	for i := 0; i < m.sess.Len(); i++ {
		switch {
		case i == m.sess.Index():
			b.WriteString(titleStyle.Render("●"))
		case m.sess.Answered(i):
			b.WriteString(textStyle.Render("●"))
		default:
			b.WriteString(pendingStyle.Render("○"))
		}
	}
	return b.String()
}

func (m *Model) renderQuestion(width int) string {
	q, ok := m.sess.Current()
	if !ok {
		return ""
	}
	sections := []string{m.renderHeader()}
	if m.sess.Len() <= width {
		sections = append(sections, m.renderProgress())
	}
	sections = append(sections, "", wrapText(q.Text, textStyle, width))
	if q.Code != "" {
		sections = append(sections, codeStyle.Render(strings.TrimRight(q.Code, "\n")))
	}
	sections = append(sections, "")

	feedback, showing := m.sess.Feedback()
	selected := toSet(m.sess.Selected(m.sess.Index()))
	for i, opt := range q.Options {
		mark := "[ ]"
		if _, ok := selected[opt.ID]; ok {
			mark = "[x]"
		}
		style := textStyle
		if showing {
			fb := feedback[i]
			switch {
			case fb.Correct:
				style = correctStyle
			case fb.Selected:
				style = incorrectStyle
			default:
				style = pendingStyle
			}
		} else if i == m.cursor {
			style = cursorStyle
		}
		pointer := "  "
		if i == m.cursor && !showing {
			pointer = "> "
		}
		label := opt.Text
		if opt.Code != "" {
			label = strings.TrimSpace(label + " " + opt.Code)
		}
		if opt.Image {
			label += " [image]"
		}
		prefix := fmt.Sprintf("%s%s %d. ", pointer, mark, i+1)
		sections = append(sections, wrapIndented(prefix, label, style, width))
	}

	if showing {
		sections = append(sections, "")
		if m.sess.CurrentCorrect() {
			sections = append(sections, correctStyle.Render("Correct!"))
		} else {
			sections = append(sections, incorrectStyle.Render("Incorrect."))
		}
		if q.Explanation != "" {
			sections = append(sections, wrapText(q.Explanation, pendingStyle, width))
		}
	}
	if m.jumpMode {
		sections = append(sections, "", fmt.Sprintf("Go to question: %s", m.jumpInput))
	}
	if m.confirmQuit {
		sections = append(sections, "", warnStyle.Render("Quit this test? Progress will be lost. (y/n)"))
	}
	return strings.Join(sections, "\n")
}

func (m *Model) renderResult(width int) string {
	res, ok := m.sess.Result()
	if !ok {
		return ""
	}
	class := stats.ScoreClass(res.Percentage)
	scoreStyle := incorrectStyle
	switch class {
	case stats.ClassExcellent:
		scoreStyle = correctStyle
	case stats.ClassGood:
		scoreStyle = warnStyle
	}
	lines := []string{
		titleStyle.Render(res.CategoryName + " complete"),
		"",
		"Score: " + scoreStyle.Render(fmt.Sprintf("%d%%", res.Percentage)),
		fmt.Sprintf("Correct: %d  Wrong: %d  Unanswered: %d  Total: %d",
			res.CorrectAnswers, res.WrongAnswers, res.UnansweredQuestions, res.TotalQuestions),
		"Time: " + stats.FormatDuration(time.Duration(res.TimeSpent)*time.Second),
	}
	if m.streakKnown {
		if res.Percentage >= model.PassingScore {
			lines = append(lines, warnStyle.Render(fmt.Sprintf("Current streak: %d", m.streak)))
		} else {
			lines = append(lines, pendingStyle.Render("Streak reset. Keep practicing!"))
		}
	}
	if len(m.achievements) > 0 {
		lines = append(lines, "", titleStyle.Render("New achievements"))
		for _, a := range m.achievements {
			lines = append(lines, fmt.Sprintf("%s %s - %s", a.Icon, a.Name, a.Description))
		}
	}
	if len(res.WeakQuestions) > 0 {
		lines = append(lines, "", wrapText(fmt.Sprintf("%d missed. Press v to review your answers.", len(res.WeakQuestions)), pendingStyle, width))
	}
	if m.saveErr != "" {
		lines = append(lines, "", incorrectStyle.Render(m.saveErr))
	}
	return strings.Join(lines, "\n")
}

// renderReview lists every question with the given and the correct answers.
func (m *Model) renderReview(width int) string {
	res, ok := m.sess.Result()
	if !ok {
		return ""
	}
	var blocks []string
	for i, d := range res.Questions {
		q, _ := m.sess.Question(i)
		style := incorrectStyle
		if d.IsCorrect {
			style = correctStyle
		}
		lines := []string{wrapIndented(fmt.Sprintf("Question %d: ", i+1), d.Text, style, width)}
		if q.Category != "" && q.Category != res.CategoryName {
			lines = append(lines, pendingStyle.Render("Origin: "+q.Category))
		}
		given := "Not answered"
		if d.WasAnswered {
			given = strings.Join(d.UserAnswer, ", ")
		}
		lines = append(lines,
			"Your answer(s): "+given,
			"Correct answer(s): "+strings.Join(d.CorrectAnswer, ", "),
		)
		chosen := toSet(d.UserAnswer)
		correct := toSet(d.CorrectAnswer)
		for _, opt := range q.Options {
			_, isChosen := chosen[opt.ID]
			_, isCorrect := correct[opt.ID]
			optStyle := pendingStyle
			label := opt.Text
			switch {
			case isChosen && isCorrect:
				optStyle = correctStyle
				label += " (your choice)"
			case isChosen:
				optStyle = incorrectStyle
				label += " (your choice - incorrect)"
			case isCorrect:
				optStyle = correctStyle
			}
			lines = append(lines, wrapIndented("  "+opt.ID+". ", label, optStyle, width))
		}
		explanation := q.Explanation
		if explanation == "" {
			explanation = "No explanation provided."
		}
		lines = append(lines, wrapIndented("Explanation: ", explanation, pendingStyle, width))
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderFooter() string {
	switch m.sess.State() {
	case session.Finished:
		if m.reviewing {
			return "up/down: scroll  v/esc: back  r: retake  q: quit"
		}
		return "v: review  r: retake  q: quit"
	case session.Aborted:
		return "r: retake  q: quit"
	case session.FeedbackShown:
		return "enter/right: next  left: back  g: go to  F: finish now  q: quit"
	default:
		return "up/down: move  space/1-9: select  enter: check  left: back  g: go to  F: finish now  q: quit"
	}
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
