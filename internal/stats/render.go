package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const (
	terminalWidthBackup = 80
	dateLayout          = "2006-01-02"
	dateTimeLayout      = "2006-01-02 15:04"
)

// TerminalWidth returns the width of stdout, or a fallback when it is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) lines(lines []string) {
	for _, l := range lines {
		p.printf("%s\n", l)
	}
}

// Render prints every section of the report. width bounds the text columns.
func Render(w io.Writer, rep Report, width int) error {
	if rep.Empty() {
		_, err := fmt.Fprintln(w, "No tests recorded yet.")
		return err
	}
	p := &printer{w: w}
	p.lines(SummaryLines(rep.Summary, rep.Focus))
	p.printf("\n")
	p.lines(CategoryLines(rep.Categories))
	p.printf("\n")
	p.lines(WeakLines(rep.Weak, width))
	p.printf("\n")
	p.lines(HistoryLines(rep.History, width))
	p.printf("\n")
	p.lines(AchievementLines(rep.Achievements))
	return p.err
}

// SummaryLines renders the headline numbers.
func SummaryLines(s Summary, focus []string) []string {
	out := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", s.Tests),
		fmt.Sprintf("Questions answered: %d", s.Questions),
		fmt.Sprintf("Correct answers: %d", s.Correct),
		fmt.Sprintf("Accuracy: %.1f%%", s.Accuracy),
		fmt.Sprintf("Study time: %.1f h", s.Hours),
		fmt.Sprintf("Streak: %d (best %d)", s.CurrentStreak, s.BestStreak),
	}
	if s.FirstTest != nil {
		out = append(out, "First test: "+s.FirstTest.Local().Format(dateLayout))
	}
	if s.LastTest != nil {
		out = append(out, "Last test: "+s.LastTest.Local().Format(dateLayout))
	}
	if len(focus) > 0 {
		out = append(out, "Focus on: "+strings.Join(focus, ", "))
	}
	return out
}

// CategoryLines renders the per-category table.
func CategoryLines(rows []CategoryRow) []string {
	if len(rows) == 0 {
		return []string{"Categories", "No category results."}
	}
	headers := []string{"Category", "Tests", "Questions", "Avg", "Best", "Median", "Trend", "Recent"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		trend := "-"
		if r.Trendy {
			trend = fmt.Sprintf("%+.1f", r.Trend)
		}
		recent := make([]float64, len(r.RecentScores))
		for i, s := range r.RecentScores {
			recent[len(recent)-1-i] = float64(s)
		}
		cells = append(cells, []string{
			r.Name,
			strconv.Itoa(r.TotalTests),
			strconv.Itoa(r.TotalQuestions),
			fmt.Sprintf("%d%%", r.AverageScore),
			fmt.Sprintf("%d%%", r.BestScore),
			fmt.Sprintf("%.0f%%", r.Median),
			trend,
			Sparkline(recent),
		})
	}
	right := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	return append([]string{"Categories"}, formatTable(headers, cells, right)...)
}

// WeakLines renders the weak question table.
func WeakLines(weak []model.WeakQuestion, width int) []string {
	if len(weak) == 0 {
		return []string{"Weak questions", "No weak questions."}
	}
	textWidth := max(width-40, 20)
	headers := []string{"Misses", "Category", "Last missed", "Question"}
	cells := make([][]string, 0, len(weak))
	for _, w := range weak {
		cells = append(cells, []string{
			strconv.Itoa(w.IncorrectCount),
			w.Category,
			formatDate(w.LastIncorrectDate, dateLayout),
			truncate(oneLine(w.Text), textWidth),
		})
	}
	return append([]string{"Weak questions"}, formatTable(headers, cells, map[int]bool{0: true})...)
}

// HistoryLines renders recent tests, newest first, with a score sparkline.
func HistoryLines(history []model.TestRecord, width int) []string {
	if len(history) == 0 {
		return []string{"History", "No tests recorded."}
	}
	headers := []string{"Date", "Test", "Score", "Correct", "Wrong", "Skipped", "Time"}
	cells := make([][]string, 0, len(history))
	for _, h := range history {
		cells = append(cells, []string{
			h.Date.Local().Format(dateTimeLayout),
			truncate(TestLabel(h), max(width-60, 16)),
			fmt.Sprintf("%d%%", h.Percentage),
			fmt.Sprintf("%d/%d", h.CorrectAnswers, h.TotalQuestions),
			strconv.Itoa(h.WrongAnswers),
			strconv.Itoa(h.UnansweredQuestions),
			FormatDuration(time.Duration(h.TimeSpent) * time.Second),
		})
	}
	right := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}
	out := append([]string{"History"}, formatTable(headers, cells, right)...)
	if len(history) > 1 {
		out = append(out, "Scores: "+Sparkline(MovingAverage(HistoryScores(history), 3)))
	}
	return out
}

// AchievementLines lists earned achievements.
func AchievementLines(list []model.Achievement) []string {
	if len(list) == 0 {
		return []string{"Achievements", "None earned yet."}
	}
	out := []string{"Achievements"}
	for _, a := range list {
		out = append(out, fmt.Sprintf("%s %s - %s (%s)", a.Icon, a.Name, a.Description, formatDate(a.Date, dateLayout)))
	}
	return out
}

// TestLabel names the kind of test a record came from.
func TestLabel(h model.TestRecord) string {
	switch {
	case h.IsRandomTest:
		return model.RandomTestLabel
	case h.IsCustomTest:
		return model.CustomTestLabel
	default:
		return h.CategoryName
	}
}

// FormatDuration renders a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatDate(t *time.Time, layout string) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(layout)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
