// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/stats"
)

const (
	tabOverview = iota
	tabCategories
	tabWeak
	tabHistory
	tabAchievements
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))

	scoreStyles = map[string]lipgloss.Style{
		stats.ClassExcellent: lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		stats.ClassGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")),
		stats.ClassNeedsWork: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
)

// Source supplies the record to display.
type Source interface {
	Snapshot() model.StatisticsRecord
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	source Source
	cfg    model.StatsConfig

	report stats.Report

	tabs      []string
	activeTab int
	viewports []viewport.Model
	catTable  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model.
func NewModel(src Source, cfg model.StatsConfig) *Model {
	m := &Model{
		source: src,
		cfg:    cfg,
		tabs:   []string{"Overview", "Categories", "Weak Questions", "History", "Achievements"},
	}
	m.filterInputs = []textinput.Model{
		newFilterInput("Category: "),
		newFilterInput("Last: "),
		newFilterInput("Weak top: "),
	}
	m.setInputsFromConfig()
	m.catTable = table.New(table.WithHeight(1))
	m.catTable.SetStyles(tableStyles())
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabCategories {
				m.catTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabCategories {
				m.catTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabCategories {
			m.catTable, cmd = m.catTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.cfg.Category)
	m.filterInputs[1].SetValue(positive(m.cfg.Last))
	m.filterInputs[2].SetValue(positive(m.cfg.WeakTop))
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.catTable.SetWidth(m.width)
	m.catTable.SetHeight(max(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabCategories {
		m.catTable.Focus()
	} else {
		m.catTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	category := m.cfg.Category
	if category == "" {
		category = "all"
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	weak := "all"
	if m.cfg.WeakTop > 0 {
		weak = strconv.Itoa(m.cfg.WeakTop)
	}
	summary := fmt.Sprintf("Filters: category=%s  last=%s  weak=%s", category, last, weak)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Reload: r  Quit: q")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabCategories {
		if len(m.report.Categories) == 0 {
			return fitLines("No category results.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.catTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.source.Snapshot(), m.cfg)
	cols, rows := categoryTableData(m.report.Categories)
	m.catTable.SetRows(nil)
	m.catTable.SetColumns(cols)
	m.catTable.SetRows(rows)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabWeak].SetContent(strings.Join(stats.WeakLines(m.report.Weak, width), "\n"))
	m.viewports[tabHistory].SetContent(renderHistory(m.report.History, width))
	m.viewports[tabAchievements].SetContent(strings.Join(stats.AchievementLines(m.report.Achievements), "\n"))
}

func renderOverview(rep stats.Report, width int) string {
	if rep.Empty() {
		return "No tests recorded yet."
	}
	s := rep.Summary
	cards := []string{
		metricCard("Tests", strconv.Itoa(s.Tests)),
		metricCard("Questions", strconv.Itoa(s.Questions)),
		metricCard("Accuracy", scoreStyles[stats.ScoreClass(int(s.Accuracy))].Render(fmt.Sprintf("%.1f%%", s.Accuracy))),
		metricCard("Study time", fmt.Sprintf("%.1f h", s.Hours)),
		metricCard("Streak", fmt.Sprintf("%d (best %d)", s.CurrentStreak, s.BestStreak)),
	}
	var body string
	if width < 80 {
		body = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		body = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	if len(rep.Focus) > 0 {
		body += "\n\nFocus on: " + strings.Join(rep.Focus, ", ")
	}
	if len(rep.History) > 1 {
		body += "\nScores:   " + stats.Sparkline(stats.HistoryScores(rep.History))
	}
	return body
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderHistory(history []model.TestRecord, width int) string {
	lines := stats.HistoryLines(history, width)
	if len(history) == 0 || len(lines) < 2+len(history) {
		return strings.Join(lines, "\n")
	}
	// Rows follow the title and header lines, in history order.
	for i, h := range history {
		idx := i + 2
		lines[idx] = scoreStyles[stats.ScoreClass(h.Percentage)].Render(lines[idx])
	}
	return strings.Join(lines, "\n")
}

func categoryTableData(rows []stats.CategoryRow) ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Category", Width: 24},
		{Title: "Tests", Width: 6},
		{Title: "Avg", Width: 5},
		{Title: "Best", Width: 5},
		{Title: "Median", Width: 7},
		{Title: "Trend", Width: 6},
		{Title: "Last", Width: 10},
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		trend := "-"
		if r.Trendy {
			trend = fmt.Sprintf("%+.0f", r.Trend)
		}
		last := "-"
		if r.LastTestDate != nil {
			last = r.LastTestDate.Local().Format("2006-01-02")
		}
		out = append(out, table.Row{
			truncateLine(r.Name, 24),
			strconv.Itoa(r.TotalTests),
			fmt.Sprintf("%d%%", r.AverageScore),
			fmt.Sprintf("%d%%", r.BestScore),
			fmt.Sprintf("%.0f%%", r.Median),
			trend,
			last,
		})
	}
	return columns, out
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	last, err := parseCount(m.filterInputs[1].Value(), "last")
	if err != nil {
		return err
	}
	weak, err := parseCount(m.filterInputs[2].Value(), "weak top")
	if err != nil {
		return err
	}
	m.cfg.Category = strings.TrimSpace(m.filterInputs[0].Value())
	m.cfg.Last = last
	m.cfg.WeakTop = weak
	return nil
}

func parseCount(input, name string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value (use 0 or positive integer)", name)
	}
	return n, nil
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
