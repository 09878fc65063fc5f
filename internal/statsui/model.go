// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
	tabLeaderboard
)

// activityDays covers twelve weeks.
const activityDays = 84

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
	rejectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Source is the read side of the store.
type Source interface {
	ListAllResults(ctx context.Context, userID string) ([]model.Result, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]model.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	LoadBests(ctx context.Context, userID string) (model.Bests, error)
	RankOf(ctx context.Context, userID string) (int, error)
}

type report struct {
	results []model.Result
	history []model.Result
	board   []model.LeaderboardEntry
	bests   model.Bests
	rank    int
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src  Source
	user model.User
	cfg  model.StatsConfig
	now  func() time.Time

	report report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	history   table.Model
	board     table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model for user.
func NewModel(src Source, user model.User, cfg model.StatsConfig) *Model {
	m := &Model{
		src:      src,
		user:     user,
		cfg:      cfg,
		now:      time.Now,
		tabs:     []string{"Overview", "History", "Leaderboard"},
		overview: viewport.New(0, 0),
		history:  newTable(historyColumns()),
		board:    newTable(boardColumns()),
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
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabHistory:
			m.history, cmd = m.history.Update(msg)
		case tabLeaderboard:
			m.board, cmd = m.board.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
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
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range []*table.Model{&m.history, &m.board} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.history.Blur()
	m.board.Blur()
	switch m.activeTab {
	case tabHistory:
		m.history.Focus()
	case tabLeaderboard:
		m.board.Focus()
	}
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabHistory:
		if top {
			m.history.GotoTop()
		} else {
			m.history.GotoBottom()
		}
	case tabLeaderboard:
		if top {
			m.board.GotoTop()
		} else {
			m.board.GotoBottom()
		}
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) refreshReport() {
	r, err := m.load(context.Background())
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = r
	m.history.SetRows(historyRows(r.history))
	m.board.SetRows(boardRows(r.board, m.user.ID))
	m.renderOverview()
}

func (m *Model) load(ctx context.Context) (report, error) {
	var r report
	var err error
	if r.board, err = m.src.Leaderboard(ctx, m.cfg.Limit); err != nil {
		return report{}, fmt.Errorf("load leaderboard: %w", err)
	}
	if m.user.ID == "" {
		return r, nil
	}
	if r.results, err = m.src.ListAllResults(ctx, m.user.ID); err != nil {
		return report{}, fmt.Errorf("load results: %w", err)
	}
	if r.history, err = m.src.ListHistory(ctx, m.user.ID, m.cfg.Limit); err != nil {
		return report{}, fmt.Errorf("load history: %w", err)
	}
	if r.bests, err = m.src.LoadBests(ctx, m.user.ID); err != nil {
		return report{}, fmt.Errorf("load bests: %w", err)
	}
	if r.rank, err = m.src.RankOf(ctx, m.user.ID); err != nil {
		return report{}, fmt.Errorf("load rank: %w", err)
	}
	return r, nil
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.now(), width))
}

func renderOverview(r report, now time.Time, width int) string {
	if len(r.results) == 0 {
		return "No tests found."
	}
	sections := []string{
		renderCards(r, width),
		renderBests(r.bests),
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, stats.Summarize(r.results), stats.WPMSeries(r.results)); err != nil {
		sections = append(sections, fmt.Sprintf("Failed to render summary: %v", err))
	} else {
		sections = append(sections, strings.TrimRight(buf.String(), "\n"))
	}
	sections = append(sections, renderActivity(stats.Activity(r.results, now, activityDays)))
	return strings.Join(sections, "\n\n")
}

func renderCards(r report, width int) string {
	all := stats.Summarize(r.results)[0]
	rank := "-"
	if r.rank > 0 {
		rank = fmt.Sprintf("#%d", r.rank)
	}
	cards := []string{
		metricCard("Tests", fmt.Sprintf("%d", all.Tests)),
		metricCard("Best WPM", fmt.Sprintf("%d", all.MaxWPM)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", all.AvgWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%d%%", all.AvgAccuracy)),
		metricCard("Ranked", rank),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderBests(bests model.Bests) string {
	parts := make([]string, 0, len(model.Difficulties))
	for _, d := range model.Difficulties {
		if !d.Trackable() {
			continue
		}
		value := "-"
		if b := bests[d]; b != nil {
			value = fmt.Sprintf("%d wpm %d%%", b.WPM, b.Accuracy)
		}
		parts = append(parts, fmt.Sprintf("%s %s", d, value))
	}
	return headerStyle.Render("Personal bests: ") + strings.Join(parts, "  ")
}

var activityShades = []rune(" ░▒▓█")

// renderActivity draws one row per weekday and one column per week, oldest first.
func renderActivity(days []stats.DayCount) string {
	if len(days) == 0 {
		return ""
	}
	peak := 0
	for _, d := range days {
		if d.Count > peak {
			peak = d.Count
		}
	}
	rows := make([][]rune, 7)
	for _, d := range days {
		shade := activityShades[0]
		if d.Count > 0 {
			top := len(activityShades) - 1
			level := (d.Count*top + peak - 1) / peak
			shade = activityShades[minInt(level, top)]
		}
		wd := int(d.Date.Weekday())
		rows[wd] = append(rows[wd], shade)
	}
	labels := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	lines := []string{headerStyle.Render(fmt.Sprintf("Activity (last %d weeks)", len(days)/7))}
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", labels[i], string(row)))
	}
	return strings.Join(lines, "\n")
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "WPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Err", Width: 4},
		{Title: "Time", Width: 6},
		{Title: "Difficulty", Width: 10},
		{Title: "Mode", Width: 8},
		{Title: "Category", Width: 16},
		{Title: "Flag", Width: 16},
	}
}

func historyRows(results []model.Result) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		category := string(r.Category)
		if r.Category == model.CategoryCode {
			category += "/" + string(r.Language)
		}
		flag := ""
		if r.Rejected {
			flag = fmt.Sprintf("rejected (%.2f)", r.CheatScore)
		}
		rows = append(rows, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d", r.ErrorCount),
			stats.FormatTime(r.DurationSec),
			string(r.Difficulty),
			string(r.Mode),
			category,
			flag,
		})
	}
	return rows
}

func boardColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Player", Width: 20},
		{Title: "WPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Date", Width: 10},
	}
}

func boardRows(entries []model.LeaderboardEntry, userID string) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		name := e.Username
		if e.UserID == userID {
			name += " (you)"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", e.Rank),
			name,
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%d%%", e.Accuracy),
			e.Date.Local().Format("2006-01-02"),
		})
	}
	return rows
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
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
	tabs := padLines(m.renderTabs(), m.width)
	name := m.user.Username
	if name == "" {
		name = "anonymous"
	}
	summary := truncateLine(fmt.Sprintf("Player: %s  Tests: %d", name, len(m.report.results)), m.width)
	return tabs + "\n" + padLines(headerStyle.Render(summary), m.width)
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabHistory:
		if len(m.report.history) == 0 {
			return "No tests found."
		}
		return m.renderTable(m.history, m.report.history)
	case tabLeaderboard:
		if len(m.report.board) == 0 {
			return "No ranked scores yet."
		}
		return tableMutedStyle.Render(m.board.View())
	default:
		return m.overview.View()
	}
}

// renderTable marks the history view when any visible result was rejected.
func (m *Model) renderTable(t table.Model, results []model.Result) string {
	view := tableMutedStyle.Render(t.View())
	for _, r := range results {
		if r.Rejected {
			return view + "\n" + rejectedStyle.Render("rejected results are kept but never count toward bests")
		}
	}
	return view
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
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
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
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
