// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/guard"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/recorder"
	statsPkg "github.com/verte-zerg/tapixo/internal/stats"
)

const submitTimeout = 5 * time.Second

// Submitter persists finished trials.
type Submitter interface {
	Submit(ctx context.Context, sub recorder.Submission) (recorder.Verdict, error)
}

// Options configure a Model.
type Options struct {
	User model.User
	// Submitter may be nil, in which case results are shown but not stored.
	Submitter Submitter
	Logger    *slog.Logger
	Tip       string
	// Clock replaces time.Now for keystroke timestamps.
	Clock func() time.Time
}

type tickMsg struct {
	gen int
}

type submittedMsg struct {
	gen     int
	outcome engine.Outcome
	// previous is the bucket's best before the trial, nil for a first test.
	previous *model.Best
	verdict  recorder.Verdict
	err      error
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	engine *engine.Engine
	submit Submitter
	user   model.User
	logger *slog.Logger
	tip    string

	clock  func() time.Time
	origin time.Time

	width  int
	height int

	// gen invalidates tick chains and submissions from earlier trials.
	gen        int
	keystrokes []anticheat.Keystroke

	// bestsBefore is the best cache as it was when the trial began.
	bestsBefore model.Bests
	outcome     *engine.Outcome
	celebration string
	saving      bool
	verdict     *recorder.Verdict
	submitErr   error
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8A33D"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	celebrateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a typing TUI model around eng.
func NewModel(eng *engine.Engine, opts Options) *Model {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		engine: eng,
		submit: opts.Submitter,
		user:   opts.User,
		logger: logger,
		tip:    opts.Tip,
		clock:  clock,
		origin: clock(),
	}
	m.bestsBefore = eng.Bests()
	eng.Subscribe(m.onFinish)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Session returns the current engine snapshot.
func (m *Model) Session() engine.Session {
	return m.engine.Session()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case submittedMsg:
		if msg.verdict.Rejected {
			m.rollbackBest(msg)
		}
		if msg.gen != m.gen {
			return m, nil
		}
		m.saving = false
		m.submitErr = msg.err
		v := msg.verdict
		m.verdict = &v
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		m.restart(m.engine.Reset)
		return m, nil
	}

	status := m.engine.Session().Status
	if status == engine.StatusFinished {
		if msg.Type == tea.KeyEnter {
			m.restart(m.engine.Reset)
		}
		return m, nil
	}
	if status == engine.StatusReady {
		if m.handleSettingsKey(msg) {
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return m, m.deleteTo(guard.DeleteRune(m.engine.Session().UserInput))
	case tea.KeyCtrlW:
		return m, m.deleteTo(guard.DeleteWord(m.engine.Session().UserInput))
	case tea.KeySpace:
		return m, m.typeRunes([]rune{' '})
	case tea.KeyRunes:
		return m, m.typeRunes(msg.Runes)
	default:
		return m, nil
	}
}

// handleSettingsKey changes practice settings before a trial starts.
func (m *Model) handleSettingsKey(msg tea.KeyMsg) bool {
	cfg := m.engine.Config()
	switch msg.Type {
	case tea.KeyCtrlE:
		choices := make([]model.Difficulty, 0, len(model.Difficulties))
		for _, d := range model.Difficulties {
			if d == model.DifficultyCustom && cfg.CustomText == "" {
				continue
			}
			choices = append(choices, d)
		}
		m.restart(func() { m.engine.SetDifficulty(cycle(choices, cfg.Difficulty)) })
	case tea.KeyCtrlT:
		m.restart(func() { m.engine.SetMode(cycle([]model.Mode{model.ModePassage, model.ModeTimed}, cfg.Mode)) })
	case tea.KeyCtrlG:
		m.restart(func() { m.engine.SetCategory(cycle(model.Categories, cfg.Category)) })
	case tea.KeyCtrlL:
		m.restart(func() { m.engine.SetLanguage(cycle(model.Languages, cfg.Language)) })
	default:
		return false
	}
	return true
}

func cycle[T comparable](choices []T, current T) T {
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

// restart discards the current trial and any in-flight tick or submission.
func (m *Model) restart(apply func()) {
	m.gen++
	m.keystrokes = nil
	m.outcome = nil
	m.celebration = ""
	m.saving = false
	m.verdict = nil
	m.submitErr = nil
	apply()
	m.bestsBefore = m.engine.Bests()
}

func (m *Model) typeRunes(runes []rune) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range runes {
		if m.engine.Session().Status == engine.StatusFinished {
			break
		}
		m.recordKey(string(r))
		if cmd := m.setInput(m.engine.Session().UserInput + string(r)); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// deleteTo applies a deletion and logs it when the guard let it through.
func (m *Model) deleteTo(value string) tea.Cmd {
	before := m.engine.Session().UserInput
	cmd := m.setInput(value)
	if m.engine.Session().UserInput != before {
		m.recordKey(anticheat.DeleteKey)
	}
	return cmd
}

func (m *Model) recordKey(key string) {
	m.keystrokes = append(m.keystrokes, anticheat.Keystroke{
		Key:       key,
		Timestamp: m.clock().Sub(m.origin).Milliseconds(),
	})
}

// setInput feeds a new value to the engine and returns follow-up work.
func (m *Model) setInput(value string) tea.Cmd {
	before := m.engine.Session()
	value = guard.Restrict(before.UserInput, value)
	if value == before.UserInput {
		return nil
	}
	m.engine.HandleInput(value)
	after := m.engine.Session()
	switch {
	case after.Status == engine.StatusFinished:
		return m.submitCmd()
	case before.Status == engine.StatusReady && after.Status == engine.StatusActive:
		return tickCmd(m.gen)
	default:
		return nil
	}
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != m.gen || m.engine.Session().Status != engine.StatusActive {
		return nil
	}
	m.engine.Tick()
	if m.engine.Session().Status == engine.StatusFinished {
		return m.submitCmd()
	}
	return tickCmd(m.gen)
}

// onFinish is the engine listener for completed trials.
func (m *Model) onFinish(out engine.Outcome) {
	m.outcome = &out
	switch {
	case out.WasNewHighScore:
		m.celebration = fmt.Sprintf("New personal best! %d WPM (previous %d)", out.WPM, out.PreviousBestWPM)
	case out.WasFirstTest:
		m.celebration = fmt.Sprintf("First %s test recorded: %d WPM baseline", out.Bucket, out.WPM)
	default:
		m.celebration = ""
	}
}

func (m *Model) submitCmd() tea.Cmd {
	if m.outcome == nil || m.submit == nil {
		return nil
	}
	m.saving = true
	sub := recorder.Submission{
		User:       m.user,
		Outcome:    *m.outcome,
		Keystrokes: m.keystrokes,
	}
	var previous *model.Best
	if b := m.bestsBefore[sub.Outcome.Bucket]; b != nil {
		cp := *b
		previous = &cp
	}
	submitter := m.submit
	gen := m.gen
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		verdict, err := submitter.Submit(ctx, sub)
		if err != nil {
			logger.Error("failed to save result", "err", err)
		}
		return submittedMsg{gen: gen, outcome: sub.Outcome, previous: previous, verdict: verdict, err: err}
	}
}

// rollbackBest undoes the optimistic best a rejected trial left in the engine
// cache, even when the player has already moved on to another trial. A bucket
// that a later trial has raised again is left alone.
func (m *Model) rollbackBest(msg submittedMsg) {
	out := msg.outcome
	if !out.WasFirstTest && !out.WasNewHighScore {
		return
	}
	m.engine.RestoreBests(revertBucket(m.engine.Bests(), out, msg.previous))
	m.bestsBefore = revertBucket(m.bestsBefore, out, msg.previous)
}

func revertBucket(bests model.Bests, out engine.Outcome, previous *model.Best) model.Bests {
	cur := bests[out.Bucket]
	if cur == nil || cur.WPM != out.WPM || !cur.Date.Equal(out.EndTime) {
		return bests
	}
	bests = bests.Clone()
	if previous == nil {
		delete(bests, out.Bucket)
	} else {
		cp := *previous
		bests[out.Bucket] = &cp
	}
	return bests
}

// View implements tea.Model.
func (m *Model) View() string {
	s := m.engine.Session()
	var content string
	if s.Status == engine.StatusFinished {
		content = m.renderResults(s)
	} else {
		content = m.renderTrial(s)
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderTrial(s engine.Session) string {
	target := []rune(s.Text)
	input := []rune(s.UserInput)
	cursorIndex := -1
	if len(input) < len(target) {
		cursorIndex = len(input)
	}
	styled := buildStyledRunes(target, input, cursorIndex, s.Errors)

	var text string
	if w := m.contentWidth(); w > 0 {
		text = lipgloss.NewStyle().Width(w).Render(wrapStyledRunes(styled, w))
	} else {
		text = renderStyledRunes(styled)
	}

	lines := []string{headerStyle.Render(configLabel(s.Config)), renderLiveStats(s), "", text}
	if s.Status == engine.StatusReady && m.tip != "" {
		lines = append(lines, "", footerStyle.Render(m.tip))
	}
	return strings.Join(lines, "\n")
}

func configLabel(cfg model.Config) string {
	category := string(cfg.Category)
	if cfg.Category == model.CategoryCode {
		category += "/" + string(cfg.Language)
	}
	parts := []string{string(cfg.Difficulty), string(cfg.Mode), category}
	if cfg.Mode == model.ModeTimed {
		parts = append(parts, fmt.Sprintf("%ds", cfg.Duration))
	}
	return strings.Join(parts, " · ")
}

func renderLiveStats(s engine.Session) string {
	return fmt.Sprintf("%d WPM  %d%% acc  %d errors  %s",
		s.WPM, s.Accuracy, s.ErrorCount, statsPkg.FormatTime(s.TimeLeft))
}

func (m *Model) renderResults(s engine.Session) string {
	lines := []string{
		headerStyle.Render("Result · " + configLabel(s.Config)),
		"",
		fmt.Sprintf("WPM       %d", s.WPM),
		fmt.Sprintf("Accuracy  %d%%", s.Accuracy),
		fmt.Sprintf("Errors    %d", s.ErrorCount),
		fmt.Sprintf("Time      %s", statsPkg.FormatTime(s.TimerCount)),
	}
	if s.HasPreviousBest {
		lines = append(lines, fmt.Sprintf("Best      %d", s.PreviousBestWPM))
	}
	lines = append(lines, "")
	if notice := m.notice(); notice != "" {
		lines = append(lines, notice, "")
	}
	lines = append(lines, footerStyle.Render("enter/tab next test · esc quit"))
	return strings.Join(lines, "\n")
}

// notice reports the persistence outcome; celebrations wait for the verdict
// so a rejected result is never celebrated.
func (m *Model) notice() string {
	switch {
	case m.saving:
		return footerStyle.Render("Saving…")
	case m.submitErr != nil:
		return warnStyle.Render("Could not save result: " + m.submitErr.Error())
	case m.verdict != nil && m.verdict.Rejected:
		return warnStyle.Render(fmt.Sprintf("Result flagged as automated input (score %.2f). It is kept in history but does not count toward bests.", m.verdict.Report.Score))
	case m.celebration != "":
		return celebrateStyle.Render(m.celebration)
	default:
		return ""
	}
}

func (m *Model) renderFooter() string {
	s := m.engine.Session()
	if s.Text == "" {
		return ""
	}
	segments := []string{fmt.Sprintf("Progress %d%%", int(s.Progress()*100))}
	if best := m.engine.Bests()[s.Config.Difficulty]; best != nil && s.Config.Difficulty.Trackable() {
		segments = append(segments, fmt.Sprintf("Best %d WPM · %d%%", best.WPM, best.Accuracy))
	}
	if s.Status == engine.StatusReady {
		segments = append(segments, "^E difficulty · ^T mode · ^G category · ^L language")
	}
	segments = append(segments, "tab restart · esc quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}
