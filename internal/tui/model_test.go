package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/logging"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/recorder"
)

type staticSource string

func (s staticSource) Passage(model.Difficulty, model.Category, model.Language) string {
	return string(s)
}

type fakeSubmitter struct {
	subs    []recorder.Submission
	verdict func(recorder.Submission) recorder.Verdict
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub recorder.Submission) (recorder.Verdict, error) {
	f.subs = append(f.subs, sub)
	if f.verdict == nil {
		return recorder.Verdict{WasFirstTest: sub.Outcome.WasFirstTest, WasNewHighScore: sub.Outcome.WasNewHighScore}, f.err
	}
	return f.verdict(sub), f.err
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func newTestModel(t *testing.T, text string, sub Submitter) (*Model, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	eng := engine.New(model.Config{Difficulty: model.DifficultyEasy, Mode: model.ModePassage}, staticSource(text), nil, engine.WithClock(clock.now))
	m := NewModel(eng, Options{
		User:      model.User{ID: "u1", Username: "ada"},
		Submitter: sub,
		Logger:    logging.Discard(),
		Clock:     clock.now,
	})
	return m, clock
}

func key(r rune) tea.KeyMsg {
	if r == ' ' {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run executes cmd, expanding batches, and returns the produced messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func typeKeys(m *Model, clock *testClock, text string) tea.Cmd {
	var last tea.Cmd
	for _, r := range text {
		clock.t = clock.t.Add(100 * time.Millisecond)
		_, last = m.Update(key(r))
	}
	return last
}

func TestFirstKeyStartsTickChain(t *testing.T) {
	m, _ := newTestModel(t, "abc", nil)
	_, cmd := m.Update(key('a'))
	require.NotNil(t, cmd)
	assert.Equal(t, engine.StatusActive, m.Session().Status)

	_, cmd = m.Update(key('b'))
	assert.Nil(t, cmd, "only the first keystroke starts the chain")
}

func TestStaleTickIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, "abc", nil)
	m.Update(key('a'))
	_, cmd := m.Update(tickMsg{gen: m.gen})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.Session().TimerCount)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd = m.Update(tickMsg{gen: m.gen - 1})
	assert.Nil(t, cmd)
	assert.Equal(t, engine.StatusReady, m.Session().Status)
	assert.Zero(t, m.Session().TimerCount)
}

func TestKeystrokesAreRecorded(t *testing.T) {
	sub := &fakeSubmitter{}
	m, clock := newTestModel(t, "ab cd", sub)
	cmd := typeKeys(m, clock, "ab cd")
	require.Equal(t, engine.StatusFinished, m.Session().Status)

	msgs := run(cmd)
	require.Len(t, msgs, 1)
	require.Len(t, sub.subs, 1)
	got := sub.subs[0]
	assert.Equal(t, "ada", got.User.Username)
	require.Len(t, got.Keystrokes, 5)
	assert.Equal(t, anticheat.Keystroke{Key: "a", Timestamp: 100}, got.Keystrokes[0])
	assert.Equal(t, anticheat.Keystroke{Key: " ", Timestamp: 300}, got.Keystrokes[2])
	assert.Equal(t, 100, got.Outcome.Accuracy)
}

func TestBackspaceStopsAtLockedWord(t *testing.T) {
	m, clock := newTestModel(t, "ab cdef", nil)
	typeKeys(m, clock, "ab cx")
	backspace := tea.KeyMsg{Type: tea.KeyBackspace}

	m.Update(backspace)
	assert.Equal(t, "ab c", m.Session().UserInput)
	m.Update(backspace)
	m.Update(backspace)
	assert.Equal(t, "ab ", m.Session().UserInput)

	typeKeys(m, clock, "cd")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, "ab ", m.Session().UserInput)
	assert.Equal(t, 1, m.Session().ErrorCount, "deleting does not forgive the typo")
}

func TestDeletionsAreRecorded(t *testing.T) {
	m, clock := newTestModel(t, "ab cdef", nil)
	typeKeys(m, clock, "ab cx")
	clock.t = clock.t.Add(100 * time.Millisecond)
	backspace := tea.KeyMsg{Type: tea.KeyBackspace}
	m.Update(backspace)
	m.Update(backspace)
	m.Update(backspace)
	require.Equal(t, "ab ", m.Session().UserInput)

	require.Len(t, m.keystrokes, 7, "the blocked backspace is not logged")
	assert.Equal(t, anticheat.Keystroke{Key: anticheat.DeleteKey, Timestamp: 600}, m.keystrokes[5])
	assert.Equal(t, anticheat.DeleteKey, m.keystrokes[6].Key)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Len(t, m.keystrokes, 7)
}

func TestFinishCelebratesAfterVerdict(t *testing.T) {
	sub := &fakeSubmitter{}
	m, clock := newTestModel(t, "abc", sub)
	cmd := typeKeys(m, clock, "abc")
	assert.Contains(t, m.View(), "Saving")
	assert.NotContains(t, m.View(), "First easy test recorded")

	for _, msg := range run(cmd) {
		m.Update(msg)
	}
	view := m.View()
	assert.Contains(t, view, "First easy test recorded")
	assert.Contains(t, view, "Accuracy  100%")
}

func TestRejectedResultIsNotCelebrated(t *testing.T) {
	sub := &fakeSubmitter{verdict: func(recorder.Submission) recorder.Verdict {
		return recorder.Verdict{Rejected: true, Report: anticheat.Report{Score: 0.95}}
	}}
	m, clock := newTestModel(t, "abc", sub)
	for _, msg := range run(typeKeys(m, clock, "abc")) {
		m.Update(msg)
	}
	view := m.View()
	assert.Contains(t, view, "flagged as automated input (score 0.95)")
	assert.NotContains(t, view, "First easy test recorded")
	assert.NotContains(t, m.engine.Bests(), model.DifficultyEasy, "a rejected baseline is rolled back")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range run(typeKeys(m, clock, "abc")) {
		m.Update(msg)
	}
	require.Len(t, sub.subs, 2)
	assert.True(t, sub.subs[1].Outcome.WasFirstTest)
}

func TestSubmitErrorIsShown(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("database is locked")}
	m, clock := newTestModel(t, "abc", sub)
	for _, msg := range run(typeKeys(m, clock, "abc")) {
		m.Update(msg)
	}
	assert.Contains(t, m.View(), "Could not save result: database is locked")
}

func TestNoSubmitterShowsCelebrationImmediately(t *testing.T) {
	m, clock := newTestModel(t, "abc", nil)
	assert.Nil(t, typeKeys(m, clock, "abc"))
	assert.Contains(t, m.View(), "First easy test recorded")
}

func TestRestartDropsLateVerdict(t *testing.T) {
	sub := &fakeSubmitter{}
	m, clock := newTestModel(t, "abc", sub)
	msgs := run(typeKeys(m, clock, "abc"))

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, engine.StatusReady, m.Session().Status)
	for _, msg := range msgs {
		m.Update(msg)
	}
	assert.Nil(t, m.verdict)
	assert.Empty(t, m.keystrokes)
}

func TestLateRejectionRollsBackBest(t *testing.T) {
	sub := &fakeSubmitter{verdict: func(recorder.Submission) recorder.Verdict {
		return recorder.Verdict{Rejected: true, Report: anticheat.Report{Score: 1}}
	}}
	m, clock := newTestModel(t, "abc", sub)
	msgs := run(typeKeys(m, clock, "abc"))
	require.Contains(t, m.engine.Bests(), model.DifficultyEasy)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range msgs {
		m.Update(msg)
	}
	assert.Nil(t, m.verdict, "the stale verdict does not reach the view")
	assert.NotContains(t, m.engine.Bests(), model.DifficultyEasy)

	sub.verdict = nil
	for _, msg := range run(typeKeys(m, clock, "abc")) {
		m.Update(msg)
	}
	require.Len(t, sub.subs, 2)
	assert.True(t, sub.subs[1].Outcome.WasFirstTest)
	assert.Contains(t, m.engine.Bests(), model.DifficultyEasy)
}

func TestLateRejectionKeepsNewerBest(t *testing.T) {
	sub := &fakeSubmitter{verdict: func(recorder.Submission) recorder.Verdict {
		return recorder.Verdict{Rejected: true}
	}}
	m, clock := newTestModel(t, "abc", sub)
	stale := run(typeKeys(m, clock, "abc"))
	first := *m.engine.Bests()[model.DifficultyEasy]

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(key('a'))
	clock.t = clock.t.Add(10 * time.Millisecond)
	m.Update(key('b'))
	m.Update(key('c'))
	raised := m.engine.Bests()[model.DifficultyEasy]
	require.Greater(t, raised.WPM, first.WPM)

	for _, msg := range stale {
		m.Update(msg)
	}
	assert.Equal(t, raised.WPM, m.engine.Bests()[model.DifficultyEasy].WPM)
}

func TestFinishedIgnoresTyping(t *testing.T) {
	m, clock := newTestModel(t, "ab", nil)
	typeKeys(m, clock, "ab")
	typeKeys(m, clock, "zz")
	assert.Equal(t, "ab", m.Session().UserInput)
	assert.Len(t, m.keystrokes, 2)
}

func TestSettingsKeysCycleBeforeStart(t *testing.T) {
	m, _ := newTestModel(t, "abc", nil)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, model.DifficultyMedium, m.Session().Config.Difficulty)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, model.DifficultyRanked, m.Session().Config.Difficulty, "custom is skipped without custom text")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, model.ModeTimed, m.Session().Config.Mode)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.Equal(t, model.CategoryQuotes, m.Session().Config.Category)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, model.Language("python"), m.Session().Config.Language)

	m.Update(key('a'))
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, model.ModeTimed, m.Session().Config.Mode, "settings are locked during a trial")
}

func TestConfigLabel(t *testing.T) {
	assert.Equal(t, "hard · timed · code/sql · 30s", configLabel(model.Config{
		Difficulty: model.DifficultyHard, Mode: model.ModeTimed, Category: model.CategoryCode, Language: "sql", Duration: 30,
	}))
	assert.Equal(t, "easy · passage · words", configLabel(model.Config{
		Difficulty: model.DifficultyEasy, Mode: model.ModePassage, Category: model.CategoryWords,
	}))
}

func TestRenderFooter(t *testing.T) {
	m, _ := newTestModel(t, "abcd", nil)
	m.Update(key('a'))
	m.Update(key('b'))
	assert.Contains(t, m.renderFooter(), "Progress 50%")
	assert.NotContains(t, m.renderFooter(), "difficulty")
}
