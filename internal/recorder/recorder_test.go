package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/logging"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/store"
)

var end = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func outcome(d model.Difficulty, wpm int, first, high bool) engine.Outcome {
	return engine.Outcome{
		Config:          model.Config{Difficulty: d, Mode: model.ModePassage, Category: model.CategoryWords, Language: "javascript"},
		Bucket:          d,
		Trackable:       d.Trackable(),
		WPM:             wpm,
		Accuracy:        96,
		ErrorCount:      2,
		Typed:           120,
		Elapsed:         29600 * time.Millisecond,
		StartTime:       end.Add(-29600 * time.Millisecond),
		EndTime:         end,
		WasFirstTest:    first,
		WasNewHighScore: high,
		PreviousBestWPM: 50,
		HasPreviousBest: !first,
	}
}

func keystrokes(n int, delta func(i int) int64) []anticheat.Keystroke {
	out := make([]anticheat.Keystroke, n)
	var ts int64
	for i := range out {
		if i > 0 {
			ts += delta(i)
		}
		out[i] = anticheat.Keystroke{Key: "a", Timestamp: ts}
	}
	return out
}

func robot() []anticheat.Keystroke {
	return keystrokes(80, func(int) int64 { return 100 })
}

func human() []anticheat.Keystroke {
	deltas := []int64{60, 100, 140, 180, 120}
	return keystrokes(80, func(i int) int64 { return deltas[i%len(deltas)] })
}

func newRecorder(t *testing.T) (*Recorder, *store.Store, model.User) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tapixo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	user, err := s.EnsureUser(context.Background(), "ada")
	require.NoError(t, err)
	return New(s, 0, logging.Discard()), s, user
}

func TestNewDefaultsThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(nil, 0, logging.Discard()).Threshold())
	assert.Equal(t, DefaultThreshold, New(nil, 3, logging.Discard()).Threshold())
	assert.Equal(t, 0.5, New(nil, 0.5, logging.Discard()).Threshold())
}

func TestSubmitAccepted(t *testing.T) {
	ctx := context.Background()
	rec, s, user := newRecorder(t)

	v, err := rec.Submit(ctx, Submission{User: user, Outcome: outcome(model.DifficultyHard, 72, false, true), Keystrokes: human()})
	require.NoError(t, err)
	assert.False(t, v.Rejected)
	assert.True(t, v.WasNewHighScore)
	assert.True(t, v.BestRaised)
	assert.Equal(t, 30, v.Result.DurationSec)
	assert.NotEmpty(t, v.Result.ID)
	assert.Zero(t, v.Result.CheatScore)

	bests, err := s.LoadBests(ctx, user.ID)
	require.NoError(t, err)
	require.Contains(t, bests, model.DifficultyHard)
	assert.Equal(t, 72, bests[model.DifficultyHard].WPM)
	assert.True(t, bests[model.DifficultyHard].Date.Equal(end))
}

func TestSubmitRejectedSuppressesFlags(t *testing.T) {
	ctx := context.Background()
	rec, s, user := newRecorder(t)

	v, err := rec.Submit(ctx, Submission{User: user, Outcome: outcome(model.DifficultyRanked, 180, true, false), Keystrokes: robot()})
	require.NoError(t, err)
	assert.True(t, v.Rejected)
	assert.False(t, v.WasFirstTest)
	assert.False(t, v.WasNewHighScore)
	assert.False(t, v.BestRaised)
	assert.Equal(t, 180, v.Result.WPM, "stats are still reported")
	assert.Equal(t, 1.0, v.Report.Score)

	history, err := s.ListHistory(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Rejected)

	board, err := s.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestSubmitShortTrialIsNeverRejected(t *testing.T) {
	rec, _, user := newRecorder(t)
	v, err := rec.Submit(context.Background(), Submission{User: user, Outcome: outcome(model.DifficultyEasy, 40, true, false), Keystrokes: robot()[:20]})
	require.NoError(t, err)
	assert.False(t, v.Rejected)
	assert.True(t, v.WasFirstTest)
}

func TestSubmitUntrackedDoesNotTouchBests(t *testing.T) {
	ctx := context.Background()
	rec, s, user := newRecorder(t)
	o := outcome(model.DifficultyCustom, 90, false, false)
	v, err := rec.Submit(ctx, Submission{User: user, Outcome: o, Keystrokes: human()})
	require.NoError(t, err)
	assert.False(t, v.BestRaised)

	bests, err := s.LoadBests(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, bests)
}

type failingStore struct{}

func (failingStore) RecordResult(context.Context, model.Result, *model.Best) (model.Result, bool, error) {
	return model.Result{}, false, errors.New("disk full")
}

func TestSubmitStoreFailureKeepsVerdict(t *testing.T) {
	rec := New(failingStore{}, 0, logging.Discard())
	v, err := rec.Submit(context.Background(), Submission{User: model.User{ID: "u"}, Outcome: outcome(model.DifficultyEasy, 55, false, true)})
	require.Error(t, err)
	assert.Equal(t, 55, v.Result.WPM)
	assert.True(t, v.WasNewHighScore)
}
