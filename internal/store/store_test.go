package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapixo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tapixo.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestEnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.EnsureUser(ctx, "ada")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "ada", first.Username)

	again, err := s.EnsureUser(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = s.EnsureUser(ctx, "")
	assert.Error(t, err)
}

func TestGetUserByNameNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetUserByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAndListHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	user, err := s.EnsureUser(ctx, "ada")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.InsertResult(ctx, model.Result{
			UserID:      user.ID,
			WPM:         40 + i,
			Accuracy:    95,
			ErrorCount:  i,
			DurationSec: 30,
			Difficulty:  model.DifficultyEasy,
			Mode:        model.ModePassage,
			Category:    model.CategoryWords,
			Language:    "javascript",
			CheatScore:  0.3,
			Rejected:    i == 1,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	history, err := s.ListHistory(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 42, history[0].WPM)
	assert.Equal(t, 41, history[1].WPM)
	assert.True(t, history[1].Rejected)
	assert.Equal(t, model.DifficultyEasy, history[0].Difficulty)
	assert.Equal(t, model.Language("javascript"), history[0].Language)
	assert.InDelta(t, 0.3, history[0].CheatScore, 1e-9)
	assert.True(t, history[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.Len(t, history[0].ID, 26, "ulid")

	all, err := s.ListAllResults(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 40, all[0].WPM)

	n, err := s.CountResults(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpsertBestOnlyRaises(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	user, err := s.EnsureUser(ctx, "ada")
	require.NoError(t, err)

	raised, err := s.UpsertBest(ctx, user.ID, model.DifficultyHard, model.Best{WPM: 50, Accuracy: 90, Date: base})
	require.NoError(t, err)
	assert.True(t, raised)

	raised, err = s.UpsertBest(ctx, user.ID, model.DifficultyHard, model.Best{WPM: 45, Accuracy: 99, Date: base})
	require.NoError(t, err)
	assert.False(t, raised)

	raised, err = s.UpsertBest(ctx, user.ID, model.DifficultyHard, model.Best{WPM: 50, Accuracy: 99, Date: base})
	require.NoError(t, err)
	assert.False(t, raised, "ties keep the older best")

	raised, err = s.UpsertBest(ctx, user.ID, model.DifficultyHard, model.Best{WPM: 60, Accuracy: 80, Date: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, raised)

	bests, err := s.LoadBests(ctx, user.ID)
	require.NoError(t, err)
	require.Contains(t, bests, model.DifficultyHard)
	assert.Equal(t, 60, bests[model.DifficultyHard].WPM)
	assert.Equal(t, 80, bests[model.DifficultyHard].Accuracy)
	assert.True(t, bests[model.DifficultyHard].Date.Equal(base.Add(time.Hour)))
	assert.NotContains(t, bests, model.DifficultyEasy)
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	user, err := s.EnsureUser(ctx, "ada")
	require.NoError(t, err)

	result := model.Result{UserID: user.ID, WPM: 70, Accuracy: 97, Difficulty: model.DifficultyMedium, Mode: model.ModePassage, Category: model.CategoryWords}
	stored, raised, err := s.RecordResult(ctx, result, &model.Best{WPM: 70, Accuracy: 97})
	require.NoError(t, err)
	assert.True(t, raised)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	_, raised, err = s.RecordResult(ctx, result, nil)
	require.NoError(t, err)
	assert.False(t, raised)

	n, err := s.CountResults(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLeaderboardAndRank(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	scores := []struct {
		name string
		wpm  int
		acc  int
	}{
		{"ada", 80, 95},
		{"bob", 95, 90},
		{"cy", 80, 99},
		{"dee", 0, 0},
	}
	ids := map[string]string{}
	for _, sc := range scores {
		user, err := s.EnsureUser(ctx, sc.name)
		require.NoError(t, err)
		ids[sc.name] = user.ID
		if sc.wpm == 0 {
			continue
		}
		_, err = s.UpsertBest(ctx, user.ID, model.DifficultyRanked, model.Best{WPM: sc.wpm, Accuracy: sc.acc, Date: base})
		require.NoError(t, err)
	}
	// Non-ranked buckets never reach the board.
	_, err := s.UpsertBest(ctx, ids["dee"], model.DifficultyHard, model.Best{WPM: 200, Date: base})
	require.NoError(t, err)

	board, err := s.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []string{"bob", "cy", "ada"}, []string{board[0].Username, board[1].Username, board[2].Username})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})

	top, err := s.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "bob", top[0].Username)

	rank, err := s.RankOf(ctx, ids["ada"])
	require.NoError(t, err)
	assert.Equal(t, 3, rank)

	rank, err = s.RankOf(ctx, ids["dee"])
	require.NoError(t, err)
	assert.Zero(t, rank)
}
