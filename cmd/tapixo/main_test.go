package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/store"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tapixo.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = st.Close()
	}()
	ctx := context.Background()
	date := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	for _, sc := range []struct {
		name string
		wpm  int
	}{{"ada", 70}, {"bob", 90}} {
		user, err := st.EnsureUser(ctx, sc.name)
		require.NoError(t, err)
		_, _, err = st.RecordResult(ctx, model.Result{
			UserID: user.ID, WPM: sc.wpm, Accuracy: 97, DurationSec: 20,
			Difficulty: model.DifficultyRanked, Mode: model.ModePassage, Category: model.CategoryWords,
			CreatedAt: date,
		}, &model.Best{WPM: sc.wpm, Accuracy: 97, Date: date})
		require.NoError(t, err)
	}
	return path
}

func TestLeaderboardCommand(t *testing.T) {
	db := seedDB(t)
	out, err := runCLI(t, "", "leaderboard", "--db", db, "--user", "ada")
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "ada is ranked #2")

	out, err = runCLI(t, "", "leaderboard", "--db", db, "--user", "zed")
	require.NoError(t, err)
	assert.NotContains(t, out, "zed")
}

func TestHistoryCommand(t *testing.T) {
	db := seedDB(t)
	out, err := runCLI(t, "", "history", "--db", db, "--user", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "ranked")
	assert.Contains(t, out, "90")

	out, err = runCLI(t, "", "history", "--db", db, "--user", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No tests found.")
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	db := seedDB(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tapixo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tapixo", "config.toml"), []byte("[user]\nname = \"bob\"\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--db", db})
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "90")
}

func TestScoreCommand(t *testing.T) {
	keys := make([]anticheat.Keystroke, 80)
	for i := range keys {
		keys[i] = anticheat.Keystroke{Key: "a", Timestamp: int64(i * 100)}
	}
	data, err := json.Marshal(keys)
	require.NoError(t, err)

	out, err := runCLI(t, string(data), "score", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Score           1.00 (rejected at threshold 0.70)")
	assert.Contains(t, out, "Keystrokes      80")

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"keystrokes":[{"key":"a","timestamp":0}]}`), 0o644))
	out, err = runCLI(t, "", "score", path, "--threshold", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "0.00 (accepted at threshold 0.50)")

	_, err = runCLI(t, "", "score", path, "--threshold", "1.5")
	assert.Error(t, err)
}

func TestParseKeystrokes(t *testing.T) {
	keys, err := parseKeystrokes([]byte(` [{"key":"a","timestamp":5}]`))
	require.NoError(t, err)
	assert.Equal(t, []anticheat.Keystroke{{Key: "a", Timestamp: 5}}, keys)

	keys, err = parseKeystrokes([]byte(`{"keystrokes":[{"key":"b","timestamp":7}]}`))
	require.NoError(t, err)
	assert.Equal(t, []anticheat.Keystroke{{Key: "b", Timestamp: 7}}, keys)

	_, err = parseKeystrokes([]byte(`nope`))
	assert.Error(t, err)
}

func TestPracticeConfigValidation(t *testing.T) {
	newRootCmd()
	cfg, err := practiceConfig()
	require.NoError(t, err)
	assert.Equal(t, model.Config{
		Difficulty: model.DifficultyHard,
		Mode:       model.ModePassage,
		Category:   model.CategoryWords,
		Language:   "javascript",
		Duration:   60,
	}, cfg)

	practiceMode = "sprint"
	_, err = practiceConfig()
	assert.ErrorContains(t, err, "--mode")

	newRootCmd()
	practiceDuration = 0
	_, err = practiceConfig()
	assert.ErrorContains(t, err, "--duration")
}

func TestGeneratorOptions(t *testing.T) {
	newRootCmd()
	practiceCaps = 1.2
	_, err := generatorOptions()
	assert.ErrorContains(t, err, "--caps")

	newRootCmd()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nBeta\ngamma delta\n"), 0o644))
	practiceWordList = path
	practiceWordListLang = "en"
	opts, err := generatorOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, opts.Words)
}

func TestReadCustomText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.txt")
	require.NoError(t, os.WriteFile(path, []byte("  the quick\n\tbrown   fox \n"), 0o644))
	text, err := readCustomText(path)
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox", text)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte(" \n"), 0o644))
	_, err = readCustomText(empty)
	assert.Error(t, err)
}

func TestResolveUserName(t *testing.T) {
	t.Setenv("USER", "carol")
	assert.Equal(t, "ada", resolveUserName(" ada "))
	assert.Equal(t, "carol", resolveUserName(""))
	t.Setenv("USER", "")
	assert.Equal(t, defaultUser, resolveUserName(""))
}
