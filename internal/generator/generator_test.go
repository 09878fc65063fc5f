package generator

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapixo/internal/model"
)

func inList(list []string) func(string) bool {
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return func(w string) bool {
		_, ok := set[w]
		return ok
	}
}

func TestPassageWordCounts(t *testing.T) {
	tests := []struct {
		difficulty model.Difficulty
		count      int
		list       []string
	}{
		{model.DifficultyEasy, EasyCount, easyWords},
		{model.DifficultyMedium, MediumCount, mediumWords},
		{model.DifficultyHard, HardCount, hardWords},
		{model.DifficultyRanked, RankedCount, hardWords},
		{model.DifficultyCustom, CustomCount, easyWords},
	}
	g := NewWithSeed(1, Options{})
	for _, tt := range tests {
		t.Run(string(tt.difficulty), func(t *testing.T) {
			words := strings.Fields(g.Passage(tt.difficulty, model.CategoryWords, ""))
			require.Len(t, words, tt.count)
			known := inList(tt.list)
			for _, w := range words {
				assert.True(t, known(w), "unexpected word %q", w)
			}
		})
	}
}

func TestPassageCategories(t *testing.T) {
	g := NewWithSeed(2, Options{})
	assert.True(t, inList(quotes)(g.Passage(model.DifficultyEasy, model.CategoryQuotes, "")))
	assert.True(t, inList(lyrics)(g.Passage(model.DifficultyEasy, model.CategoryLyrics, "")))

	code := strings.Fields(g.Passage(model.DifficultyEasy, model.CategoryCode, "sql"))
	require.Len(t, code, CodeCount)
	known := inList(codeKeywords["sql"])
	for _, w := range code {
		assert.True(t, known(w), "unexpected keyword %q", w)
	}
}

func TestPassageUnknownLanguageFallsBack(t *testing.T) {
	g := NewWithSeed(3, Options{})
	known := inList(codeKeywords["javascript"])
	for _, w := range strings.Fields(g.Passage(model.DifficultyEasy, model.CategoryCode, "cobol")) {
		assert.True(t, known(w))
	}
}

func TestPassageIsDeterministicPerSeed(t *testing.T) {
	a := NewWithSeed(42, Options{}).Passage(model.DifficultyHard, model.CategoryWords, "")
	b := NewWithSeed(42, Options{}).Passage(model.DifficultyHard, model.CategoryWords, "")
	assert.Equal(t, a, b)
}

func TestOptionsApplyToPracticeOnly(t *testing.T) {
	opts := Options{CapsPct: 1, PunctPct: 1, PunctSet: []rune{'!'}, Words: []string{"zebra"}}
	g := NewWithSeed(4, opts)

	for _, w := range strings.Fields(g.Passage(model.DifficultyEasy, model.CategoryWords, "")) {
		assert.Equal(t, "Zebra!", w)
	}
	for _, w := range strings.Fields(g.Passage(model.DifficultyRanked, model.CategoryWords, "")) {
		assert.True(t, inList(hardWords)(w), "ranked ignores options, got %q", w)
	}
}

func TestGenerateCapsAndPunct(t *testing.T) {
	g := NewWithSeed(5, Options{})
	words := g.Generate([]string{"alpha"}, 5, 1, 0, nil)
	for _, w := range words {
		assert.True(t, unicode.IsUpper([]rune(w)[0]))
	}
	assert.Nil(t, g.Generate(nil, 5, 0, 0, nil))
	assert.Equal(t, []string{"alpha", "alpha"}, g.Generate([]string{"alpha"}, 2, 0, 1, nil))
}

func TestTip(t *testing.T) {
	assert.True(t, inList(tips)(NewWithSeed(6, Options{}).Tip()))
}
