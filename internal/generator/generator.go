// Package generator builds typing passages.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/tapixo/internal/model"
)

// Word counts per difficulty.
const (
	EasyCount   = 15
	MediumCount = 25
	HardCount   = 30
	RankedCount = 30
	CustomCount = 10
	CodeCount   = 20
)

// Options decorate word passages. Ranked passages ignore them.
type Options struct {
	// CapsPct and PunctPct are probabilities in [0,1].
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
	// Words replaces the built-in list for every non-ranked words passage.
	Words []string
}

// Generator produces randomized passages.
type Generator struct {
	rnd  *rand.Rand
	opts Options
}

// New returns a Generator seeded with the current time.
func New(opts Options) *Generator {
	return NewWithSeed(time.Now().UnixNano(), opts)
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64, opts Options) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), opts: opts}
}

// Passage returns target text for a trial.
func (g *Generator) Passage(difficulty model.Difficulty, category model.Category, language model.Language) string {
	switch category {
	case model.CategoryQuotes:
		return pick(g.rnd, quotes)
	case model.CategoryLyrics:
		return pick(g.rnd, lyrics)
	case model.CategoryCode:
		keywords, ok := codeKeywords[language]
		if !ok {
			keywords = codeKeywords[model.Languages[0]]
		}
		return strings.Join(g.Generate(keywords, CodeCount, 0, 0, nil), " ")
	}

	if difficulty == model.DifficultyRanked {
		return strings.Join(g.Generate(hardWords, RankedCount, 0, 0, nil), " ")
	}
	words, count := wordsFor(difficulty)
	if len(g.opts.Words) > 0 {
		words = g.opts.Words
	}
	return strings.Join(g.Generate(words, count, g.opts.CapsPct, g.opts.PunctPct, g.opts.PunctSet), " ")
}

// Tip returns a random typing tip.
func (g *Generator) Tip() string {
	return pick(g.rnd, tips)
}

func wordsFor(d model.Difficulty) ([]string, int) {
	switch d {
	case model.DifficultyEasy:
		return easyWords, EasyCount
	case model.DifficultyMedium:
		return mediumWords, MediumCount
	case model.DifficultyHard:
		return hardWords, HardCount
	default:
		return easyWords, CustomCount
	}
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	if len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

func pick(rnd *rand.Rand, items []string) string {
	return items[rnd.Intn(len(items))]
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
