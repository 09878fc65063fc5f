// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the passage pool and the personal-best bucket.
type Difficulty string

// Difficulty values.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyCustom Difficulty = "custom"
	DifficultyRanked Difficulty = "ranked"
)

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyCustom, DifficultyRanked}

// Trackable reports whether personal bests are kept for the difficulty.
func (d Difficulty) Trackable() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyRanked:
		return true
	default:
		return false
	}
}

// Mode decides how a trial ends.
type Mode string

// Mode values.
const (
	ModeTimed   Mode = "timed"
	ModePassage Mode = "passage"
)

// Category selects the text source.
type Category string

// Category values.
const (
	CategoryWords  Category = "words"
	CategoryQuotes Category = "quotes"
	CategoryLyrics Category = "lyrics"
	CategoryCode   Category = "code"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryWords, CategoryQuotes, CategoryLyrics, CategoryCode}

// Language selects the keyword list for code passages.
type Language string

// Languages supported by code passages.
var Languages = []Language{"javascript", "python", "java", "c++", "c#", "sql", "html", "css"}

// ParseDifficulty validates a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeTimed, ModePassage:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryWords, CategoryQuotes, CategoryLyrics, CategoryCode:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// ParseLanguage validates a code language name.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Config defines practice settings.
type Config struct {
	Difficulty Difficulty
	Mode       Mode
	Category   Category
	Language   Language
	Duration   int // timed-mode countdown in seconds
	CustomText string
}

// Best is a personal best for one difficulty bucket.
type Best struct {
	WPM      int
	Accuracy int
	Date     time.Time
}

// Bests maps a difficulty bucket to its best; a missing or nil entry means no test yet.
type Bests map[Difficulty]*Best

// Clone returns a deep copy.
func (b Bests) Clone() Bests {
	out := make(Bests, len(b))
	for k, v := range b {
		if v == nil {
			out[k] = nil
			continue
		}
		cp := *v
		out[k] = &cp
	}
	return out
}

// User is a local player identity.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Result is one persisted trial.
type Result struct {
	ID          string
	UserID      string
	WPM         int
	Accuracy    int
	ErrorCount  int
	DurationSec int
	Difficulty  Difficulty
	Mode        Mode
	Category    Category
	Language    Language
	CheatScore  float64
	Rejected    bool
	CreatedAt   time.Time
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank     int
	UserID   string
	Username string
	WPM      int
	Accuracy int
	Date     time.Time
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Username string
	Limit    int
}
