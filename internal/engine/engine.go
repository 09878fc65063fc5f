// Package engine drives one typing trial through ready, active and finished.
//
// The host feeds every input change to HandleInput with the whole new value
// and calls Tick about once a second while the trial is active. The engine is
// synchronous and not safe for concurrent use; a host that dispatches input and
// timer events from different goroutines must serialize them.
package engine

import (
	"math"
	"time"

	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/stats"
)

// DefaultDuration is the timed-mode countdown in seconds when none is configured.
const DefaultDuration = 60

// minLiveElapsed floors the live WPM denominator so the first keystroke does not explode it.
const minLiveElapsed = 0.5

// Status is the trial state.
type Status string

// Status values.
const (
	StatusReady    Status = "ready"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// TextSource produces the target passage for a trial.
type TextSource interface {
	Passage(difficulty model.Difficulty, category model.Category, language model.Language) string
}

// Session is a snapshot of the trial state.
type Session struct {
	Config model.Config
	Status Status

	Text       string
	UserInput  string
	Errors     ErrorSet
	ErrorCount int

	// StartTime is zero until the first character is typed.
	StartTime time.Time
	EndTime   time.Time

	InitialTime int
	TimeLeft    int
	TimerCount  int

	WPM      int
	Accuracy int

	WasNewHighScore bool
	WasFirstTest    bool
	PreviousBestWPM int
	HasPreviousBest bool
}

// Typed returns the number of runes typed so far.
func (s Session) Typed() int {
	return len([]rune(s.UserInput))
}

// Progress returns the typed fraction of the target text in [0,1].
func (s Session) Progress() float64 {
	total := len([]rune(s.Text))
	if total == 0 {
		return 0
	}
	return math.Min(1, float64(s.Typed())/float64(total))
}

// Outcome summarizes a finished trial for subscribers.
type Outcome struct {
	Config     model.Config
	Bucket     model.Difficulty
	Trackable  bool
	WPM        int
	Accuracy   int
	ErrorCount int
	Typed      int
	Elapsed    time.Duration
	StartTime  time.Time
	EndTime    time.Time

	WasNewHighScore bool
	WasFirstTest    bool
	PreviousBestWPM int
	HasPreviousBest bool
}

// Listener is called after a trial finishes.
type Listener func(Outcome)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine owns one typing session at a time.
type Engine struct {
	source    TextSource
	now       func() time.Time
	cfg       model.Config
	bests     model.Bests
	listeners []Listener

	session    Session
	textRunes  []rune
	inputRunes int
}

// New builds an engine and initializes the first session. bests seeds the
// personal-best cache; it is copied, never modified.
func New(cfg model.Config, source TextSource, bests model.Bests, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		now:    time.Now,
		cfg:    normalize(cfg),
		bests:  bests.Clone(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Init()
	return e
}

func normalize(cfg model.Config) model.Config {
	if cfg.Difficulty == "" {
		cfg.Difficulty = model.DifficultyHard
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModePassage
	}
	if cfg.Category == "" {
		cfg.Category = model.CategoryWords
	}
	if cfg.Language == "" {
		cfg.Language = model.Languages[0]
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	return cfg
}

// Init starts a fresh session for the current configuration.
func (e *Engine) Init() {
	var text string
	if e.cfg.Difficulty == model.DifficultyCustom && e.cfg.CustomText != "" {
		text = e.cfg.CustomText
	} else {
		text = e.source.Passage(e.cfg.Difficulty, e.cfg.Category, e.cfg.Language)
	}
	initial := 0
	if e.cfg.Mode == model.ModeTimed {
		initial = e.cfg.Duration
	}
	e.session = Session{
		Config:      e.cfg,
		Status:      StatusReady,
		Text:        text,
		InitialTime: initial,
		TimeLeft:    initial,
		Accuracy:    100,
	}
	e.textRunes = []rune(text)
	e.inputRunes = 0
}

// Reset discards the current session and starts a new one.
func (e *Engine) Reset() {
	e.Init()
}

// Configure replaces the configuration and starts a new session.
func (e *Engine) Configure(cfg model.Config) {
	e.cfg = normalize(cfg)
	e.Init()
}

// SetDifficulty changes the difficulty and starts a new session.
func (e *Engine) SetDifficulty(d model.Difficulty) {
	e.cfg.Difficulty = d
	e.Init()
}

// SetMode changes the mode and starts a new session.
func (e *Engine) SetMode(m model.Mode) {
	e.cfg.Mode = m
	e.Init()
}

// SetCategory changes the text category and starts a new session.
func (e *Engine) SetCategory(c model.Category) {
	e.cfg.Category = c
	e.Init()
}

// SetLanguage changes the code language and starts a new session.
func (e *Engine) SetLanguage(l model.Language) {
	e.cfg.Language = l
	e.Init()
}

// SetDuration changes the timed-mode countdown and starts a new session.
func (e *Engine) SetDuration(seconds int) {
	e.cfg.Duration = seconds
	e.cfg = normalize(e.cfg)
	e.Init()
}

// SetCustomText switches to a custom passage trial.
func (e *Engine) SetCustomText(text string) {
	e.cfg.CustomText = text
	e.cfg.Difficulty = model.DifficultyCustom
	e.cfg.Mode = model.ModePassage
	e.Init()
}

// Subscribe registers a listener for finished trials.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Config returns the active configuration.
func (e *Engine) Config() model.Config {
	return e.cfg
}

// Session returns a snapshot of the current session.
func (e *Engine) Session() Session {
	return e.session
}

// Bests returns a copy of the personal-best cache.
func (e *Engine) Bests() model.Bests {
	return e.bests.Clone()
}

// RestoreBests replaces the personal-best cache, for example after a finished
// trial was rejected downstream. The map is copied.
func (e *Engine) RestoreBests(bests model.Bests) {
	e.bests = bests.Clone()
}

// HandleInput accepts the entire new input value after a keystroke.
func (e *Engine) HandleInput(value string) {
	s := e.session
	if s.Status == StatusFinished {
		return
	}
	now := e.now()
	valueRunes := []rune(value)

	if s.Status == StatusReady && len(valueRunes) == 1 {
		s.Status = StatusActive
		s.StartTime = now
	}

	if len(valueRunes) > e.inputRunes {
		i := len(valueRunes) - 1
		if i < len(e.textRunes) && valueRunes[i] != e.textRunes[i] {
			s.Errors = s.Errors.With(i)
		}
	}

	s.UserInput = value
	s.ErrorCount = s.Errors.Len()
	e.inputRunes = len(valueRunes)
	e.session = refreshLive(s, now)

	if len(valueRunes) >= len(e.textRunes) {
		e.Finish()
	}
}

// Tick advances the timer by one second. It does nothing unless the trial is active.
func (e *Engine) Tick() {
	s := e.session
	if s.Status != StatusActive {
		return
	}
	s.TimerCount++
	if s.Config.Mode == model.ModeTimed {
		s.TimeLeft--
	} else {
		s.TimeLeft++
	}
	e.session = refreshLive(s, e.now())

	if s.Config.Mode == model.ModeTimed && s.TimeLeft <= 0 {
		e.Finish()
	}
}

func refreshLive(s Session, now time.Time) Session {
	if s.StartTime.IsZero() || s.UserInput == "" {
		return s
	}
	elapsed := math.Max(now.Sub(s.StartTime).Seconds(), minLiveElapsed)
	s.WPM = stats.CalculateWPM(stats.CountCorrectChars(s.UserInput, s.Text), elapsed)
	s.Accuracy = stats.CalculateAccuracy(s.Typed(), s.ErrorCount)
	return s
}

// Finish completes the trial, computes final stats and updates the best cache.
// It does nothing when the trial is already finished.
func (e *Engine) Finish() {
	s := e.session
	if s.Status == StatusFinished {
		return
	}
	end := e.now()
	s.EndTime = end

	var elapsed time.Duration
	if !s.StartTime.IsZero() {
		elapsed = end.Sub(s.StartTime)
	}
	s.WPM = stats.CalculateWPM(stats.CountCorrectChars(s.UserInput, s.Text), elapsed.Seconds())
	s.Accuracy = stats.CalculateAccuracy(s.Typed(), s.Errors.Len())
	s.ErrorCount = s.Errors.Len()

	bucket := s.Config.Difficulty
	trackable := s.Config.Mode == model.ModePassage && bucket.Trackable()
	prev := e.bests[bucket]
	if trackable {
		switch {
		case prev == nil:
			s.WasFirstTest = true
		case s.WPM > prev.WPM:
			s.WasNewHighScore = true
		}
		if s.WasFirstTest || s.WasNewHighScore {
			bests := e.bests.Clone()
			bests[bucket] = &model.Best{WPM: s.WPM, Accuracy: s.Accuracy, Date: end}
			e.bests = bests
		}
	}
	if prev != nil && prev.WPM > 0 {
		s.PreviousBestWPM = prev.WPM
		s.HasPreviousBest = true
	}

	s.Status = StatusFinished
	s.TimerCount = int(math.Round(elapsed.Seconds()))
	e.session = s

	outcome := Outcome{
		Config:          s.Config,
		Bucket:          bucket,
		Trackable:       trackable,
		WPM:             s.WPM,
		Accuracy:        s.Accuracy,
		ErrorCount:      s.ErrorCount,
		Typed:           s.Typed(),
		Elapsed:         elapsed,
		StartTime:       s.StartTime,
		EndTime:         end,
		WasNewHighScore: s.WasNewHighScore,
		WasFirstTest:    s.WasFirstTest,
		PreviousBestWPM: s.PreviousBestWPM,
		HasPreviousBest: s.HasPreviousBest,
	}
	for _, l := range e.listeners {
		l(outcome)
	}
}
