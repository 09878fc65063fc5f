// Package recorder persists finished trials behind the anti-cheat gate.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/model"
)

// DefaultThreshold is the cheat score above which a result is rejected.
const DefaultThreshold = 0.7

// Store is the persistence the recorder writes to.
type Store interface {
	RecordResult(ctx context.Context, result model.Result, best *model.Best) (model.Result, bool, error)
}

// Submission is one finished trial.
type Submission struct {
	User       model.User
	Outcome    engine.Outcome
	Keystrokes []anticheat.Keystroke
}

// Verdict is what the player is shown after a submission.
type Verdict struct {
	Result   model.Result
	Report   anticheat.Report
	Rejected bool
	// BestRaised reports whether the stored personal best changed.
	BestRaised bool

	WasNewHighScore bool
	WasFirstTest    bool
	PreviousBestWPM int
	HasPreviousBest bool
}

// Recorder scores and stores trial results.
type Recorder struct {
	store     Store
	threshold float64
	logger    *slog.Logger
}

// New returns a Recorder. A threshold outside (0,1] uses DefaultThreshold.
func New(store Store, threshold float64, logger *slog.Logger) *Recorder {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Recorder{store: store, threshold: threshold, logger: logger}
}

// Threshold returns the effective rejection threshold.
func (r *Recorder) Threshold() float64 {
	return r.threshold
}

// Submit scores the keystrokes and persists the result. Rejected results are
// kept in history but never raise a best, and their celebration flags are
// cleared. The computed stats are returned even when storing fails.
func (r *Recorder) Submit(ctx context.Context, sub Submission) (Verdict, error) {
	out := sub.Outcome
	report := anticheat.Analyze(sub.Keystrokes)
	rejected := report.Score > r.threshold

	created := out.EndTime
	if created.IsZero() {
		created = time.Now()
	}
	result := model.Result{
		UserID:      sub.User.ID,
		WPM:         out.WPM,
		Accuracy:    out.Accuracy,
		ErrorCount:  out.ErrorCount,
		DurationSec: int(math.Round(out.Elapsed.Seconds())),
		Difficulty:  out.Config.Difficulty,
		Mode:        out.Config.Mode,
		Category:    out.Config.Category,
		Language:    out.Config.Language,
		CheatScore:  report.Score,
		Rejected:    rejected,
		CreatedAt:   created,
	}

	verdict := Verdict{
		Result:          result,
		Report:          report,
		Rejected:        rejected,
		PreviousBestWPM: out.PreviousBestWPM,
		HasPreviousBest: out.HasPreviousBest,
	}
	if !rejected {
		verdict.WasNewHighScore = out.WasNewHighScore
		verdict.WasFirstTest = out.WasFirstTest
	}

	var best *model.Best
	if out.Trackable && !rejected {
		best = &model.Best{WPM: out.WPM, Accuracy: out.Accuracy, Date: created}
	}

	logger := r.logger.With("user", sub.User.Username, "difficulty", string(result.Difficulty), "mode", string(result.Mode))
	if rejected {
		logger.Warn("result rejected",
			"cheat_score", report.Score,
			"stddev_ms", report.StdDevMs,
			"digraph_ratio", report.DigraphRatio,
			"keystrokes", report.Keystrokes)
	}

	stored, raised, err := r.store.RecordResult(ctx, result, best)
	if err != nil {
		logger.Error("store result", "err", err)
		return verdict, fmt.Errorf("record result: %w", err)
	}
	verdict.Result = stored
	verdict.BestRaised = raised
	logger.Info("result saved",
		"id", stored.ID,
		"wpm", stored.WPM,
		"accuracy", stored.Accuracy,
		"cheat_score", report.Score,
		"best_raised", raised)
	return verdict, nil
}
