// Package anticheat scores keystroke timing for signs of automated input.
//
// The score is built from two checks over inter-key intervals. The first
// looks at dispersion: human typing carries irreducible jitter, so a nearly
// constant interval is treated as a fixed-rate bot. The second compares
// latency on common digraphs against biomechanically awkward ones; real
// typists are measurably slower on the awkward pairs. Short trials always
// score zero.
//
// The digraph sets assume English text on a QWERTY layout.
package anticheat

import (
	"math"
	"strings"
)

// DeleteKey marks a keystroke that removed input. Its intervals count toward
// dispersion but it never forms a digraph.
const DeleteKey = "Backspace"

// Keystroke is one observed key press with a monotonic millisecond timestamp.
type Keystroke struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

const (
	// MinKeystrokes is the smallest log that is scored at all.
	MinKeystrokes = 50
	// MinFlowIntervals is the smallest number of flow intervals that is scored.
	MinFlowIntervals = 20
	// PauseMs drops an interval entirely.
	PauseMs = 2000
	// FlowMs is the upper bound of an interval counted toward dispersion.
	FlowMs = 500

	conclusiveSDMs = 8.0
	suspiciousSDMs = 15.0

	// digraph analysis is skipped for slow typists whose latency is dominated by search time
	digraphMinWPM = 45.0
	minFastPairs  = 5
	minSlowPairs  = 3

	uniformRatio    = 1.10
	suspiciousRatio = 1.20

	conclusiveSDScore    = 1.0
	suspiciousSDScore    = 0.6
	uniformRatioScore    = 0.7
	suspiciousRatioScore = 0.3
)

var fastDigraphs = setOf(
	"th", "he", "in", "er", "an", "re", "on", "at", "en", "nd", "ti", "es", "or", "te", "of", "ed",
)

var slowDigraphs = setOf(
	"za", "qx", "qz", "zw", "wx", "xq", "xz", "zq", "xv", "bx", "kj", "vp", "qy", "mj", "fz",
)

// Report carries the intermediate values behind a score.
type Report struct {
	Score float64

	Keystrokes    int
	FlowIntervals int
	MeanFlowMs    float64
	StdDevMs      float64
	EstimatedWPM  float64
	DispersionHit float64

	DigraphChecked bool
	FastPairs      int
	SlowPairs      int
	DigraphRatio   float64
	DigraphHit     float64
}

// Score returns the bot likelihood in [0,1] for a finished trial's keystrokes.
func Score(keystrokes []Keystroke) float64 {
	return Analyze(keystrokes).Score
}

// Analyze scores keystrokes and reports how the score was reached.
func Analyze(keystrokes []Keystroke) Report {
	report := Report{Keystrokes: len(keystrokes)}
	if len(keystrokes) < MinKeystrokes {
		return report
	}

	var flow []float64
	var fast, slow []float64
	for i := 1; i < len(keystrokes); i++ {
		delta := keystrokes[i].Timestamp - keystrokes[i-1].Timestamp
		if delta >= PauseMs {
			continue
		}
		if delta < FlowMs {
			flow = append(flow, float64(delta))
		}
		if keystrokes[i-1].Key == DeleteKey || keystrokes[i].Key == DeleteKey {
			continue
		}
		pair := strings.ToLower(keystrokes[i-1].Key + keystrokes[i].Key)
		if _, ok := fastDigraphs[pair]; ok {
			fast = append(fast, float64(delta))
		} else if _, ok := slowDigraphs[pair]; ok {
			slow = append(slow, float64(delta))
		}
	}

	report.FlowIntervals = len(flow)
	if len(flow) < MinFlowIntervals {
		return report
	}

	report.MeanFlowMs = mean(flow)
	report.StdDevMs = stdDev(flow, report.MeanFlowMs)
	if report.MeanFlowMs > 0 {
		report.EstimatedWPM = 60000 / (report.MeanFlowMs * 5)
	} else {
		report.EstimatedWPM = math.Inf(1)
	}

	switch {
	case report.StdDevMs < conclusiveSDMs:
		report.DispersionHit = conclusiveSDScore
	case report.StdDevMs < suspiciousSDMs:
		report.DispersionHit = suspiciousSDScore
	}

	if digraphEligible(report.EstimatedWPM) {
		report.FastPairs = len(fast)
		report.SlowPairs = len(slow)
		if len(fast) >= minFastPairs && len(slow) >= minSlowPairs {
			report.DigraphChecked = true
			report.DigraphRatio = ratio(mean(slow), mean(fast))
			switch {
			case report.DigraphRatio < uniformRatio:
				report.DigraphHit = uniformRatioScore
			case report.DigraphRatio < suspiciousRatio:
				report.DigraphHit = suspiciousRatioScore
			}
		}
	}

	report.Score = math.Min(1.0, report.DispersionHit+report.DigraphHit)
	return report
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mu) * (v - mu)
	}
	return math.Sqrt(sq / float64(len(values)))
}

func digraphEligible(wpm float64) bool {
	return wpm > digraphMinWPM
}

// ratio treats a zero-latency fast set as perfectly uniform when slow pairs are also instant.
func ratio(slowMean, fastMean float64) float64 {
	if fastMean == 0 {
		if slowMean == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return slowMean / fastMean
}

func setOf(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}
