// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// charsPerWord is the standard typing-test word length.
const charsPerWord = 5.0

// CountCorrectChars counts positions where input matches target, up to the shorter of the two.
func CountCorrectChars(input, target string) int {
	in := []rune(input)
	tg := []rune(target)
	n := len(in)
	if len(tg) < n {
		n = len(tg)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if in[i] == tg[i] {
			correct++
		}
	}
	return correct
}

// CountCorrectWords counts whitespace-separated words typed exactly right.
func CountCorrectWords(input, target string) int {
	inWords := strings.Fields(input)
	targetWords := strings.Fields(target)
	correct := 0
	for i := 0; i < len(inWords) && i < len(targetWords); i++ {
		if inWords[i] == targetWords[i] {
			correct++
		}
	}
	return correct
}

// CalculateWPM returns rounded words per minute for correct characters over elapsed seconds.
func CalculateWPM(correctChars int, elapsedSec float64) int {
	if elapsedSec <= 0 {
		return 0
	}
	words := float64(correctChars) / charsPerWord
	minutes := elapsedSec / 60.0
	return roundHalfUp(words / minutes)
}

// CalculateAccuracy returns the rounded percentage of typed characters that were never wrong.
// Empty input is 100%.
func CalculateAccuracy(typed, errors int) int {
	if typed <= 0 {
		return 100
	}
	acc := roundHalfUp(float64(typed-errors) / float64(typed) * 100)
	if acc < 0 {
		return 0
	}
	if acc > 100 {
		return 100
	}
	return acc
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
