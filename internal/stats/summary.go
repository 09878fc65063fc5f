package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/tapixo/internal/model"
)

// Summary aggregates accepted results for one group of tests.
type Summary struct {
	Label       string
	Tests       int
	MaxWPM      int
	AvgWPM      float64
	AvgAccuracy int
}

// DayCount is the number of tests taken on one calendar day.
type DayCount struct {
	Date  time.Time
	Count int
}

// Summarize builds the overview groups: all tests, each mode, and each base difficulty.
// Rejected results are left out.
func Summarize(results []model.Result) []Summary {
	groups := []struct {
		label string
		keep  func(model.Result) bool
	}{
		{"All", func(model.Result) bool { return true }},
		{"Timed", func(r model.Result) bool { return r.Mode == model.ModeTimed }},
		{"Passage", func(r model.Result) bool { return r.Mode == model.ModePassage }},
		{"Easy", func(r model.Result) bool { return r.Difficulty == model.DifficultyEasy }},
		{"Medium", func(r model.Result) bool { return r.Difficulty == model.DifficultyMedium }},
		{"Hard", func(r model.Result) bool { return r.Difficulty == model.DifficultyHard }},
		{"Ranked", func(r model.Result) bool { return r.Difficulty == model.DifficultyRanked }},
	}
	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		s := Summary{Label: g.label}
		var wpmSum, accSum int
		for _, r := range results {
			if r.Rejected || !g.keep(r) {
				continue
			}
			s.Tests++
			s.MaxWPM = max(s.MaxWPM, r.WPM)
			wpmSum += r.WPM
			accSum += r.Accuracy
		}
		if s.Tests > 0 {
			s.AvgWPM = float64(wpmSum) / float64(s.Tests)
			s.AvgAccuracy = roundHalfUp(float64(accSum) / float64(s.Tests))
		}
		out = append(out, s)
	}
	return out
}

// Activity counts tests per local day for the last days ending at now, oldest first.
func Activity(results []model.Result, now time.Time, days int) []DayCount {
	if days <= 0 {
		return nil
	}
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(days - 1))
	counts := make(map[time.Time]int, days)
	for _, r := range results {
		day := startOfDay(r.CreatedAt.In(now.Location()))
		if day.Before(first) || day.After(today) {
			continue
		}
		counts[day]++
	}
	out := make([]DayCount, 0, days)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

// WPMSeries returns accepted WPM values in chronological order.
func WPMSeries(results []model.Result) []float64 {
	sorted := make([]model.Result, 0, len(results))
	for _, r := range results {
		if !r.Rejected {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	out := make([]float64, len(sorted))
	for i, r := range sorted {
		out[i] = float64(r.WPM)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
