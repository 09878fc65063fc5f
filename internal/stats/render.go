package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/tapixo/internal/model"
)

const terminalWidthBackup = 80

// RenderHistory prints results newest first.
func RenderHistory(w io.Writer, results []model.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No tests found.")
		return err
	}
	headers := []string{"Date", "WPM", "Acc", "Errors", "Time", "Difficulty", "Mode", "Category", "Flag"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		flag := ""
		if r.Rejected {
			flag = fmt.Sprintf("rejected (%.2f)", r.CheatScore)
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d", r.ErrorCount),
			FormatTime(r.DurationSec),
			string(r.Difficulty),
			string(r.Mode),
			categoryLabel(r),
			flag,
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}))
}

// RenderLeaderboard prints ranked entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No ranked scores yet.")
		return err
	}
	headers := []string{"#", "Player", "WPM", "Acc", "Date"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Rank),
			e.Username,
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%d%%", e.Accuracy),
			e.Date.Local().Format("2006-01-02"),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true}))
}

// RenderSummary prints overview groups followed by a WPM trend sparkline sized to the terminal.
func RenderSummary(w io.Writer, summaries []Summary, wpms []float64) error {
	headers := []string{"Group", "Tests", "Best WPM", "Avg WPM", "Avg Acc"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		if s.Tests == 0 {
			continue
		}
		rows = append(rows, []string{
			s.Label,
			fmt.Sprintf("%d", s.Tests),
			fmt.Sprintf("%d", s.MaxWPM),
			fmt.Sprintf("%.1f", s.AvgWPM),
			fmt.Sprintf("%d%%", s.AvgAccuracy),
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No tests found.")
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})); err != nil {
		return err
	}
	if len(wpms) < 2 {
		return nil
	}
	width := TerminalWidth() - len("Trend ")
	if width > 0 && len(wpms) > width {
		wpms = wpms[len(wpms)-width:]
	}
	_, err := fmt.Fprintf(w, "\nTrend %s\n", Sparkline(MovingAverage(wpms, 3)))
	return err
}

// TerminalWidth returns the stdout width, or a fallback when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func categoryLabel(r model.Result) string {
	if r.Category == model.CategoryCode && r.Language != "" {
		return fmt.Sprintf("code/%s", r.Language)
	}
	return string(r.Category)
}

func writeLines(w io.Writer, lines []string) error {
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
