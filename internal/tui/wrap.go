package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/guard"
)

// wrongSpace stands in for a space that was typed over.
const wrongSpace = '\u2022'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes colors the target text against the input. Positions in errs
// that were later corrected keep a distinct style.
func buildStyledRunes(targetRunes, inputRunes []rune, cursorIndex int, errs engine.ErrorSet) []styledRune {
	word, hasWord := activeWord(targetRunes, inputRunes, cursorIndex)

	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		displayed := target
		style := pendingStyle
		if i < len(inputRunes) {
			switch got := inputRunes[i]; {
			case target == ' ' && got != ' ':
				displayed = wrongSpace
				style = incorrectStyle
			case got != target:
				style = incorrectStyle
			case errs.Has(i):
				style = correctedStyle
			default:
				style = correctStyle
			}
		} else if hasWord && word.contains(i) {
			style = currentWordStyle
		}
		if i == cursorIndex {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	return out
}

// wordRange is a half-open rune range of the target text.
type wordRange struct {
	start int
	end   int
}

func (w wordRange) contains(i int) bool {
	return i >= w.start && i < w.end
}

// activeWord finds the target word the cursor is in. It never reaches back
// past the input's locked boundary, so the highlight covers only what may
// still be retyped. A cursor resting on a space points at the next word.
func activeWord(targetRunes, inputRunes []rune, cursorIndex int) (wordRange, bool) {
	if cursorIndex < 0 || cursorIndex >= len(targetRunes) {
		return wordRange{}, false
	}
	start := cursorIndex
	if targetRunes[start] == ' ' {
		for start < len(targetRunes) && targetRunes[start] == ' ' {
			start++
		}
	} else {
		lock := guard.LockedBoundary(string(inputRunes))
		for start > lock && targetRunes[start-1] != ' ' {
			start--
		}
	}
	end := start
	for end < len(targetRunes) && targetRunes[end] != ' ' {
		end++
	}
	return wordRange{start: start, end: end}, end > start
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes greedily fills lines of the given width. Breaks fall on
// spaces, which are dropped at the break; a word wider than a line is split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var lines []string
	var line, gap []styledRune
	used := 0
	flush := func() {
		lines = append(lines, renderStyledRunes(line))
		line, used = line[:0], 0
	}
	place := func(item styledRune) {
		if used > 0 && used+item.width > width {
			flush()
		}
		line = append(line, item)
		used += item.width
	}

	for _, tok := range splitTokens(runes) {
		if tok[0].isSpace {
			gap = append(gap, tok...)
			continue
		}
		if used > 0 && used+totalWidth(gap)+totalWidth(tok) > width {
			flush()
		} else {
			for _, item := range gap {
				place(item)
			}
		}
		gap = gap[:0]
		for _, item := range tok {
			place(item)
		}
	}
	for _, item := range gap {
		if used+item.width > width {
			break
		}
		place(item)
	}
	flush()
	return strings.Join(lines, "\n")
}

// splitTokens groups runes into alternating runs of words and spaces.
func splitTokens(runes []styledRune) [][]styledRune {
	var tokens [][]styledRune
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j].isSpace == runes[i].isSpace {
			j++
		}
		tokens = append(tokens, runes[i:j])
		i = j
	}
	return tokens
}

func totalWidth(runes []styledRune) int {
	total := 0
	for _, item := range runes {
		total += item.width
	}
	return total
}
