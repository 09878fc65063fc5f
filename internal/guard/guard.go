// Package guard restricts deletion while typing.
//
// Once a space is typed, everything up to and including it is locked: a user
// may only delete characters of the word in progress. This blocks bulk
// deletion such as select-all or repeated word-delete.
package guard

import "strings"

// LockedBoundary returns the rune index just after the last space in input, or 0 when there is none.
func LockedBoundary(input string) int {
	idx := strings.LastIndex(input, " ")
	if idx == -1 {
		return 0
	}
	return len([]rune(input[:idx])) + 1
}

// CanDelete reports whether the word in progress has any characters to delete.
func CanDelete(input string) bool {
	return len([]rune(input)) > LockedBoundary(input)
}

// Restrict returns the value to accept when input changes from old to next.
// Growing or equal-length values pass through; a shrinking value is clamped so it
// never cuts into the locked prefix of old.
func Restrict(old, next string) string {
	oldRunes := []rune(old)
	nextRunes := []rune(next)
	if len(nextRunes) >= len(oldRunes) {
		return next
	}
	boundary := LockedBoundary(old)
	if len(nextRunes) < boundary {
		return string(oldRunes[:boundary])
	}
	return next
}

// DeleteRune removes the last rune of input within the word in progress.
func DeleteRune(input string) string {
	runes := []rune(input)
	if len(runes) == 0 {
		return input
	}
	return Restrict(input, string(runes[:len(runes)-1]))
}

// DeleteWord removes the word in progress, as ctrl+w would, stopping at the locked boundary.
func DeleteWord(input string) string {
	runes := []rune(input)
	return Restrict(input, string(runes[:LockedBoundary(input)]))
}
