// Package wordlist loads custom practice word lists.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmpty is returned when a list has no usable words.
var ErrEmpty = errors.New("word list is empty")

// LoadWords reads one word per line from path, keeping the words filter accepts.
// A nil filter keeps every single-token line.
func LoadWords(path string, filter FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if filter == nil {
		filter = singleToken
	}
	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !filter(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return words, nil
}
