package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrParse indicates command arguments could not be tokenized, usually an
// unbalanced quote.
var ErrParse = errors.New("could not parse arguments")

// splitCommand separates "name args..." after the prefix has been removed.
func splitCommand(s string) (name, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return strings.ToLower(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return strings.ToLower(s), ""
}

// tokenize splits an argument line with shell quoting rules, so
// `"Alice Smith" 20` yields two values.
func tokenize(line string) ([]string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return words, nil
}

// parseRow reads a 1-indexed row number.
func parseRow(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
