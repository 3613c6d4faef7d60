// Package vocab loads and validates the wordlist candidates are drawn from.
//
// The wordlist is a newline-delimited file, one word per line. Words are
// NFKD-normalized and lowercased on load so phrase canonicalization and seed
// derivation agree on byte content. A bad wordlist is a startup-fatal
// configuration error; nothing in this package is recoverable at runtime.
package vocab

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// List is an immutable, ordered wordlist.
type List struct {
	words []string
	index map[string]int
}

// Load reads a newline-delimited wordlist from path.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load wordlist %s: %w", path, err)
	}
	l, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("load wordlist %s: %w", path, err)
	}
	return l, nil
}

// Parse builds a List from newline-delimited text.
// Blank lines are skipped. Words are NFKD-normalized and lowercased.
// Duplicate words (after normalization) are rejected: a duplicate would
// make distinct index selections collide into the same phrase.
func Parse(text string) (*List, error) {
	var words []string
	index := make(map[string]int)

	for i, line := range strings.Split(text, "\n") {
		w := strings.TrimSpace(line)
		if w == "" {
			continue
		}
		w = strings.ToLower(norm.NFKD.String(w))
		if strings.ContainsAny(w, " \t") {
			return nil, fmt.Errorf("line %d: word %q contains whitespace", i+1, w)
		}
		if prev, ok := index[w]; ok {
			return nil, fmt.Errorf("line %d: duplicate word %q (first at entry %d)", i+1, w, prev+1)
		}
		index[w] = len(words)
		words = append(words, w)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("wordlist is empty")
	}
	return &List{words: words, index: index}, nil
}

// Word returns the word at position i.
func (l *List) Word(i int) string {
	return l.words[i]
}

// Len returns the number of words in the list.
func (l *List) Len() int {
	return len(l.words)
}

// Words returns a copy of the full list in order.
func (l *List) Words() []string {
	out := make([]string, len(l.words))
	copy(out, l.words)
	return out
}

// Contains reports whether w (already normalized) is in the list.
func (l *List) Contains(w string) bool {
	_, ok := l.index[w]
	return ok
}
