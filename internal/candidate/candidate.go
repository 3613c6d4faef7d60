// Package candidate generates phrase candidates and tracks which phrases a
// run has already probed.
//
// A Candidate is an ordered selection of k distinct words from the loaded
// wordlist. The canonical form is the space-joined phrase; every component
// that stores, deduplicates, or derives from a candidate goes through that
// one string.
package candidate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/nirvanameow/seedsweep/internal/vocab"
)

// Candidate is one unit of generated work: an ordered word selection.
type Candidate struct {
	words []string
}

// FromWords builds a Candidate directly. Used by tests and replay tooling;
// Generate is the production path.
func FromWords(words ...string) Candidate {
	cp := make([]string, len(words))
	copy(cp, words)
	return Candidate{words: cp}
}

// Phrase returns the canonical space-joined form.
func (c Candidate) Phrase() string {
	return strings.Join(c.words, " ")
}

// Words returns a copy of the word sequence.
func (c Candidate) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

// Len returns the number of words in the candidate.
func (c Candidate) Len() int {
	return len(c.words)
}

// TriedSet is an immutable snapshot of phrases already recorded as tried.
// Workers consult it read-only; it never observes writes made after the
// snapshot was taken, so a duplicate probe within a run is possible but a
// duplicate durable record is not (the store dedupes on phrase).
type TriedSet struct {
	phrases map[string]struct{}
}

// NewTriedSet builds a snapshot from canonical phrases.
func NewTriedSet(phrases []string) TriedSet {
	m := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		m[p] = struct{}{}
	}
	return TriedSet{phrases: m}
}

// Has reports whether the canonical phrase is in the snapshot.
func (s TriedSet) Has(phrase string) bool {
	_, ok := s.phrases[phrase]
	return ok
}

// Len returns the snapshot size.
func (s TriedSet) Len() int {
	return len(s.phrases)
}

// Source produces uniformly-random k-of-N candidates from a wordlist.
//
// Source is not safe for concurrent use: the RNG is unguarded. Give each
// worker its own Source.
type Source struct {
	list *vocab.List
	k    int
	rng  *rand.Rand
	// slate holds 0..N-1; Generate partially shuffles it in place instead
	// of drawing-until-unique, which would never terminate for k > N.
	slate []int
}

// NewSource creates a Source drawing k distinct words from list.
// k must satisfy 1 <= k <= list.Len(); anything else is a configuration
// error and fails here, before any worker starts.
func NewSource(list *vocab.List, k int, rng *rand.Rand) (*Source, error) {
	if k < 1 {
		return nil, fmt.Errorf("phrase length %d: must be at least 1", k)
	}
	if k > list.Len() {
		return nil, fmt.Errorf("phrase length %d exceeds wordlist size %d", k, list.Len())
	}
	slate := make([]int, list.Len())
	for i := range slate {
		slate[i] = i
	}
	return &Source{list: list, k: k, rng: rng, slate: slate}, nil
}

// Generate returns a uniformly-random candidate of k distinct words.
// Partial Fisher-Yates: after k swap steps the first k slate entries are a
// uniform k-selection without repetition.
func (s *Source) Generate() Candidate {
	n := len(s.slate)
	words := make([]string, s.k)
	for i := 0; i < s.k; i++ {
		j := i + s.rng.Intn(n-i)
		s.slate[i], s.slate[j] = s.slate[j], s.slate[i]
		words[i] = s.list.Word(s.slate[i])
	}
	return Candidate{words: words}
}

// Known reports whether c was already tried according to the snapshot.
// Pure membership check; no state is mutated.
func Known(c Candidate, tried TriedSet) bool {
	return tried.Has(c.Phrase())
}
