package testutil

import (
	"strings"
	"sync"

	"github.com/nirvanameow/seedsweep/internal/candidate"
)

// ScriptedSource replays a fixed sequence of phrases, cycling when
// exhausted. Safe for concurrent use so two workers may share one script.
type ScriptedSource struct {
	mu         sync.Mutex
	candidates []candidate.Candidate
	idx        int
}

// NewScriptedSource builds a source from space-separated phrases.
func NewScriptedSource(phrases ...string) *ScriptedSource {
	cands := make([]candidate.Candidate, len(phrases))
	for i, p := range phrases {
		cands[i] = candidate.FromWords(strings.Fields(p)...)
	}
	return &ScriptedSource{candidates: cands}
}

// Generate implements worker.Generator.
func (s *ScriptedSource) Generate() candidate.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.candidates[s.idx%len(s.candidates)]
	s.idx++
	return c
}
