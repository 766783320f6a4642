package transcript

import (
	"sync"
)

// Pair is one user utterance and the bot reply it received.
type Pair struct {
	User string `json:"user" yaml:"user"`
	Bot  string `json:"bot" yaml:"bot"`
}

// Transcript is an append-only, insertion-ordered list of pairs.
// There is no way to remove or reorder a pair once appended.
type Transcript struct {
	mu    sync.RWMutex
	pairs []Pair
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds p at the end and returns the new length.
func (t *Transcript) Append(p Pair) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pairs = append(t.pairs, p)
	return len(t.pairs)
}

// Pairs returns a copy of the stored pairs.
func (t *Transcript) Pairs() []Pair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Pair, len(t.pairs))
	copy(out, t.pairs)
	return out
}

// Len returns the number of pairs appended so far.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pairs)
}

// Last returns the most recent pair, if any.
func (t *Transcript) Last() (Pair, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.pairs) == 0 {
		return Pair{}, false
	}
	return t.pairs[len(t.pairs)-1], true
}
