package harness

import "math/rand"

// Selector chooses which action runs on a tick. Implementations must be
// safe for single-goroutine use only; the runner is the sole caller.
type Selector interface {
	// Pick returns an index in [0, n). n is always at least 1.
	Pick(n int) int
}

// UniformSelector picks uniformly at random. Picks are independent: there
// is no replacement tracking and repeats are expected.
type UniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector returns a uniform selector driven by rng.
func NewUniformSelector(rng *rand.Rand) *UniformSelector {
	return &UniformSelector{rng: rng}
}

// Pick returns a uniformly random index in [0, n).
func (s *UniformSelector) Pick(n int) int {
	return s.rng.Intn(n)
}

// SequentialSelector rotates through the action set in order, one action
// per tick. Fixed checklists (the API suite) use this.
type SequentialSelector struct {
	next int
}

// NewSequentialSelector returns a selector starting at index 0.
func NewSequentialSelector() *SequentialSelector {
	return &SequentialSelector{}
}

// Pick returns the next index in rotation.
func (s *SequentialSelector) Pick(n int) int {
	i := s.next % n
	s.next++
	return i
}
