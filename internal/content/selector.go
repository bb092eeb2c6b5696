package content

import (
	"context"
	"sync"
)

// Selector tracks the current directive for interactive selection.
type Selector struct {
	resolver Resolver

	mu      sync.Mutex
	seq     uint64
	current Directive
	has     bool
}

// NewSelector wraps resolver.
func NewSelector(resolver Resolver) *Selector {
	return &Selector{resolver: resolver}
}

// Select resolves sel. The boolean is false when a newer Select started
// before this one finished; the stale directive is returned but not adopted.
func (s *Selector) Select(ctx context.Context, sel Selection) (Directive, bool) {
	s.mu.Lock()
	s.seq++
	mine := s.seq
	s.mu.Unlock()

	d := s.resolver.Resolve(ctx, sel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if mine != s.seq {
		return d, false
	}
	s.current = d
	s.has = true
	return d, true
}

// Current returns the adopted directive.
func (s *Selector) Current() (Directive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.has
}

// Reset forgets the current directive and supersedes in-flight selections.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = Directive{}
	s.has = false
}
