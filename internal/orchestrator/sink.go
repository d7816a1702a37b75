package orchestrator

import (
	"sync"

	"github.com/hemtt-go/hemtt/internal/diag"
)

// Sink is the pipeline's thread-safe diagnostic collector (spec.md §5
// "Diagnostic sink: thread-safe; appends are atomic; drains are done by
// the orchestrator at hook boundaries").
type Sink struct {
	mu    sync.Mutex
	diags []diag.Diagnostic
}

// NewSink creates an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Push appends diags, safe for concurrent callers.
func (s *Sink) Push(diags ...diag.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, diags...)
}

// Drain returns every diagnostic accumulated so far, sorted by source
// path then span (spec.md §5's merge-order guarantee), and clears the
// sink.
func (s *Sink) Drain() []diag.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.diags
	s.diags = nil
	diag.Sort(out)
	return out
}
