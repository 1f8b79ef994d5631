package reconcile

import (
	"slices"
	"sync"

	"github.com/rpggio/workdesk/internal/gateway"
)

// State is the render state of a screen.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	// StateError is a ready render that carries warnings; data is still shown.
	StateError State = "error"
)

// Warning is a non-fatal problem met while loading. The screen still renders
// from the cache.
type Warning struct {
	Resource gateway.Resource `json:"resource"`
	Kind     gateway.Kind     `json:"kind,omitempty"`
	Message  string           `json:"message"`
}

// View is a published screen state.
type View[T any] struct {
	State      State     `json:"state"`
	Data       T         `json:"data"`
	Warnings   []Warning `json:"warnings,omitempty"`
	Generation uint64    `json:"generation"`
	// Superseded is set when a newer load started before this one finished;
	// the screen kept the newer state.
	Superseded bool `json:"superseded,omitempty"`
}

// AuthRequired reports whether any warning came from rejected credentials.
func (v View[T]) AuthRequired() bool {
	return slices.ContainsFunc(v.Warnings, func(w Warning) bool { return w.Kind == gateway.KindAuth })
}

// Screen is the Loading -> Ready state machine of one screen. Every load takes
// a generation number and only the newest generation may publish.
type Screen[T any] struct {
	mu       sync.Mutex
	gen      uint64
	state    State
	data     T
	warnings []Warning
}

// Begin enters Loading and returns the generation of the new load.
func (s *Screen[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateLoading
	return s.gen
}

// Finish publishes data for gen. It returns false without touching the screen
// when a newer load has begun since.
func (s *Screen[T]) Finish(gen uint64, data T, warnings []Warning) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.data = data
	s.warnings = warnings
	s.state = StateReady
	if len(warnings) > 0 {
		s.state = StateError
	}
	return true
}

// Refresh replaces the data of the current generation without starting a new
// load. A load in flight keeps its generation and still publishes; the screen
// stays Loading until it does.
func (s *Screen[T]) Refresh(data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	if s.state == "" {
		s.state = StateReady
	}
}

// View returns the current state.
func (s *Screen[T]) View() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	if state == "" {
		state = StateLoading
	}
	return View[T]{State: state, Data: s.data, Warnings: slices.Clone(s.warnings), Generation: s.gen}
}

func publish[T any](s *Screen[T], gen uint64, data T, warnings []Warning) View[T] {
	applied := s.Finish(gen, data, warnings)
	v := View[T]{State: StateReady, Data: data, Warnings: warnings, Generation: gen, Superseded: !applied}
	if len(warnings) > 0 {
		v.State = StateError
	}
	return v
}
