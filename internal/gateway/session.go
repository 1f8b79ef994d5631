package gateway

import (
	"sync"
	"time"
)

// Auth holds the optional credentials attached to every outbound call.
type Auth struct {
	APIKey string
	Token  string
}

// EndpointStatus is the availability state of one resource.
type EndpointStatus string

const (
	StatusUnknown     EndpointStatus = "unknown"
	StatusAvailable   EndpointStatus = "available"
	StatusUnavailable EndpointStatus = "unavailable"
)

type endpointState struct {
	status EndpointStatus
	until  time.Time
}

// Session is the per-user gateway state: credentials plus the availability
// state machine of each resource. Sessions are independent, so one Client can
// serve many users.
type Session struct {
	mu        sync.Mutex
	auth      Auth
	endpoints map[Resource]*endpointState
}

// NewSession creates a session with the given credentials.
func NewSession(auth Auth) *Session {
	return &Session{
		auth:      auth,
		endpoints: make(map[Resource]*endpointState),
	}
}

// Auth returns the configured credentials.
func (s *Session) Auth() Auth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

// SetAuth replaces the credentials and clears every unavailability window,
// since failures under old credentials say nothing about the new ones.
func (s *Session) SetAuth(auth Auth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
	s.endpoints = make(map[Resource]*endpointState)
}

// Status reports the availability of a resource and, when unavailable, the
// time the window closes.
func (s *Session) Status(res Resource) (EndpointStatus, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.endpoints[res]
	if !ok {
		return StatusUnknown, time.Time{}
	}
	return st.status, st.until
}

// allow reports whether a call may be attempted at now.
func (s *Session) allow(res Resource, now time.Time) (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.endpoints[res]
	if !ok || st.status != StatusUnavailable {
		return true, time.Time{}
	}
	if now.Before(st.until) {
		return false, st.until
	}
	return true, time.Time{}
}

func (s *Session) markAvailable(res Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[res] = &endpointState{status: StatusAvailable}
}

func (s *Session) markUnavailable(res Resource, until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[res] = &endpointState{status: StatusUnavailable, until: until}
}
