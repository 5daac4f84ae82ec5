package realtime

import (
	"errors"
	"sync"

	"github.com/atendimento/crm-dashboard/internal/model"
)

var (
	// ErrHubClosed is returned when registering on a closed hub.
	ErrHubClosed = errors.New("hub closed")
	// ErrSessionClosed is returned when a session closed during its handshake.
	ErrSessionClosed = errors.New("session closed")
)

// Session is one connected dashboard. Events are read from Events in the
// order they were published.
type Session struct {
	id        string
	transport string

	mu      sync.Mutex
	ready   bool
	closed  bool
	pending []model.Event
	send    chan model.Event
	done    chan struct{}
}

func newSession(id, transport string, buffer int) *Session {
	return &Session{
		id:        id,
		transport: transport,
		send:      make(chan model.Event, buffer),
		done:      make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Events yields queued events.
func (s *Session) Events() <-chan model.Event { return s.send }

// Done is closed when the session has been unregistered.
func (s *Session) Done() <-chan struct{} { return s.done }

// start queues the init event followed by whatever arrived during the handshake.
func (s *Session) start(initEvt model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if !s.push(initEvt) {
		return false
	}
	for _, evt := range s.pending {
		if !s.push(evt) {
			return false
		}
	}
	s.pending = nil
	s.ready = true
	return true
}

func (s *Session) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// enqueue reports false when the session cannot keep up.
func (s *Session) enqueue(evt model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	if !s.ready {
		if len(s.pending) >= cap(s.send) {
			return false
		}
		s.pending = append(s.pending, evt)
		return true
	}
	return s.push(evt)
}

// push must be called with mu held.
func (s *Session) push(evt model.Event) bool {
	select {
	case s.send <- evt:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	close(s.done)
}
