package multiplayer

import (
	"sync"

	"github.com/google/uuid"
)

// SessionHandle is one connected front end as the hub and coordinator see
// it. Implementations hide the transport (an SSH program, a websocket).
type SessionHandle interface {
	ID() SessionID

	// Send queues evt for the front end without blocking the caller.
	Send(evt SessionEvent)

	// Done is closed once the front end has gone away.
	Done() <-chan struct{}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// DefaultEventBuffer is the queue length used when a session is created
// with a non-positive size.
const DefaultEventBuffer = 64

// ChannelSession is a SessionHandle backed by a buffered channel. The TUI
// reads it from a Bubble Tea command and the web layer pumps it into a
// websocket. A slow reader loses its oldest queued events first.
type ChannelSession struct {
	id     SessionID
	queue  chan SessionEvent
	closed chan struct{}

	mu   sync.Mutex // serialises drop-and-retry in Send
	once sync.Once
}

// NewChannelSession returns a session queueing up to size events.
func NewChannelSession(id SessionID, size int) *ChannelSession {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &ChannelSession{
		id:     id,
		queue:  make(chan SessionEvent, size),
		closed: make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID { return s.id }

// Send queues evt. Events sent after Close are discarded.
func (s *ChannelSession) Send(evt SessionEvent) {
	if s.isClosed() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case s.queue <- evt:
			return
		default:
		}
		select {
		case <-s.queue:
		default:
		}
	}
}

func (s *ChannelSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Events is the receive side of the queue. It is never closed; select on
// Done as well.
func (s *ChannelSession) Events() <-chan SessionEvent { return s.queue }

func (s *ChannelSession) Done() <-chan struct{} { return s.closed }

// Close ends the session. It may be called more than once.
func (s *ChannelSession) Close() {
	s.once.Do(func() { close(s.closed) })
}

// SessionRegistry maps session ids to live handles. It is safe for
// concurrent use.
type SessionRegistry struct {
	mu   sync.RWMutex
	byID map[SessionID]SessionHandle
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{byID: make(map[SessionID]SessionHandle)}
}

func (r *SessionRegistry) Register(s SessionHandle) {
	r.mu.Lock()
	r.byID[s.ID()] = s
	r.mu.Unlock()
}

func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// Get looks a session up by id.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
