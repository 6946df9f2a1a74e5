package runtime

import (
	"chat-hub/contract"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TopicPublic is the broadcast destination for presence notifications.
// Every session is subscribed to it on connect (implicit join policy)
// and may opt out with an unsubscribe frame.
const TopicPublic = "public"

// Session is one live connection bound to an identity. The sink is the
// session's write capability; Alive doubles as the liveness flag
// checked before every delivery attempt.
type Session struct {
	ID        uuid.UUID
	Identity  string
	Sink      contract.EventSink
	CreatedAt time.Time

	closed atomic.Bool

	mu     sync.RWMutex
	topics map[string]struct{}
}

func newSession(identity string, sink contract.EventSink) *Session {
	return &Session{
		ID:        uuid.New(),
		Identity:  identity,
		Sink:      sink,
		CreatedAt: time.Now().UTC(),
		topics:    map[string]struct{}{TopicPublic: {}},
	}
}

func (s *Session) Alive() bool {
	return !s.closed.Load()
}

// close reports whether this call performed the transition, making
// every downstream cleanup exactly-once.
func (s *Session) close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) Subscribe(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic] = struct{}{}
}

func (s *Session) Unsubscribe(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, topic)
}

func (s *Session) SubscribedTo(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.topics[topic]
	return ok
}
