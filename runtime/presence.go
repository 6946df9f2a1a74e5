package runtime

import (
	"chat-hub/domain"
	"sync"
	"time"
)

// PresenceTracker collapses the session count of an identity into a
// single ONLINE/OFFLINE state. Concurrent sessions are reference
// counted: only the 0->1 and 1->0 transitions are reported, so
// multi-device use and reconnect races never emit spurious events.
type PresenceTracker struct {
	mu         sync.Mutex
	refs       map[string]int
	lastChange map[string]time.Time
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		refs:       make(map[string]int),
		lastChange: make(map[string]time.Time),
	}
}

// SessionOpened reports whether the identity just came online.
func (p *PresenceTracker) SessionOpened(identity string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs[identity]++
	if p.refs[identity] == 1 {
		p.lastChange[identity] = time.Now().UTC()
		return true
	}
	return false
}

// SessionClosed reports whether the identity just went offline, which
// happens exactly once, when its last session is unregistered.
func (p *PresenceTracker) SessionClosed(identity string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs[identity] == 0 {
		// Guard against double close, Unregister is idempotent upstream.
		return false
	}
	p.refs[identity]--
	if p.refs[identity] == 0 {
		delete(p.refs, identity)
		p.lastChange[identity] = time.Now().UTC()
		return true
	}
	return false
}

func (p *PresenceTracker) Status(identity string) domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs[identity] > 0 {
		return domain.StatusOnline
	}
	return domain.StatusOffline
}

func (p *PresenceTracker) LastChange(identity string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.lastChange[identity]
	return at, ok
}
