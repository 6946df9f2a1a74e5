package runtime

import (
	"chat-hub/contract"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const shardCount = 16

// shard owns the sessions of the identities hashing into it. Mutations
// for unrelated identities land on different shards and never contend;
// reads take the shard RLock only.
type shard struct {
	mu         sync.RWMutex
	byIdentity map[string]map[uuid.UUID]*Session
}

// Registry is the single source of truth for which identities have
// live connections. It is never exposed as a raw map; every consumer
// goes through the operations below.
type Registry struct {
	shards [shardCount]*shard

	idsMu sync.RWMutex
	ids   map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	r := &Registry{ids: make(map[uuid.UUID]*Session)}
	for i := range r.shards {
		r.shards[i] = &shard{byIdentity: make(map[string]map[uuid.UUID]*Session)}
	}
	return r
}

func (r *Registry) shardFor(identity string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return r.shards[h.Sum32()%shardCount]
}

// Register adds a session for the identity. It only rejects a
// malformed handle; an identity may hold any number of concurrent
// sessions (multi-device).
func (r *Registry) Register(identity string, sink contract.EventSink) (*Session, error) {
	if sink == nil {
		return nil, fmt.Errorf("nil transport handle for %q", identity)
	}

	session := newSession(identity, sink)

	sh := r.shardFor(identity)
	sh.mu.Lock()
	sessions, ok := sh.byIdentity[identity]
	if !ok {
		sessions = make(map[uuid.UUID]*Session)
		sh.byIdentity[identity] = sessions
	}
	sessions[session.ID] = session
	sh.mu.Unlock()

	r.idsMu.Lock()
	r.ids[session.ID] = session
	r.idsMu.Unlock()

	return session, nil
}

// Unregister removes a session and all its subscriptions. Idempotent:
// unknown or already-removed IDs are a no-op, and the returned flag is
// true for exactly one caller per session.
func (r *Registry) Unregister(sessionID uuid.UUID) (*Session, bool) {
	r.idsMu.RLock()
	session, ok := r.ids[sessionID]
	r.idsMu.RUnlock()
	if !ok || !session.close() {
		return nil, false
	}

	sh := r.shardFor(session.Identity)
	sh.mu.Lock()
	if sessions, ok := sh.byIdentity[session.Identity]; ok {
		delete(sessions, sessionID)
		// No empty buckets left behind, sessions come and go a lot.
		if len(sessions) == 0 {
			delete(sh.byIdentity, session.Identity)
		}
	}
	sh.mu.Unlock()

	r.idsMu.Lock()
	delete(r.ids, sessionID)
	r.idsMu.Unlock()

	return session, true
}

// SessionsFor returns the currently live handles of an identity.
// Handles concurrently being torn down are filtered out.
func (r *Registry) SessionsFor(identity string) []*Session {
	sh := r.shardFor(identity)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	var live []*Session
	for _, session := range sh.byIdentity[identity] {
		if session.Alive() {
			live = append(live, session)
		}
	}
	return live
}

func (r *Registry) IsOnline(identity string) bool {
	return len(r.SessionsFor(identity)) > 0
}

// PublicSubscribers snapshots every live session subscribed to the
// public presence topic, across all shards.
func (r *Registry) PublicSubscribers() []*Session {
	var subscribers []*Session
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, sessions := range sh.byIdentity {
			for _, session := range sessions {
				if session.Alive() && session.SubscribedTo(TopicPublic) {
					subscribers = append(subscribers, session)
				}
			}
		}
		sh.mu.RUnlock()
	}
	return subscribers
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.idsMu.RLock()
	defer r.idsMu.RUnlock()
	return len(r.ids)
}
