// Package event defines the domain events flowing between the routing
// engine, the per-connection sinks and the background pipeline.
package event

import (
	"chat-hub/domain"
)

type DomainEvent interface {
	Name() string
}

// MessagePersisted is emitted after a chat message has been durably
// appended to the store. It is both the delivery payload pushed to
// connected sessions and the input of the search indexer.
type MessagePersisted struct {
	Message domain.Message
}

func (e MessagePersisted) Name() string { return "message.persisted" }

// PresenceChanged carries the synthetic join/leave notification
// broadcast on the public topic. It has no persistence requirement.
type PresenceChanged struct {
	Message domain.Message
}

func (e PresenceChanged) Name() string { return "presence.changed" }
