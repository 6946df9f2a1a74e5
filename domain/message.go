// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeChat  MessageType = "chat"
	TypeJoin  MessageType = "join"
	TypeLeave MessageType = "leave"
)

// Message represents an immutable chat event. ID and CreatedAt are
// assigned by the message store at persistence time; presence
// notifications carry a synthetic ID and are never persisted.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Sender    string      `json:"sender"`
	Receiver  string      `json:"receiver,omitempty"`
	GroupID   string      `json:"group,omitempty"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Lang      string      `json:"lang,omitempty"`
	CreatedAt time.Time   `json:"at"`
}

// IsPrivate reports whether the message targets a single identity's queue.
func (m Message) IsPrivate() bool {
	return m.Receiver != "" && m.GroupID == ""
}

// IsGroup reports whether the message targets a group topic.
func (m Message) IsGroup() bool {
	return m.GroupID != "" && m.Receiver == ""
}
