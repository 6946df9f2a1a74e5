package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroup_Creator_Is_Always_Member(t *testing.T) {
	req := require.New(t)

	group := NewGroup("g1", "gophers", "alice", time.Now().UTC())

	req.True(group.IsMember("alice"))
	req.False(group.IsMember("bob"))
}

func TestGroup_AddMember_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	group := NewGroup("g1", "gophers", "alice", time.Now().UTC())

	group.AddMember("bob")
	group.AddMember("bob")

	req.Len(group.Members, 2)
}

func TestGroup_RemoveMember(t *testing.T) {
	req := require.New(t)
	group := NewGroup("g1", "gophers", "alice", time.Now().UTC())
	group.AddMember("bob")

	req.True(group.RemoveMember("bob"))
	req.False(group.IsMember("bob"))

	// Unknown members and the creator are never removed
	req.False(group.RemoveMember("ghost"))
	req.False(group.RemoveMember("alice"))
	req.True(group.IsMember("alice"))
}

func TestMessage_Classification(t *testing.T) {
	req := require.New(t)

	private := Message{Sender: "alice", Receiver: "bob"}
	req.True(private.IsPrivate())
	req.False(private.IsGroup())

	grouped := Message{Sender: "alice", GroupID: "g1"}
	req.True(grouped.IsGroup())
	req.False(grouped.IsPrivate())

	ambiguous := Message{Sender: "alice", Receiver: "bob", GroupID: "g1"}
	req.False(ambiguous.IsPrivate())
	req.False(ambiguous.IsGroup())
}
