package ws

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseInbound_Valid_Frames(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name  string
		input string
		check func(frame InboundFrame)
	}{
		{
			name:  "Private send",
			input: `{"action":"send","receiver":"bob","content":"hi"}`,
			check: func(frame InboundFrame) {
				req.Equal(ActionSend, frame.Action)
				req.Equal("bob", frame.Receiver)
			},
		},
		{
			name:  "Group send",
			input: `{"action":"send_group","group":"g1","content":"hi all"}`,
			check: func(frame InboundFrame) {
				req.Equal(ActionSendGroup, frame.Action)
				req.Equal("g1", frame.Group)
			},
		},
		{
			name:  "Join",
			input: `{"action":"join"}`,
			check: func(frame InboundFrame) {
				req.Equal(ActionJoin, frame.Action)
			},
		},
		{
			name:  "Subscribe",
			input: `{"action":"subscribe","topic":"public"}`,
			check: func(frame InboundFrame) {
				req.Equal(ActionSubscribe, frame.Action)
				req.Equal("public", frame.Topic)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseInbound([]byte(tt.input))
			req.NoError(err)
			tt.check(frame)
		})
	}
}

func TestParseInbound_Malformed_Frames(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name  string
		input string
	}{
		{"Invalid JSON", `{"action":`},
		{"Missing action", `{"receiver":"bob","content":"hi"}`},
		{"Unknown action", `{"action":"fly"}`},
		{"Send without receiver", `{"action":"send","content":"hi"}`},
		{"Send without content", `{"action":"send","receiver":"bob"}`},
		{"Send with both receiver and group", `{"action":"send","receiver":"bob","group":"g1","content":"hi"}`},
		{"Group send without group", `{"action":"send_group","content":"hi"}`},
		{"Subscribe without topic", `{"action":"subscribe"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInbound([]byte(tt.input))
			req.ErrorIs(err, errors.ErrMalformedFrame)
		})
	}
}

func TestOutboundFrame_Builders(t *testing.T) {
	req := require.New(t)
	message := domain.Message{
		ID:        uuid.New(),
		Sender:    "alice",
		Receiver:  "bob",
		Content:   "hello",
		Type:      domain.TypeChat,
		Lang:      "English",
		CreatedAt: time.Now().UTC(),
	}

	frame := MessageFrame(message)
	req.Equal("message", frame.Kind)
	req.Equal(message.ID.String(), frame.ID)
	req.Equal("alice", frame.Sender)
	req.Equal("bob", frame.Receiver)

	notification := domain.Message{
		ID:        uuid.New(),
		Sender:    "alice",
		Content:   "alice joined the chat",
		Type:      domain.TypeJoin,
		CreatedAt: time.Now().UTC(),
	}
	presence := PresenceFrame(notification)
	req.Equal("presence", presence.Kind)
	req.Equal(string(domain.TypeJoin), presence.Type)

	failure := ErrorFrame(errors.ErrUnknownRecipient)
	req.Equal("error", failure.Kind)
	req.Equal("unknown_recipient", failure.Code)
}
