package ws

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Action string

const (
	ActionSend        Action = "send"
	ActionSendGroup   Action = "send_group"
	ActionJoin        Action = "join"
	ActionLeave       Action = "leave"
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
)

var validate = validator.New()

// InboundFrame is one client request on the socket. Exactly one of
// Receiver/Group is set for sends; Topic is only meaningful for the
// subscription actions.
type InboundFrame struct {
	Action   Action `json:"action" validate:"required,oneof=send send_group join leave subscribe unsubscribe"`
	Receiver string `json:"receiver,omitempty"`
	Group    string `json:"group,omitempty"`
	Content  string `json:"content,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// ParseInbound decodes and validates a frame. Every failure wraps
// ErrMalformedFrame: the caller logs it and keeps the connection open.
func ParseInbound(data []byte) (InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return InboundFrame{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	if err := validate.Struct(frame); err != nil {
		return InboundFrame{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}

	switch frame.Action {
	case ActionSend:
		if frame.Receiver == "" || frame.Content == "" {
			return InboundFrame{}, fmt.Errorf("%w: send requires receiver and content", errors.ErrMalformedFrame)
		}
		if frame.Group != "" {
			return InboundFrame{}, fmt.Errorf("%w: send carries both receiver and group", errors.ErrMalformedFrame)
		}
	case ActionSendGroup:
		if frame.Group == "" || frame.Content == "" {
			return InboundFrame{}, fmt.Errorf("%w: send_group requires group and content", errors.ErrMalformedFrame)
		}
	case ActionSubscribe, ActionUnsubscribe:
		if frame.Topic == "" {
			return InboundFrame{}, fmt.Errorf("%w: %s requires a topic", errors.ErrMalformedFrame, frame.Action)
		}
	}
	return frame, nil
}

// OutboundFrame is one server push. Kind discriminates deliveries,
// presence notifications and sender-visible errors.
type OutboundFrame struct {
	Kind     string    `json:"kind"`
	ID       string    `json:"id,omitempty"`
	Sender   string    `json:"sender,omitempty"`
	Receiver string    `json:"receiver,omitempty"`
	Group    string    `json:"group,omitempty"`
	Content  string    `json:"content,omitempty"`
	Type     string    `json:"type,omitempty"`
	Lang     string    `json:"lang,omitempty"`
	At       time.Time `json:"at,omitempty"`
	Code     string    `json:"code,omitempty"`
	Message  string    `json:"message,omitempty"`
}

func MessageFrame(message domain.Message) OutboundFrame {
	return OutboundFrame{
		Kind:     "message",
		ID:       message.ID.String(),
		Sender:   message.Sender,
		Receiver: message.Receiver,
		Group:    message.GroupID,
		Content:  message.Content,
		Type:     string(message.Type),
		Lang:     message.Lang,
		At:       message.CreatedAt,
	}
}

func PresenceFrame(notification domain.Message) OutboundFrame {
	return OutboundFrame{
		Kind:    "presence",
		Sender:  notification.Sender,
		Content: notification.Content,
		Type:    string(notification.Type),
		At:      notification.CreatedAt,
	}
}

func ErrorFrame(err error) OutboundFrame {
	return OutboundFrame{
		Kind:    "error",
		Code:    errors.Code(err),
		Message: err.Error(),
	}
}
