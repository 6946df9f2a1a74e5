package ws

import (
	"chat-hub/domain/event"
	"context"
)

// Sink bridges the routing engine to one WebSocket connection. Consume
// is called by the fan-out; the write pump drains Frames in submission
// order, which is the per-session ordering guarantee.
type Sink struct {
	frames chan OutboundFrame
}

func NewSink(bufferSize int) *Sink {
	return &Sink{frames: make(chan OutboundFrame, bufferSize)}
}

// Consume converts the event to a wire frame and enqueues it. When the
// buffer is full it blocks until the router's delivery deadline; the
// context error tells the router this session is dead.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	var frame OutboundFrame
	switch evt := e.(type) {
	case event.MessagePersisted:
		frame = MessageFrame(evt.Message)
	case event.PresenceChanged:
		frame = PresenceFrame(evt.Message)
	default:
		return nil
	}

	select {
	case s.frames <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail enqueues a sender-visible error frame. Best-effort: if the
// buffer is full the error is dropped rather than blocking the read
// loop.
func (s *Sink) Fail(err error) {
	select {
	case s.frames <- ErrorFrame(err):
	default:
	}
}

func (s *Sink) Frames() <-chan OutboundFrame {
	return s.frames
}
