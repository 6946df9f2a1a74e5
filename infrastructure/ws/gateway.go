// Package ws is the connection gateway: it upgrades authenticated
// HTTP requests to WebSocket sessions and bridges inbound frames to
// the routing engine and engine events back to the socket.
package ws

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/observability"
	"chat-hub/runtime"
	"chat-hub/services"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Gateway struct {
	log     *slog.Logger
	chat    services.IChatService
	tokens  *auth.TokenManager
	monitor *observability.Manager

	upgrader     websocket.Upgrader
	bufferSize   int
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewGateway(
	log *slog.Logger,
	chat services.IChatService,
	tokens *auth.TokenManager,
	monitor *observability.Manager,
	bufferSize int,
	pingInterval, pongTimeout time.Duration,
) *Gateway {
	return &Gateway{
		log:     log,
		chat:    chat,
		tokens:  tokens,
		monitor: monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The token is the access control; origin checks belong to
			// the reverse proxy in this deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize:   bufferSize,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
	}
}

// Handle upgrades GET /ws/chat?token=JWT. The identity bound to the
// session comes from the validated token; the core never sees
// credential material.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	identity, err := g.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("WebSocket upgrade failed", "identity", identity, "error", err)
		return
	}

	sink := NewSink(g.bufferSize)
	session, err := g.chat.Connect(identity, sink)
	if err != nil {
		g.log.Error("Session registration failed", "identity", identity, "error", err)
		_ = conn.Close()
		return
	}

	stop := make(chan struct{})
	go g.writePump(conn, sink, session, stop)
	g.readPump(conn, sink, session)

	// The read loop has returned: the connection is CLOSED. Unregister
	// synchronously before finishing teardown, this is the sole path
	// that guarantees no session leak.
	g.chat.Disconnect(session.ID)
	close(stop)
	_ = conn.Close()
}

// readPump consumes inbound frames until the transport dies. Malformed
// frames are rejected without closing the connection; transport errors
// end the loop.
func (g *Gateway) readPump(conn *websocket.Conn, sink *Sink, session *runtime.Session) {
	_ = conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn("Connection lost", "identity", session.Identity, "error", err)
			}
			return
		}

		frame, err := ParseInbound(data)
		if err != nil {
			g.monitor.IncrFramesRejected()
			g.log.Warn("Dropping malformed frame", "identity", session.Identity, "error", err)
			sink.Fail(err)
			continue
		}
		g.handleFrame(frame, sink, session)
	}
}

// handleFrame translates one inbound frame into engine calls. The
// identity is always the session's own: a client cannot speak for
// anyone else regardless of what the frame claims.
func (g *Gateway) handleFrame(frame InboundFrame, sink *Sink, session *runtime.Session) {
	switch frame.Action {
	case ActionSend:
		if _, err := g.chat.SendPrivate(context.Background(), session.Identity, frame.Receiver, frame.Content); err != nil {
			g.log.Warn("Private send rejected",
				"identity", session.Identity, "receiver", frame.Receiver, "error", err)
			sink.Fail(err)
		}
	case ActionSendGroup:
		if _, err := g.chat.SendGroup(context.Background(), session.Identity, frame.Group, frame.Content); err != nil {
			g.log.Warn("Group send rejected",
				"identity", session.Identity, "group", frame.Group, "error", err)
			sink.Fail(err)
		}
	case ActionJoin:
		// Redundant with the implicit join on connect, kept as an
		// explicit broadcast trigger for protocol compatibility.
		g.chat.BroadcastPresence(session.Identity, domain.TypeJoin)
	case ActionLeave:
		g.chat.BroadcastPresence(session.Identity, domain.TypeLeave)
	case ActionSubscribe:
		session.Subscribe(frame.Topic)
	case ActionUnsubscribe:
		session.Unsubscribe(frame.Topic)
	}
}

// writePump is the only writer of the connection. It drains the sink
// in order and keeps the peer alive with periodic pings.
func (g *Gateway) writePump(conn *websocket.Conn, sink *Sink, session *runtime.Session, stop <-chan struct{}) {
	ticker := time.NewTicker(g.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-sink.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(g.pingInterval))
			if err := conn.WriteJSON(frame); err != nil {
				g.log.Warn("Write failed, closing connection",
					"identity", session.Identity, "error", err)
				// Poison the reader so teardown goes through readPump.
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(g.pingInterval))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-stop:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
