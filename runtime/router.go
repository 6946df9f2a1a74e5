// Package runtime hosts the realtime core: the session registry, the
// presence tracker and the routing engine that fans persisted messages
// out to live sessions. It contains no transport or storage internals.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Router is the routing/fan-out engine. Every entry point follows the
// same contract: validate, persist, then fan out to live sessions.
// Persistence failures are the sender's problem; delivery failures are
// the dead session's problem and never surface to the sender.
type Router struct {
	log      *slog.Logger
	registry *Registry
	presence *PresenceTracker
	users    repositories.IUserRepository
	groups   repositories.IGroupRepository
	messages repositories.IMessageRepository
	censor   *moderation.Censor
	monitor  *observability.Manager

	events          chan<- event.DomainEvent
	deliveryTimeout time.Duration
}

func NewRouter(
	log *slog.Logger,
	registry *Registry,
	presence *PresenceTracker,
	users repositories.IUserRepository,
	groups repositories.IGroupRepository,
	messages repositories.IMessageRepository,
	censor *moderation.Censor,
	monitor *observability.Manager,
	events chan<- event.DomainEvent,
	deliveryTimeout time.Duration,
) *Router {
	return &Router{
		log:             log,
		registry:        registry,
		presence:        presence,
		users:           users,
		groups:          groups,
		messages:        messages,
		censor:          censor,
		monitor:         monitor,
		events:          events,
		deliveryTimeout: deliveryTimeout,
	}
}

// Connect registers a live session for an already-authenticated
// identity. Connection-open is an implicit join: the first session of
// an identity flips presence to online and broadcasts it.
func (r *Router) Connect(identity string, sink contract.EventSink) (*Session, error) {
	session, err := r.registry.Register(identity, sink)
	if err != nil {
		return nil, err
	}
	r.monitor.SessionOpened()
	r.log.Info("Session registered", "identity", identity, "session_id", session.ID)

	if r.presence.SessionOpened(identity) {
		r.markPresence(identity, domain.StatusOnline)
		r.BroadcastPresence(identity, domain.TypeJoin)
	}
	return session, nil
}

// Disconnect tears a session down. Idempotent; the offline broadcast
// fires only when the identity's last session goes away.
func (r *Router) Disconnect(sessionID uuid.UUID) {
	session, removed := r.registry.Unregister(sessionID)
	if !removed {
		return
	}
	r.monitor.SessionClosed()
	r.log.Info("Session unregistered", "identity", session.Identity, "session_id", session.ID)

	if r.presence.SessionClosed(session.Identity) {
		r.markPresence(session.Identity, domain.StatusOffline)
		r.BroadcastPresence(session.Identity, domain.TypeLeave)
	}
}

// SendPrivate validates both identities, persists the message and
// pushes it to every live session of the receiver and of the sender,
// so the sender's other devices stay in sync.
func (r *Router) SendPrivate(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	for _, identity := range []string{sender, receiver} {
		ok, err := r.users.Exists(identity)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: looking up %q: %v", errors.ErrPersistence, identity, err)
		}
		if !ok {
			return domain.Message{}, fmt.Errorf("%w: %q", errors.ErrUnknownRecipient, identity)
		}
	}

	draft := domain.Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  r.censor.Apply(content),
		Type:     domain.TypeChat,
		Lang:     detectLang(content),
	}
	persisted, err := r.messages.Append(draft)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	r.monitor.IncrMessagesSent()

	targets := r.registry.SessionsFor(receiver)
	if sender != receiver {
		targets = append(targets, r.registry.SessionsFor(sender)...)
	}
	r.fanOut(event.MessagePersisted{Message: persisted}, targets)
	r.dispatch(event.MessagePersisted{Message: persisted})
	return persisted, nil
}

// SendGroup validates the group and the sender's membership, persists
// the message and pushes it to every member's live sessions. The
// member snapshot taken after persistence is authoritative; no topic
// subscription is required.
func (r *Router) SendGroup(ctx context.Context, sender, groupID, content string) (domain.Message, error) {
	if groupID == "" {
		return domain.Message{}, errors.ErrInvalidGroup
	}
	group, err := r.groups.Get(groupID)
	if err != nil {
		return domain.Message{}, err
	}
	if !group.IsMember(sender) {
		return domain.Message{}, fmt.Errorf("%w: %q is not a member of %q", errors.ErrForbidden, sender, groupID)
	}

	draft := domain.Message{
		Sender:  sender,
		GroupID: groupID,
		Content: r.censor.Apply(content),
		Type:    domain.TypeChat,
		Lang:    detectLang(content),
	}
	persisted, err := r.messages.Append(draft)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	r.monitor.IncrMessagesSent()

	var targets []*Session
	for _, member := range group.Members {
		targets = append(targets, r.registry.SessionsFor(member)...)
	}
	r.fanOut(event.MessagePersisted{Message: persisted}, targets)
	r.dispatch(event.MessagePersisted{Message: persisted})
	return persisted, nil
}

// BroadcastPresence pushes a synthetic join/leave notification to every
// session subscribed to the public topic. No message row is written.
func (r *Router) BroadcastPresence(identity string, transition domain.MessageType) {
	verb := "joined"
	if transition == domain.TypeLeave {
		verb = "left"
	}
	notification := domain.Message{
		ID:        uuid.New(),
		Sender:    identity,
		Content:   fmt.Sprintf("%s %s the chat", identity, verb),
		Type:      transition,
		CreatedAt: time.Now().UTC(),
	}
	r.fanOut(event.PresenceChanged{Message: notification}, r.registry.PublicSubscribers())
	r.dispatch(event.PresenceChanged{Message: notification})
}

func (r *Router) IsOnline(identity string) bool {
	return r.registry.IsOnline(identity)
}

// fanOut delivers one event to each target session at most once. A
// sink write that fails or exceeds the delivery timeout marks the
// session dead and unregisters it; delivery to the remaining targets
// continues regardless.
func (r *Router) fanOut(e event.DomainEvent, targets []*Session) {
	seen := make(map[uuid.UUID]struct{}, len(targets))
	for _, session := range targets {
		if _, dup := seen[session.ID]; dup {
			continue
		}
		seen[session.ID] = struct{}{}
		if !session.Alive() {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.deliveryTimeout)
		err := session.Sink.Consume(ctx, e)
		cancel()
		if err != nil {
			r.monitor.IncrDeliveryFailures()
			r.log.Warn("Dead session detected during fan-out",
				"identity", session.Identity,
				"session_id", session.ID,
				"error", fmt.Errorf("%w: %v", errors.ErrDeadSession, err))
			r.Disconnect(session.ID)
			continue
		}
		r.monitor.IncrFramesDelivered()
	}
}

// dispatch hands the event to the background pipeline (indexer and
// friends) without ever blocking the routing path.
func (r *Router) dispatch(e event.DomainEvent) {
	select {
	case r.events <- e:
	default:
		r.monitor.IncrEventsDropped()
		r.log.Warn("Event channel full, dropping pipeline event", "event", e.Name())
	}
}

// markPresence persists the transition on the user record; a failure
// here is logged but never blocks routing.
func (r *Router) markPresence(identity string, status domain.Status) {
	if err := r.users.SetStatus(identity, status, time.Now().UTC()); err != nil {
		r.log.Warn("Failed to persist presence transition",
			"identity", identity, "status", status, "error", err)
	}
}

// detectLang tags the message with its detected language when the
// detector is confident, feeding the search index's lang filter.
func detectLang(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}
