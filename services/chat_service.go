package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	Connect(identity string, sink contract.EventSink) (*runtime.Session, error)
	Disconnect(sessionID uuid.UUID)
	SendPrivate(ctx context.Context, sender, receiver, content string) (domain.Message, error)
	SendGroup(ctx context.Context, sender, groupID, content string) (domain.Message, error)
	BroadcastPresence(identity string, transition domain.MessageType)
	PrivateHistory(caller, peer string, limit int) ([]domain.Message, error)
	GroupHistory(caller, groupID string, limit int) ([]domain.Message, error)
	Search(ctx context.Context, query repositories.SearchQuery) ([]repositories.SearchHit, error)
	ListUsers() ([]UserView, error)
}

// UserView is the directory entry served by the users endpoint; the
// status comes from the live registry, last-seen from storage.
type UserView struct {
	Username string        `json:"username"`
	Status   domain.Status `json:"status"`
	LastSeen time.Time     `json:"last_seen"`
}

// ChatService is the facade the gateway and the REST layer share. All
// realtime semantics live in the router; this layer adds the
// authorization checks that only make sense at the API boundary.
type ChatService struct {
	router   *runtime.Router
	users    repositories.IUserRepository
	groups   repositories.IGroupRepository
	messages repositories.IMessageRepository
	index    repositories.ISearchIndex
}

func NewChatService(
	router *runtime.Router,
	users repositories.IUserRepository,
	groups repositories.IGroupRepository,
	messages repositories.IMessageRepository,
	index repositories.ISearchIndex,
) *ChatService {
	return &ChatService{
		router:   router,
		users:    users,
		groups:   groups,
		messages: messages,
		index:    index,
	}
}

func (s *ChatService) Connect(identity string, sink contract.EventSink) (*runtime.Session, error) {
	return s.router.Connect(identity, sink)
}

func (s *ChatService) Disconnect(sessionID uuid.UUID) {
	s.router.Disconnect(sessionID)
}

func (s *ChatService) SendPrivate(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	return s.router.SendPrivate(ctx, sender, receiver, content)
}

func (s *ChatService) SendGroup(ctx context.Context, sender, groupID, content string) (domain.Message, error) {
	return s.router.SendGroup(ctx, sender, groupID, content)
}

func (s *ChatService) BroadcastPresence(identity string, transition domain.MessageType) {
	s.router.BroadcastPresence(identity, transition)
}

// PrivateHistory returns the conversation between the caller and the
// peer. The peer must exist so typos surface as a 404 rather than an
// empty page.
func (s *ChatService) PrivateHistory(caller, peer string, limit int) ([]domain.Message, error) {
	ok, err := s.users.Exists(peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownRecipient, peer)
	}
	return s.messages.PrivateHistory(caller, peer, limit)
}

// GroupHistory is restricted to group members.
func (s *ChatService) GroupHistory(caller, groupID string, limit int) ([]domain.Message, error) {
	member, err := s.groups.IsMember(groupID, caller)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, fmt.Errorf("%w: %q is not a member of %q", errors.ErrForbidden, caller, groupID)
	}
	return s.messages.GroupHistory(groupID, limit)
}

func (s *ChatService) Search(ctx context.Context, query repositories.SearchQuery) ([]repositories.SearchHit, error) {
	return s.index.Search(ctx, query)
}

func (s *ChatService) ListUsers() ([]UserView, error) {
	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(user repositories.User, _ int) UserView {
		status := domain.StatusOffline
		if s.router.IsOnline(user.Username) {
			status = domain.StatusOnline
		}
		return UserView{
			Username: user.Username,
			Status:   status,
			LastSeen: user.LastSeen,
		}
	}), nil
}
