package services

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func newChatService(t *testing.T, usernames ...string) (*ChatService, *repositories.GroupRepository) {
	t.Helper()
	db := openTestDB(t)
	users := repositories.NewUserRepository(db)
	for _, username := range usernames {
		_, err := users.Create(username, "hash")
		require.NoError(t, err)
	}
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, slog.Default(), nil)
	index, err := repositories.NewSearchIndex(bluge.InMemoryOnlyConfig(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	censor, err := moderation.NewCensor([]string{"darn"}, '*')
	require.NoError(t, err)
	router := runtime.NewRouter(
		slog.Default(), runtime.NewRegistry(), runtime.NewPresenceTracker(),
		users, groups, messages,
		censor, observability.NewManager(),
		make(chan event.DomainEvent, 64), time.Second,
	)
	return NewChatService(router, users, groups, messages, index), groups
}

func TestChatService_PrivateHistory_Roundtrip(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t, "alice", "bob")

	_, err := service.SendPrivate(context.Background(), "alice", "bob", "hello")
	req.NoError(err)
	_, err = service.SendPrivate(context.Background(), "bob", "alice", "hi back")
	req.NoError(err)

	history, err := service.PrivateHistory("alice", "bob", 0)

	req.NoError(err)
	req.Len(history, 2)
	req.Equal("hello", history[0].Content)
	req.Equal("hi back", history[1].Content)
}

func TestChatService_PrivateHistory_Unknown_Peer(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t, "alice")

	_, err := service.PrivateHistory("alice", "ghost", 0)

	req.ErrorIs(err, errors.ErrUnknownRecipient)
}

func TestChatService_GroupHistory_Members_Only(t *testing.T) {
	req := require.New(t)
	service, groups := newChatService(t, "alice", "bob", "mallory")

	group, err := groups.Create("gophers", "alice")
	req.NoError(err)
	req.NoError(groups.AddMember(group.ID, "bob"))
	_, err = service.SendGroup(context.Background(), "alice", group.ID, "welcome")
	req.NoError(err)

	// Members read the history
	history, err := service.GroupHistory("bob", group.ID, 0)
	req.NoError(err)
	req.Len(history, 1)

	// Outsiders are rejected
	_, err = service.GroupHistory("mallory", group.ID, 0)
	req.ErrorIs(err, errors.ErrForbidden)
}

func TestChatService_ListUsers_Reflects_Live_Presence(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t, "alice", "bob")

	session, err := service.Connect("alice", nopSink{})
	req.NoError(err)

	users, err := service.ListUsers()
	req.NoError(err)
	req.Len(users, 2)
	byName := map[string]UserView{}
	for _, user := range users {
		byName[user.Username] = user
	}
	req.Equal(domain.StatusOnline, byName["alice"].Status)
	req.Equal(domain.StatusOffline, byName["bob"].Status)

	// When alice disconnects she shows up offline
	service.Disconnect(session.ID)
	users, err = service.ListUsers()
	req.NoError(err)
	for _, user := range users {
		req.Equal(domain.StatusOffline, user.Status)
	}
}

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}
