package httpapi

import (
	"bytes"
	"chat-hub/auth"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/ws"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *httptest.Server
	chat   services.IChatService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := repositories.NewSearchIndex(bluge.InMemoryOnlyConfig(), slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, slog.Default(), nil)

	censor, err := moderation.NewCensor([]string{"darn"}, '*')
	req.NoError(err)

	monitor := observability.NewManager()
	events := make(chan event.DomainEvent, 64)
	router := runtime.NewRouter(
		slog.Default(), runtime.NewRegistry(), runtime.NewPresenceTracker(),
		users, groups, messages, censor, monitor, events, time.Second,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	orchestrator := runtime.NewOrchestrator(
		slog.Default(), workers.NewSupervisor(slog.Default(), 10*time.Millisecond),
		events, index, monitor, time.Minute,
	)
	orchestrator.Start(ctx)
	t.Cleanup(orchestrator.Stop)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := services.NewAuthService(users, tokens)
	chat := services.NewChatService(router, users, groups, messages, index)
	groupSvc := services.NewGroupService(groups, users)
	gateway := ws.NewGateway(slog.Default(), chat, tokens, monitor, 8, time.Minute, time.Minute)

	handler := New(slog.Default(), authSvc, chat, groupSvc, tokens, monitor, gateway)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testServer{server: server, chat: chat}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	request, err := http.NewRequest(method, ts.server.URL+path, &payload)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := ts.server.Client().Do(request)
	require.NoError(t, err)
	return response
}

func (ts *testServer) registerUser(t *testing.T, username string) string {
	t.Helper()
	response := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "ComplexPass123",
	})
	defer response.Body.Close()
	require.Equal(t, http.StatusCreated, response.StatusCode)

	var decoded struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
	return decoded.Token
}

func decodeBody[T any](t *testing.T, response *http.Response) T {
	t.Helper()
	defer response.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(response.Body).Decode(&out))
	return out
}

func TestAPI_Register_Login_And_Directory(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	token := ts.registerUser(t, "alice42")
	ts.registerUser(t, "bob42")

	// Duplicate registration conflicts
	response := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice42", "password": "ComplexPass123",
	})
	response.Body.Close()
	req.Equal(http.StatusConflict, response.StatusCode)

	// Login with the right password succeeds
	response = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice42", "password": "ComplexPass123",
	})
	response.Body.Close()
	req.Equal(http.StatusOK, response.StatusCode)

	// The directory lists both accounts
	users := decodeBody[[]services.UserView](t, ts.do(t, http.MethodGet, "/api/users", token, nil))
	req.Len(users, 2)
}

func TestAPI_Rejects_Missing_Or_Bad_Token(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	response := ts.do(t, http.MethodGet, "/api/users", "", nil)
	response.Body.Close()
	req.Equal(http.StatusUnauthorized, response.StatusCode)

	response = ts.do(t, http.MethodGet, "/api/users", "garbage", nil)
	response.Body.Close()
	req.Equal(http.StatusUnauthorized, response.StatusCode)
}

func TestAPI_Group_Lifecycle(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	alice := ts.registerUser(t, "alice42")
	bob := ts.registerUser(t, "bob42")

	// Alice creates a group
	created := ts.do(t, http.MethodPost, "/api/groups", alice, map[string]string{"name": "gophers"})
	req.Equal(http.StatusCreated, created.StatusCode)
	group := decodeBody[map[string]any](t, created)
	groupID := group["id"].(string)

	// Bob cannot add members
	response := ts.do(t, http.MethodPost, "/api/groups/"+groupID+"/members", bob,
		map[string]string{"username": "bob42"})
	response.Body.Close()
	req.Equal(http.StatusForbidden, response.StatusCode)

	// Alice adds bob, then the group shows both members
	response = ts.do(t, http.MethodPost, "/api/groups/"+groupID+"/members", alice,
		map[string]string{"username": "bob42"})
	response.Body.Close()
	req.Equal(http.StatusOK, response.StatusCode)

	fetched := decodeBody[map[string]any](t, ts.do(t, http.MethodGet, "/api/groups/"+groupID, alice, nil))
	req.Len(fetched["members"], 2)

	// Removing the creator is forbidden
	response = ts.do(t, http.MethodDelete, "/api/groups/"+groupID+"/members/alice42", alice, nil)
	response.Body.Close()
	req.Equal(http.StatusForbidden, response.StatusCode)
}

func TestAPI_Private_History_And_Errors(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	alice := ts.registerUser(t, "alice42")
	ts.registerUser(t, "bob42")

	// Given a few persisted messages
	for i := 0; i < 3; i++ {
		_, err := ts.chat.SendPrivate(context.Background(), "alice42", "bob42", fmt.Sprintf("message %d", i))
		req.NoError(err)
	}

	history := decodeBody[[]map[string]any](t,
		ts.do(t, http.MethodGet, "/api/messages/private/bob42?limit=2", alice, nil))
	req.Len(history, 2)
	req.Equal("message 1", history[0]["content"])
	req.Equal("message 2", history[1]["content"])

	// Unknown peer is a 404
	response := ts.do(t, http.MethodGet, "/api/messages/private/ghost", alice, nil)
	response.Body.Close()
	req.Equal(http.StatusNotFound, response.StatusCode)
}

func TestAPI_Search_Requires_Terms(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	alice := ts.registerUser(t, "alice42")

	response := ts.do(t, http.MethodGet, "/api/messages/search", alice, nil)
	response.Body.Close()
	req.Equal(http.StatusBadRequest, response.StatusCode)
}

func TestAPI_Stats_Exposed(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	stats := decodeBody[map[string]any](t, ts.do(t, http.MethodGet, "/api/stats", "", nil))
	req.Contains(stats, "sessions_open")
}
