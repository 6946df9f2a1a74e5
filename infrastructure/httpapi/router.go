// Package httpapi is the REST surface of the service: registration,
// login, user directory, history retrieval, search and group
// management. The realtime path lives in infrastructure/ws.
package httpapi

import (
	"chat-hub/auth"
	"chat-hub/infrastructure/ws"
	"chat-hub/observability"
	"chat-hub/services"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	log     *slog.Logger
	authSvc services.IAuthService
	chat    services.IChatService
	groups  services.IGroupService
	tokens  *auth.TokenManager
	monitor *observability.Manager
}

// New assembles the full HTTP surface, WebSocket endpoint included.
func New(
	log *slog.Logger,
	authSvc services.IAuthService,
	chat services.IChatService,
	groups services.IGroupService,
	tokens *auth.TokenManager,
	monitor *observability.Manager,
	gateway *ws.Gateway,
) http.Handler {
	h := &Handler{
		log:     log,
		authSvc: authSvc,
		chat:    chat,
		groups:  groups,
		tokens:  tokens,
		monitor: monitor,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
	r.Get("/api/stats", h.stats)
	r.Get("/ws/chat", gateway.Handle)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/api/users", h.listUsers)
		r.Get("/api/messages/private/{username}", h.privateHistory)
		r.Get("/api/messages/group/{groupID}", h.groupHistory)
		r.Get("/api/messages/search", h.search)
		r.Post("/api/groups", h.createGroup)
		r.Get("/api/groups/{groupID}", h.getGroup)
		r.Post("/api/groups/{groupID}/members", h.addMember)
		r.Delete("/api/groups/{groupID}/members/{username}", h.removeMember)
	})

	return r
}
