package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	apperrors "chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/services"

	"github.com/go-chi/chi/v5"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token services.Token `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err))
		return
	}
	token, err := h.authSvc.Register(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info("User registered", "username", req.Username)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err))
		return
	}
	token, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.chat.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) privateHistory(w http.ResponseWriter, r *http.Request) {
	peer := chi.URLParam(r, "username")
	messages, err := h.chat.PrivateHistory(identityFrom(r), peer, limitFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) groupHistory(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	messages, err := h.chat.GroupHistory(identityFrom(r), groupID, limitFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := repositories.SearchQuery{
		Terms: r.URL.Query().Get("q"),
		Group: r.URL.Query().Get("group"),
		Lang:  r.URL.Query().Get("lang"),
		Limit: limitFrom(r),
	}
	if query.Terms == "" {
		writeError(w, fmt.Errorf("%w: missing query parameter q", apperrors.ErrMalformedFrame))
		return
	}
	hits, err := h.chat.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err))
		return
	}
	group, err := h.groups.Create(req.Name, identityFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info("Group created", "group", group.ID, "creator", group.Creator)
	writeJSON(w, http.StatusCreated, group)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

type memberRequest struct {
	Username string `json:"username"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err))
		return
	}
	groupID := chi.URLParam(r, "groupID")
	if err := h.groups.AddMember(groupID, identityFrom(r), req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"group": groupID, "added": req.Username})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	username := chi.URLParam(r, "username")
	if err := h.groups.RemoveMember(groupID, identityFrom(r), username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"group": groupID, "removed": username})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

// limitFrom reads the optional ?limit= parameter; zero means "use the
// configured default". The repository clamps it, not this layer.
func limitFrom(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
