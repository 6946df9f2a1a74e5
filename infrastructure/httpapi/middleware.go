package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "chat-hub/errors"
)

type contextKey string

const identityKey contextKey = "identity"

// requireAuth validates the Bearer token and stores the authenticated
// identity in the request context. Handlers read it once and pass it
// explicitly to the services; nothing below this layer touches the
// request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, apperrors.ErrInvalidCredentials)
			return
		}
		identity, err := h.tokens.Validate(token)
		if err != nil {
			writeError(w, apperrors.ErrInvalidCredentials)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) string {
	identity, _ := r.Context().Value(identityKey).(string)
	return identity
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.MapToHTTPStatus(err), errorResponse{
		Error: err.Error(),
		Code:  apperrors.Code(err),
	})
}
