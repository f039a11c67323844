// Package api exposes the review console over HTTP: admin signin,
// report/user administration, pending purchase verification, and a
// WebSocket feed of new reports.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"telereport/internal/services"
)

// API bundles the console's dependencies. CallerID is the Telegram
// identity console operations are attributed to (the configured
// super-admin).
type API struct {
	Review   *services.Review
	Payments *services.Payments
	Registry *services.Registry
	Sessions *services.AdminSessions
	Feed     *services.FeedHub

	AdminPasswordHash string
	CallerID          int64
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the token query parameter (used by the WebSocket feed).
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireSession guards console endpoints behind a valid session token.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.Sessions.Validate(r.Context(), bearerToken(r)); !ok {
			writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: "Invalid or expired session"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
