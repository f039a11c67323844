package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"telereport/pkg/utils"
)

type signinRequest struct {
	Password string `json:"password"`
}

// Signin authenticates the console operator against the configured
// Argon2id password hash and issues a Redis-backed session token.
func (a *API) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body"})
		return
	}

	if a.AdminPasswordHash == "" {
		writeJSON(w, http.StatusServiceUnavailable, response{Success: false, Message: "Console signin is not configured"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, a.AdminPasswordHash)
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: "Invalid password"})
		return
	}

	token, err := a.Sessions.Create(r.Context(), strconv.FormatInt(a.CallerID, 10))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to create session"})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: map[string]string{"token": token}})
}

// Signout invalidates the current session token.
func (a *API) Signout(w http.ResponseWriter, r *http.Request) {
	a.Sessions.Invalidate(r.Context(), bearerToken(r))
	writeJSON(w, http.StatusOK, response{Success: true})
}
