package api

import (
	"encoding/json"
	"net/http"

	"telereport/internal/models"
)

// ListUsers returns users newest-first. Query: page, limit.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	if limit > 100 {
		limit = 100
	}

	users, err := a.Review.ListUsers(r.Context(), a.CallerID, int64((page-1)*limit), int64(limit))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load users"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: users})
}

type userActionRequest struct {
	UserID int64 `json:"user_id"`
	Tokens int   `json:"tokens,omitempty"`
}

// BlockUser blocks a user from starting workflows.
func (a *API) BlockUser(w http.ResponseWriter, r *http.Request) {
	a.userAction(w, r, func(req userActionRequest) error {
		return a.Review.Block(r.Context(), a.CallerID, req.UserID)
	}, "User blocked")
}

// UnblockUser reverses BlockUser.
func (a *API) UnblockUser(w http.ResponseWriter, r *http.Request) {
	a.userAction(w, r, func(req userActionRequest) error {
		return a.Review.Unblock(r.Context(), a.CallerID, req.UserID)
	}, "User unblocked")
}

// GrantTokens credits tokens to a user's ledger.
func (a *API) GrantTokens(w http.ResponseWriter, r *http.Request) {
	a.userAction(w, r, func(req userActionRequest) error {
		return a.Review.GrantTokens(r.Context(), a.CallerID, req.UserID, req.Tokens)
	}, "Tokens granted")
}

func (a *API) userAction(w http.ResponseWriter, r *http.Request, action func(userActionRequest) error, okMessage string) {
	var req userActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body"})
		return
	}

	switch err := action(req); err {
	case nil:
		writeJSON(w, http.StatusOK, response{Success: true, Message: okMessage})
	case models.ErrNotFound:
		writeJSON(w, http.StatusNotFound, response{Success: false, Message: "User not found"})
	case models.ErrValidation:
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid amount"})
	default:
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Operation failed"})
	}
}

// ListPendingTransactions returns purchases awaiting verification.
func (a *API) ListPendingTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.Payments.Pending(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load transactions"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: txs})
}

type verifyRequest struct {
	TransactionID string `json:"transaction_id"`
}

// VerifyTransaction completes a pending purchase, crediting the buyer.
func (a *API) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body"})
		return
	}

	tx, err := a.Payments.Complete(r.Context(), req.TransactionID)
	if err == models.ErrNotFound {
		writeJSON(w, http.StatusNotFound, response{Success: false, Message: "Transaction not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Verification failed"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: tx})
}
