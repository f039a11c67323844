package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"telereport/internal/models"
	"telereport/internal/services"
)

// ListReports returns reports, optionally filtered by status.
// Query: status, page (1-based), limit.
func (a *API) ListReports(w http.ResponseWriter, r *http.Request) {
	status := models.ReportStatus(r.URL.Query().Get("status"))
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	if limit > 100 {
		limit = 100
	}

	reports, err := a.Review.ListAll(r.Context(), a.CallerID, status, int64((page-1)*limit), int64(limit))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load reports"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: reports})
}

// ListPendingReports returns pending reports oldest-first.
func (a *API) ListPendingReports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	reports, err := a.Review.ListPending(r.Context(), a.CallerID, int64(limit))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load pending reports"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: reports})
}

// GetReport returns a single report by ID. Query: id.
func (a *API) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.Review.Get(r.Context(), a.CallerID, r.URL.Query().Get("id"))
	if err == models.ErrNotFound {
		writeJSON(w, http.StatusNotFound, response{Success: false, Message: "Report not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load report"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: report})
}

type setStatusRequest struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
	Result   string `json:"result,omitempty"`
}

// SetReportStatus transitions a report to resolved or rejected.
func (a *API) SetReportStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body"})
		return
	}

	err := a.Review.SetStatus(r.Context(), a.CallerID, req.ReportID, models.ReportStatus(req.Status), req.Result)
	switch err {
	case nil:
	case models.ErrNotFound:
		writeJSON(w, http.StatusNotFound, response{Success: false, Message: "Report not found"})
		return
	case models.ErrValidation:
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Status must be resolved or rejected"})
		return
	default:
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to update report"})
		return
	}

	if a.Feed != nil {
		a.Feed.Publish(services.FeedEvent{
			Type:     "report_reviewed",
			ReportID: req.ReportID,
			Status:   req.Status,
		})
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Report updated"})
}

// Stats returns report/user statistics.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	stats, users, err := a.Review.Stats(r.Context(), a.CallerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load stats"})
		return
	}

	revenue, tokensSold, err := a.Payments.Revenue(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load revenue"})
		return
	}

	totalAccounts, activeAccounts, err := a.Registry.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Failed to load account stats"})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: map[string]interface{}{
		"reports":         stats,
		"users":           users,
		"accounts":        totalAccounts,
		"accounts_active": activeAccounts,
		"revenue":         revenue,
		"tokens_sold":     tokensSold,
	}})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
