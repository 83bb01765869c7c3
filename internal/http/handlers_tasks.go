package httpx

import (
	"net/http"

	"github.com/spendlens/spendlens/internal/service"
)

// TaskHandlers serves the task enqueueing endpoints. Each endpoint pushes an
// envelope onto a queue and returns 202; the job record is created by the
// worker once the task is picked up.
type TaskHandlers struct {
	Svc *service.TaskService
}

type emailFetchBody struct {
	UserID    int64  `json:"user_id"`
	Provider  string `json:"provider"`
	Limit     int    `json:"limit"`
	AccountID *int64 `json:"account_id"`
	Cursor    string `json:"cursor"`
}

// EmailFetch handles POST /api/tasks/email-fetch.
func (h *TaskHandlers) EmailFetch(w http.ResponseWriter, r *http.Request) {
	var body emailFetchBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	err := h.Svc.EnqueueEmailFetch(r.Context(), service.EmailFetchRequest{
		UserID:    body.UserID,
		Provider:  body.Provider,
		Limit:     body.Limit,
		AccountID: body.AccountID,
		Cursor:    body.Cursor,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type emailExtractionBody struct {
	BatchSize int  `json:"batch_size"`
	Reprocess bool `json:"reprocess"`
}

// EmailExtraction handles POST /api/tasks/email-extraction.
func (h *TaskHandlers) EmailExtraction(w http.ResponseWriter, r *http.Request) {
	var body emailExtractionBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := h.Svc.EnqueueEmailExtraction(r.Context(), body.BatchSize, body.Reprocess); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type jobCleanupBody struct {
	RetentionDays int `json:"retention_days"`
}

// JobCleanup handles POST /api/tasks/job-cleanup.
func (h *TaskHandlers) JobCleanup(w http.ResponseWriter, r *http.Request) {
	var body jobCleanupBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := h.Svc.EnqueueJobCleanup(r.Context(), body.RetentionDays); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
