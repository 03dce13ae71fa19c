package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/drive-uploader/internal/models"
)

// EnqueueUploadRequest represents the request body for enqueueing an upload.
type EnqueueUploadRequest struct {
	TenantID string `json:"tenantId"`
	RecordID string `json:"recordId"`
	Provider string `json:"provider,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// EnqueueUploadResponse represents the response for an enqueued upload.
type EnqueueUploadResponse struct {
	ID string `json:"id"`
}

// handleEnqueueUpload handles POST /api/uploads
func (s *Server) handleEnqueueUpload(w http.ResponseWriter, r *http.Request) {
	var req EnqueueUploadRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.enqueueService.EnqueueOrRequeue(r.Context(), req.TenantID, req.RecordID, req.Provider, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// The upload happens later; 202 signals the job was accepted, not done.
	respondJSON(w, http.StatusAccepted, EnqueueUploadResponse{ID: id})
}

// UploadNowRequest represents the request body for a synchronous upload.
type UploadNowRequest struct {
	TenantID string `json:"tenantId"`
	RecordID string `json:"recordId"`
	Provider string `json:"provider,omitempty"`
}

// UploadNowResponse represents the outcome of a synchronous upload.
type UploadNowResponse struct {
	Status   models.UploadStatus `json:"status"`
	Message  string              `json:"message"`
	FileID   string              `json:"fileId,omitempty"`
	FolderID string              `json:"folderId,omitempty"`
}

// handleUploadNow handles POST /api/uploads/now
func (s *Server) handleUploadNow(w http.ResponseWriter, r *http.Request) {
	var req UploadNowRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := s.uploadService.UploadNow(r.Context(), req.TenantID, req.RecordID, req.Provider)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadNowResponse{
		Status:   outcome.Status,
		Message:  outcome.Message,
		FileID:   outcome.FileID,
		FolderID: outcome.FolderID,
	})
}

// handleGetUpload handles GET /api/uploads/{id}
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := s.queueRepo.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// CancelUploadResponse represents the response for a cancel request.
type CancelUploadResponse struct {
	ID    string             `json:"id"`
	State models.UploadState `json:"state"`
}

// handleCancelUpload handles POST /api/uploads/{id}/cancel
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cancelled, err := s.queueRepo.Cancel(r.Context(), id, "cancelled by operator")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !cancelled {
		// Either the id is unknown or the job already reached a terminal
		// state; look it up to tell the two apart.
		item, err := s.queueRepo.GetByID(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondError(w, http.StatusConflict, ErrCodeConflict,
			"upload is already "+string(item.State))
		return
	}

	respondJSON(w, http.StatusOK, CancelUploadResponse{
		ID:    id,
		State: models.UploadStateCancelled,
	})
}

// handleListUploadLogs handles GET /api/records/{recordId}/uploads
func (s *Server) handleListUploadLogs(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["recordId"]

	tenantID := r.URL.Query().Get("tenantId")
	if tenantID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "tenantId query parameter is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	logs, err := s.logRepo.ListByRecord(r.Context(), tenantID, recordID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.UploadLog{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recordId": recordID,
		"uploads":  logs,
	})
}
