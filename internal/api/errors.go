package api

import (
	"encoding/json"
	"net/http"

	"github.com/drive-uploader/internal/errors"
)

// ErrorBody is the payload of an API error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
	}})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// respondServiceError maps categorized service errors to HTTP responses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, errors.MessageOf(err))
	case errors.CategoryNotFound:
		respondError(w, http.StatusNotFound, ErrCodeNotFound, errors.MessageOf(err))
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred")
	}
}
