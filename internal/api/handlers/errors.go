package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/auth"
	"Inkwell/internal/core/media"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// HandleServiceError maps service errors to HTTP responses.
// Unexpected errors are logged and answered with an opaque 500.
func HandleServiceError(w http.ResponseWriter, err error) {
	var (
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		validation *apperr.ValidationError
	)

	switch {
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, "InvalidRequest", validation.Error())

	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, "NotFound", notFound.Error())

	case apperr.IsForbidden(err):
		WriteError(w, http.StatusForbidden, "Forbidden", "You are not allowed to modify this resource")

	case errors.As(err, &conflict):
		WriteError(w, http.StatusConflict, "Conflict", conflict.Message)

	case auth.IsUnauthorized(err):
		WriteError(w, http.StatusUnauthorized, "Unauthorized", err.Error())

	case media.IsUploadError(err):
		log.Printf("[MEDIA] upload failed: %v", err)
		WriteError(w, http.StatusBadGateway, "MediaUploadFailed", "Failed to upload attachment")

	case attachments.IsDeletionError(err), media.IsDeleteError(err):
		log.Printf("[MEDIA] delete failed: %v", err)
		WriteError(w, http.StatusBadGateway, "MediaDeleteFailed", "Failed to delete attachment, nothing was changed")

	default:
		log.Printf("Handler error: %v", err)
		WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

// DecodeJSON decodes the request body into v and writes the error response
// itself when decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, http.StatusRequestEntityTooLarge, "PayloadTooLarge", "Request body is too large")
		return false
	}
	WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
	return false
}
