package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"institute-service/internal/apperrors"
)

type ErrorResponse struct {
	Error   string  `json:"error"`
	Entity  string  `json:"entity,omitempty"`
	Field   string  `json:"field,omitempty"`
	Message string  `json:"message,omitempty"`
	IDs     []int64 `json:"ids,omitempty"`
}

// RespondWithError writes an error response in JSON format
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUniqueness, apperrors.KindAmbiguousReference, apperrors.KindRestrictedDelete:
		return http.StatusConflict
	case apperrors.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err with the status of its kind. Unclassified
// errors are reported without their text.
func RespondWithAppError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	resp := ErrorResponse{Error: apperrors.KindOf(err).String()}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		resp.Entity = appErr.Entity
		resp.Field = appErr.Field
		resp.Message = appErr.Message
		resp.IDs = appErr.IDs
	}
	if code == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	RespondWithJSON(w, code, resp)
}
