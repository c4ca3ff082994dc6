package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/services"
)

const requestTimeout = 15 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeFailure sends an error envelope that still carries data, for
// outcomes that are partly successful.
func writeFailure(w http.ResponseWriter, status int, message string, data interface{}) {
	resp := models.NewErrorResponse(message)
	resp.Data = data
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, err error) bool {
	var ferr *services.FormError
	if !errors.As(err, &ferr) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(ferr.Fields))
	return true
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
