package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/services"
)

type SettingsHandler struct {
	settings  *services.AccountSettingsService
	maxSizeMB int64
	logger    *zap.Logger
}

func NewSettingsHandler(settings *services.AccountSettingsService, maxSizeMB int64, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: settings, maxSizeMB: maxSizeMB, logger: logger}
}

// loading is the placeholder payload sent while collaborators are unavailable.
var loading = map[string]string{"state": "loading"}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.settings.Load(ctx, sess)
	if err != nil {
		h.writeLoadError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(view))
}

func (h *SettingsHandler) writeLoadError(w http.ResponseWriter, sess *models.Session, err error) {
	if errors.Is(err, services.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	var uid string
	if sess != nil {
		uid = sess.UserID
	}
	h.logger.Warn("settings unavailable", zap.String("user_id", uid), zap.Error(err))
	writeFailure(w, http.StatusServiceUnavailable, "Loading", loading)
}

func (h *SettingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var form models.SettingsForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.settings.Submit(ctx, sess, form)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
	case writeValidationError(w, err):
	case res != nil:
		h.logger.Warn("settings submit partially failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeFailure(w, http.StatusBadGateway, "Failed to save some settings", res)
	default:
		h.writeLoadError(w, sess, err)
	}
}

func (h *SettingsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.settings.UploadProfilePhoto)
}

func (h *SettingsHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.settings.UploadCoverPhoto)
}

type uploadFunc func(ctx context.Context, sess *models.Session, contentType string, r io.Reader) (string, error)

func (h *SettingsHandler) upload(w http.ResponseWriter, r *http.Request, upload uploadFunc) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No image file provided"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	url, err := upload(ctx, sess, contentType, file)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.UploadResponse{URL: url}))
	case errors.Is(err, services.ErrImageRejected):
		writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse("Image violates community guidelines"))
	case errors.Is(err, services.ErrUpdateFailed):
		h.logger.Warn("photo stored but profile not updated", zap.String("user_id", sess.UserID), zap.Error(err))
		writeFailure(w, http.StatusBadGateway, "Failed to update profile photo", models.UploadResponse{URL: url})
	default:
		h.logger.Error("upload failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to upload image"))
	}
}

func (h *SettingsHandler) Locate(w http.ResponseWriter, r *http.Request) {
	var req models.LocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.settings.Locate(ctx, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
	case writeValidationError(w, err):
	case errors.Is(err, services.ErrLocalityNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("No locality found for these coordinates"))
	default:
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to look up location"))
	}
}

// Watch streams the profile record as server-sent events. Each "profile"
// event carries the record with defaults applied.
func (h *SettingsHandler) Watch(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	ch, err := h.settings.Watch(r.Context(), sess)
	if err != nil {
		h.writeLoadError(w, sess, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	defaults := h.settings.Defaults()
	for snap := range ch {
		if snap.Err != nil {
			h.logger.Warn("profile watch error", zap.String("user_id", sess.UserID), zap.Error(snap.Err))
			fmt.Fprintf(w, "event: loading\ndata: {}\n\n")
			flusher.Flush()
			continue
		}
		data, err := json.Marshal(snap.Record.Resolve(defaults))
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: profile\ndata: %s\n\n", data)
		flusher.Flush()
	}
}
