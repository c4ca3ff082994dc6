package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/services"
)

type NavigationHandler struct {
	nav    *services.NavigationService
	logger *zap.Logger
}

func NewNavigationHandler(nav *services.NavigationService, logger *zap.Logger) *NavigationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigationHandler{nav: nav, logger: logger}
}

func (h *NavigationHandler) Shell(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.nav.Shell(ctx, middleware.GetSession(r.Context()))))
}

func (h *NavigationHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.nav.SignOut(ctx, sess)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
			return
		}
		h.logger.Error("sign out failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to sign out"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
}
