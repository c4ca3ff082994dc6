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

type VerifyEmailHandler struct {
	gate   *services.VerificationGate
	logger *zap.Logger
}

func NewVerifyEmailHandler(gate *services.VerificationGate, logger *zap.Logger) *VerifyEmailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerifyEmailHandler{gate: gate, logger: logger}
}

// Status evaluates the gate. Loading and redirect outcomes are still 200s;
// the client renders the placeholder and follows the redirect.
func (h *VerifyEmailHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	decision := h.gate.Evaluate(ctx, middleware.GetSession(r.Context()))
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(decision))
}

// Recheck re-evaluates on a freshly fetched identity.
func (h *VerifyEmailHandler) Recheck(w http.ResponseWriter, r *http.Request) {
	h.Status(w, r)
}

func (h *VerifyEmailHandler) Resend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.gate.Resend(ctx, middleware.GetSession(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
	case errors.Is(err, services.ErrIdentityUnavailable):
		writeFailure(w, http.StatusServiceUnavailable, "Loading", res)
	case errors.Is(err, services.ErrNotUnverified):
		writeFailure(w, http.StatusConflict, "Email verification is not pending", res)
	default:
		h.logger.Warn("resend verification failed", zap.Error(err))
		writeFailure(w, http.StatusBadGateway, "Failed to send verification email", res)
	}
}
