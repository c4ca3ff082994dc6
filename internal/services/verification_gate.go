package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

// IdentitySnapshot is one read of the Identity Provider.
type IdentitySnapshot struct {
	User    *models.Identity
	Loading bool
	Err     error
}

type GateRoutes struct {
	Home     string
	Register string
}

// EvaluateGate maps an identity snapshot to exactly one gate outcome.
// Errors are treated as loading: placeholder, no redirect.
func EvaluateGate(snap IdentitySnapshot, routes GateRoutes) models.GateDecision {
	switch {
	case snap.Loading || snap.Err != nil:
		return models.GateDecision{State: models.GateLoading}
	case snap.User == nil:
		return models.GateDecision{State: models.GateUnauthenticated, Redirect: routes.Register}
	case snap.User.EmailVerified:
		return models.GateDecision{State: models.GateVerified, Redirect: routes.Home}
	default:
		return models.GateDecision{State: models.GateUnverified, Email: snap.User.Email}
	}
}

// VerificationGate decides whether a signed-in user may proceed past email verification.
type VerificationGate struct {
	identity IdentityProvider
	notifier *Notifier
	routes   GateRoutes
	timeout  time.Duration
	logger   *zap.Logger
}

func NewVerificationGate(identity IdentityProvider, notifier *Notifier, routes GateRoutes, logger *zap.Logger) *VerificationGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationGate{
		identity: identity,
		notifier: notifier,
		routes:   routes,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

func (g *VerificationGate) snapshot(ctx context.Context, sess *models.Session) IdentitySnapshot {
	if sess == nil {
		return IdentitySnapshot{}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	user, err := g.identity.CurrentUser(ctx, sess)
	if err != nil {
		g.logger.Warn("identity read failed", zap.String("user_id", sess.UserID), zap.Error(err))
		return IdentitySnapshot{Err: fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)}
	}
	return IdentitySnapshot{User: user}
}

// Evaluate fetches a fresh identity snapshot and decides. Recheck is the same call.
func (g *VerificationGate) Evaluate(ctx context.Context, sess *models.Session) models.GateDecision {
	return EvaluateGate(g.snapshot(ctx, sess), g.routes)
}

// Resend sends a new verification email when the user is still unverified.
// The success notification is suppressed while an earlier one is visible.
// An identity read failure returns the loading decision with ErrIdentityUnavailable.
func (g *VerificationGate) Resend(ctx context.Context, sess *models.Session) (*models.ResendResult, error) {
	snap := g.snapshot(ctx, sess)
	decision := EvaluateGate(snap, g.routes)
	res := &models.ResendResult{Decision: decision}
	if snap.Err != nil {
		return res, snap.Err
	}
	if decision.State != models.GateUnverified {
		return res, ErrNotUnverified
	}

	sendCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.identity.SendEmailVerification(sendCtx, snap.User); err != nil {
		return res, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	res.Sent = true
	res.Notification = g.notifier.Show(ctx, snap.User.ID, models.Notification{
		ID:       models.NoticeEmailVerification,
		Title:    "Email verification sent",
		Status:   "success",
		Closable: true,
	})
	return res, nil
}
