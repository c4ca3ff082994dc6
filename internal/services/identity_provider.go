package services

import (
	"context"

	"github.com/gatherly/backend/internal/models"
)

// IdentityProvider is the external authentication service.
type IdentityProvider interface {
	// CurrentUser returns the identity behind the session, or nil for a nil session.
	CurrentUser(ctx context.Context, sess *models.Session) (*models.Identity, error)
	UpdateProfile(ctx context.Context, userID string, upd models.IdentityUpdate) error
	SendEmailVerification(ctx context.Context, user *models.Identity) error
	SignOut(ctx context.Context, userID string) error
}
