package services

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

// VerificationMailer delivers a verification link to a user.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, link string) error
}

// FirebaseIdentityProvider talks to Firebase Authentication through the Admin SDK.
type FirebaseIdentityProvider struct {
	auth   *fbauth.Client
	mailer VerificationMailer
	logger *zap.Logger
}

func NewFirebaseIdentityProvider(authClient *fbauth.Client, mailer VerificationMailer, logger *zap.Logger) *FirebaseIdentityProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseIdentityProvider{auth: authClient, mailer: mailer, logger: logger}
}

func (p *FirebaseIdentityProvider) CurrentUser(ctx context.Context, sess *models.Session) (*models.Identity, error) {
	if sess == nil {
		return nil, nil
	}
	u, err := p.auth.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("firebase: get user %s: %w", sess.UserID, err)
	}
	return identityFromRecord(u), nil
}

func (p *FirebaseIdentityProvider) UpdateProfile(ctx context.Context, userID string, upd models.IdentityUpdate) error {
	params := &fbauth.UserToUpdate{}
	changed := false
	if upd.DisplayName != nil {
		params = params.DisplayName(*upd.DisplayName)
		changed = true
	}
	if upd.PhotoURL != nil {
		params = params.PhotoURL(*upd.PhotoURL)
		changed = true
	}
	if !changed {
		return nil
	}
	if _, err := p.auth.UpdateUser(ctx, userID, params); err != nil {
		return fmt.Errorf("firebase: update user %s: %w", userID, err)
	}
	return nil
}

// SendEmailVerification generates a verification link with the Admin SDK and mails it.
func (p *FirebaseIdentityProvider) SendEmailVerification(ctx context.Context, user *models.Identity) error {
	if user == nil || user.Email == "" {
		return errors.New("firebase: verification needs a user with an email")
	}
	if p.mailer == nil {
		return errors.New("firebase: verification mailer not configured")
	}
	link, err := p.auth.EmailVerificationLink(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("firebase: verification link: %w", err)
	}
	if err := p.mailer.SendVerificationEmail(ctx, user.Email, user.DisplayName, link); err != nil {
		return fmt.Errorf("firebase: send verification: %w", err)
	}
	p.logger.Info("verification email sent", zap.String("user_id", user.ID))
	return nil
}

// SignOut revokes the user's refresh tokens so every device must sign in again.
func (p *FirebaseIdentityProvider) SignOut(ctx context.Context, userID string) error {
	if err := p.auth.RevokeRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("firebase: revoke tokens %s: %w", userID, err)
	}
	return nil
}

func identityFromRecord(u *fbauth.UserRecord) *models.Identity {
	id := &models.Identity{EmailVerified: u.EmailVerified}
	if u.UserInfo != nil {
		id.ID = u.UID
		id.DisplayName = u.DisplayName
		id.Email = u.Email
		id.PhotoURL = u.PhotoURL
	}
	return id
}
