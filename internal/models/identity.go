package models

import "time"

// Identity is the Identity Provider's view of a user. This service only reads it.
type Identity struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	PhotoURL      string `json:"photo_url"`
}

// IdentityUpdate requests a change to the provider-owned fields. Nil fields are left as is.
type IdentityUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// Session holds the verified token claims for one request.
type Session struct {
	UserID        string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	// IssuedAt is when the bearer token was minted. Zero when unknown.
	IssuedAt time.Time
}

// Identity returns the claims as an identity snapshot.
func (s *Session) Identity() *Identity {
	if s == nil {
		return nil
	}
	return &Identity{
		ID:            s.UserID,
		DisplayName:   s.DisplayName,
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
		PhotoURL:      s.PhotoURL,
	}
}
