package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gatherly/backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// MemoryIdentityProvider keeps identities in process. It backs AUTH_MODE=jwt
// and tests: an unknown session is registered from its token claims.
type MemoryIdentityProvider struct {
	mu            sync.RWMutex
	users         map[string]*models.Identity
	verifications map[string]int
	signedOut     map[string]int
	revokedAt     map[string]time.Time
	now           func() time.Time
}

func NewMemoryIdentityProvider() *MemoryIdentityProvider {
	return &MemoryIdentityProvider{
		users:         make(map[string]*models.Identity),
		verifications: make(map[string]int),
		signedOut:     make(map[string]int),
		revokedAt:     make(map[string]time.Time),
		now:           time.Now,
	}
}

// Put stores or replaces an identity.
func (p *MemoryIdentityProvider) Put(user models.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := user
	p.users[u.ID] = &u
}

func (p *MemoryIdentityProvider) CurrentUser(ctx context.Context, sess *models.Session) (*models.Identity, error) {
	if sess == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A session minted before the last sign-out has no current user.
	if revoked, ok := p.revokedAt[sess.UserID]; ok && !sess.IssuedAt.After(revoked) {
		return nil, nil
	}

	u, ok := p.users[sess.UserID]
	if !ok {
		u = sess.Identity()
		p.users[u.ID] = u
	}
	out := *u
	return &out, nil
}

func (p *MemoryIdentityProvider) UpdateProfile(ctx context.Context, userID string, upd models.IdentityUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = *upd.PhotoURL
	}
	return nil
}

func (p *MemoryIdentityProvider) SendEmailVerification(ctx context.Context, user *models.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifications[user.ID]++
	return nil
}

// SignOut ends every session minted up to now, as revoking refresh tokens does.
func (p *MemoryIdentityProvider) SignOut(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[userID]; !ok {
		return ErrUserNotFound
	}
	p.signedOut[userID]++
	p.revokedAt[userID] = p.now()
	return nil
}

// MarkVerified flips the verification flag, as following the emailed link would.
func (p *MemoryIdentityProvider) MarkVerified(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.EmailVerified = true
	return nil
}

func (p *MemoryIdentityProvider) VerificationsSent(userID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.verifications[userID]
}

func (p *MemoryIdentityProvider) SignOuts(userID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.signedOut[userID]
}
