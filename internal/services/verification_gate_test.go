package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

var testGateRoutes = GateRoutes{Home: "/", Register: "/auth/register"}

func TestEvaluateGate(t *testing.T) {
	verified := &models.Identity{ID: "u1", Email: "a@b.co", EmailVerified: true}
	unverified := &models.Identity{ID: "u2", Email: "c@d.co"}

	tests := []struct {
		name string
		snap IdentitySnapshot
		want models.GateDecision
	}{
		{"loading", IdentitySnapshot{Loading: true, User: verified}, models.GateDecision{State: models.GateLoading}},
		{"error", IdentitySnapshot{Err: errors.New("down"), User: unverified}, models.GateDecision{State: models.GateLoading}},
		{"anonymous", IdentitySnapshot{}, models.GateDecision{State: models.GateUnauthenticated, Redirect: "/auth/register"}},
		{"verified", IdentitySnapshot{User: verified}, models.GateDecision{State: models.GateVerified, Redirect: "/"}},
		{"unverified", IdentitySnapshot{User: unverified}, models.GateDecision{State: models.GateUnverified, Email: "c@d.co"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateGate(tt.snap, testGateRoutes))
		})
	}
}

type erroringIdentity struct{ *MemoryIdentityProvider }

func (erroringIdentity) CurrentUser(context.Context, *models.Session) (*models.Identity, error) {
	return nil, errors.New("firebase unavailable")
}

func newTestGate(idp IdentityProvider) *VerificationGate {
	store, _ := newTestNoticeStore()
	return NewVerificationGate(idp, NewNotifier(store, 5*time.Second, nil), testGateRoutes, nil)
}

func TestVerificationGate_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("identity error renders placeholder", func(t *testing.T) {
		g := newTestGate(erroringIdentity{NewMemoryIdentityProvider()})
		d := g.Evaluate(ctx, &models.Session{UserID: "u1"})
		assert.Equal(t, models.GateLoading, d.State)
		assert.Empty(t, d.Redirect)
	})

	t.Run("recheck sees fresh identity", func(t *testing.T) {
		idp := NewMemoryIdentityProvider()
		g := newTestGate(idp)
		sess := &models.Session{UserID: "u1", Email: "a@b.co"}

		assert.Equal(t, models.GateUnverified, g.Evaluate(ctx, sess).State)
		require.NoError(t, idp.MarkVerified("u1"))
		d := g.Evaluate(ctx, sess)
		assert.Equal(t, models.GateVerified, d.State)
		assert.Equal(t, "/", d.Redirect)
	})

	t.Run("no session", func(t *testing.T) {
		g := newTestGate(NewMemoryIdentityProvider())
		d := g.Evaluate(ctx, nil)
		assert.Equal(t, models.GateUnauthenticated, d.State)
		assert.Equal(t, "/auth/register", d.Redirect)
	})
}

func TestVerificationGate_Resend(t *testing.T) {
	ctx := context.Background()
	idp := NewMemoryIdentityProvider()
	g := newTestGate(idp)
	sess := &models.Session{UserID: "u1", Email: "a@b.co"}

	first, err := g.Resend(ctx, sess)
	require.NoError(t, err)
	assert.True(t, first.Sent)
	require.NotNil(t, first.Notification)
	assert.Equal(t, models.NoticeEmailVerification, first.Notification.ID)
	assert.Equal(t, "Email verification sent", first.Notification.Title)

	second, err := g.Resend(ctx, sess)
	require.NoError(t, err)
	assert.True(t, second.Sent)
	assert.Nil(t, second.Notification, "second notice suppressed while the first is visible")
	assert.Equal(t, 2, idp.VerificationsSent("u1"))

	t.Run("verified user is not sent anything", func(t *testing.T) {
		require.NoError(t, idp.MarkVerified("u1"))
		res, err := g.Resend(ctx, sess)
		assert.ErrorIs(t, err, ErrNotUnverified)
		assert.Equal(t, models.GateVerified, res.Decision.State)
		assert.Equal(t, 2, idp.VerificationsSent("u1"))
	})
}

func TestVerificationGate_ResendIdentityError(t *testing.T) {
	idp := NewMemoryIdentityProvider()
	g := newTestGate(erroringIdentity{idp})

	res, err := g.Resend(context.Background(), &models.Session{UserID: "u1"})
	assert.ErrorIs(t, err, ErrIdentityUnavailable)
	assert.NotErrorIs(t, err, ErrNotUnverified)
	assert.Equal(t, models.GateLoading, res.Decision.State)
	assert.False(t, res.Sent)
	assert.Equal(t, 0, idp.VerificationsSent("u1"))
}
