package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

type NavRoutes struct {
	Home     string
	Register string
	Login    string
	Profile  string
	Settings string
}

// NavigationService builds the identity-dependent side menu and top bar.
type NavigationService struct {
	identity      IdentityProvider
	notifier      *Notifier
	routes        NavRoutes
	fallbackPhoto string
	timeout       time.Duration
	logger        *zap.Logger
}

func NewNavigationService(identity IdentityProvider, notifier *Notifier, routes NavRoutes, fallbackPhoto string, logger *zap.Logger) *NavigationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigationService{
		identity:      identity,
		notifier:      notifier,
		routes:        routes,
		fallbackPhoto: fallbackPhoto,
		timeout:       10 * time.Second,
		logger:        logger,
	}
}

// Shell renders login and sign-up actions for anonymous visitors and the
// avatar menu for signed-in users. An identity read failure renders the
// anonymous shell.
func (s *NavigationService) Shell(ctx context.Context, sess *models.Session) models.NavShell {
	shell := models.NavShell{
		Links: []models.NavLink{{Name: "Home", Href: s.routes.Home}},
	}

	var user *models.Identity
	if sess != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		u, err := s.identity.CurrentUser(ctx, sess)
		if err != nil {
			s.logger.Warn("identity read failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
		user = u
	}

	if user == nil {
		shell.Actions = []models.NavLink{
			{Name: "Login", Href: s.routes.Login},
			{Name: "Sign Up", Href: s.routes.Register},
		}
		return shell
	}

	photo := user.PhotoURL
	if photo == "" {
		photo = s.fallbackPhoto
	}
	shell.Authenticated = true
	shell.Account = &models.NavAccount{
		DisplayName: user.DisplayName,
		Handle:      Handle(user.Email),
		PhotoURL:    photo,
	}
	shell.Menu = []models.NavLink{
		{Name: "Profile", Href: s.routes.Profile},
		{Name: "Settings", Href: s.routes.Settings},
	}
	return shell
}

// Handle is "@" followed by the local part of email.
func Handle(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return "@" + local
}

// SignOut ends the user's sessions at the identity provider and shows the
// logged-out notification unless one is already visible.
func (s *NavigationService) SignOut(ctx context.Context, sess *models.Session) (*models.SignOutResult, error) {
	if sess == nil {
		return nil, ErrUnauthorized
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.identity.SignOut(sctx, sess.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	s.logger.Info("user signed out", zap.String("user_id", sess.UserID))
	return &models.SignOutResult{
		SignedOut: true,
		Notification: s.notifier.Show(ctx, sess.UserID, models.Notification{
			ID:       models.NoticeSignedOut,
			Title:    "Logged out",
			Status:   "success",
			Closable: true,
		}),
	}, nil
}
