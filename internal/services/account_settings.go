package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

// LocalityResolver turns coordinates into a locality name.
type LocalityResolver interface {
	Locality(ctx context.Context, lat, lng float64) (string, error)
}

// AccountSettingsService loads and saves the account settings form.
type AccountSettingsService struct {
	identity    IdentityProvider
	store       ProfileStore
	uploader    Uploader
	geocoder    LocalityResolver
	defaults    models.ProfileFields
	profilePath string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewAccountSettingsService(
	identity IdentityProvider,
	store ProfileStore,
	uploader Uploader,
	geocoder LocalityResolver,
	defaults models.ProfileFields,
	profilePath string,
	logger *zap.Logger,
) *AccountSettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountSettingsService{
		identity:    identity,
		store:       store,
		uploader:    uploader,
		geocoder:    geocoder,
		defaults:    defaults,
		profilePath: profilePath,
		timeout:     10 * time.Second,
		logger:      logger,
	}
}

// Defaults are the values substituted for an absent record or field.
func (s *AccountSettingsService) Defaults() models.ProfileFields {
	return s.defaults
}

func (s *AccountSettingsService) current(ctx context.Context, sess *models.Session) (*models.Identity, models.SettingsForm, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.identity.CurrentUser(ctx, sess)
	if err != nil {
		return nil, models.SettingsForm{}, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	if user == nil {
		return nil, models.SettingsForm{}, ErrUnauthorized
	}

	rec, err := s.store.ReadProfile(ctx, user.ID)
	if err != nil {
		return nil, models.SettingsForm{}, fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	profile := rec.Resolve(s.defaults)

	return user, models.SettingsForm{
		Name:         user.DisplayName,
		Email:        user.Email,
		Bio:          profile.Bio,
		ProfilePhoto: user.PhotoURL,
		CoverPhoto:   profile.CoverPhoto,
		Location:     profile.Location,
	}, nil
}

// Load returns the field schema and the initial form values.
func (s *AccountSettingsService) Load(ctx context.Context, sess *models.Session) (*models.SettingsView, error) {
	_, values, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &models.SettingsView{Schema: SettingsSchema, Values: values}, nil
}

// Submit persists what changed. The display name goes to the identity provider
// and the profile triple to the document store; the two writes are attempted
// independently and neither rolls back the other.
func (s *AccountSettingsService) Submit(ctx context.Context, sess *models.Session, form models.SettingsForm) (*models.SubmitResult, error) {
	user, initial, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := ValidateSettingsForm(form, user.Email); err != nil {
		return nil, err
	}

	res := &models.SubmitResult{ResetValues: initial}
	var errs []error

	if form.Name != initial.Name {
		name := form.Name
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.identity.UpdateProfile(wctx, user.ID, models.IdentityUpdate{DisplayName: &name})
		cancel()
		if err != nil {
			s.logger.Warn("display name update failed", zap.String("user_id", user.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: %v", ErrUpdateFailed, err))
		} else {
			res.NameUpdated = true
			res.Navigate(s.profilePath)
		}
	}

	// initial has defaults applied, so an absent record or field submitted
	// unchanged counts as clean and the record is not created.
	if form.Profile() != initial.Profile() {
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.store.WriteProfile(wctx, user.ID, form.Profile())
		cancel()
		if err != nil {
			s.logger.Warn("profile write failed", zap.String("user_id", user.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: %v", ErrDocumentUnavailable, err))
		} else {
			res.ProfileWritten = true
			res.Navigate(s.profilePath)
		}
	}

	return res, errors.Join(errs...)
}

func (s *AccountSettingsService) upload(ctx context.Context, sess *models.Session, purpose UploadPurpose, contentType string, r io.Reader) (string, error) {
	var uid string
	if sess != nil {
		uid = sess.UserID
	}
	ch := s.uploader.Upload(ctx, ObjectPath(purpose, uid), contentType, r)
	url, err := AwaitUpload(ctx, ch)
	if err != nil && ctx.Err() != nil {
		// The uploader may still be reading r, which the caller closes on return.
		<-ch
	}
	if err != nil {
		if errors.Is(err, ErrImageRejected) || errors.Is(err, ErrUploadFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

// UploadProfilePhoto stores the image and sets it as the identity photo right
// away, without waiting for a submit.
func (s *AccountSettingsService) UploadProfilePhoto(ctx context.Context, sess *models.Session, contentType string, r io.Reader) (string, error) {
	if sess == nil {
		return "", ErrUnauthorized
	}
	url, err := s.upload(ctx, sess, UploadProfilePhoto, contentType, r)
	if err != nil {
		return "", err
	}

	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.identity.UpdateProfile(wctx, sess.UserID, models.IdentityUpdate{PhotoURL: &url}); err != nil {
		return url, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return url, nil
}

// UploadCoverPhoto stores the image and returns its URL. The cover photo is
// persisted by the next submit.
func (s *AccountSettingsService) UploadCoverPhoto(ctx context.Context, sess *models.Session, contentType string, r io.Reader) (string, error) {
	if sess == nil {
		return "", ErrUnauthorized
	}
	return s.upload(ctx, sess, UploadCoverPhoto, contentType, r)
}

// Locate resolves coordinates to a location field value.
func (s *AccountSettingsService) Locate(ctx context.Context, req models.LocateRequest) (*models.LocateResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	locality, err := s.geocoder.Locality(ctx, *req.Latitude, *req.Longitude)
	if err != nil {
		s.logger.Info("reverse geocode failed",
			zap.Float64("latitude", *req.Latitude),
			zap.Float64("longitude", *req.Longitude),
			zap.Error(err))
		return nil, err
	}
	return &models.LocateResponse{Location: LocationField(locality)}, nil
}

// Watch streams the signed-in user's profile record until ctx ends.
func (s *AccountSettingsService) Watch(ctx context.Context, sess *models.Session) (<-chan models.ProfileSnapshot, error) {
	if sess == nil {
		return nil, ErrUnauthorized
	}
	ch, err := s.store.WatchProfile(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	return ch, nil
}
