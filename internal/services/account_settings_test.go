package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

const testCover = "https://picsum.photos/200/300"

var testDefaults = models.ProfileFields{CoverPhoto: testCover}

// recordingStore counts writes and can be made to fail them.
type recordingStore struct {
	ProfileStore
	mu       sync.Mutex
	writes   []models.ProfileFields
	writeErr error
}

func (s *recordingStore) WriteProfile(ctx context.Context, userID string, fields models.ProfileFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, fields)
	return s.ProfileStore.WriteProfile(ctx, userID, fields)
}

// recordingIdentity counts profile updates and can be made to fail them.
type recordingIdentity struct {
	*MemoryIdentityProvider
	updates   []models.IdentityUpdate
	updateErr error
}

func (p *recordingIdentity) UpdateProfile(ctx context.Context, userID string, upd models.IdentityUpdate) error {
	if p.updateErr != nil {
		return p.updateErr
	}
	p.updates = append(p.updates, upd)
	return p.MemoryIdentityProvider.UpdateProfile(ctx, userID, upd)
}

type stubUploader struct {
	paths []string
	err   error
}

func (u *stubUploader) Upload(_ context.Context, objectPath, _ string, r io.Reader) <-chan UploadResult {
	u.paths = append(u.paths, objectPath)
	if u.err != nil {
		return uploadDone(UploadResult{Err: u.err})
	}
	_, _ = io.Copy(io.Discard, r)
	return uploadDone(UploadResult{URL: "https://cdn.test/" + objectPath})
}

type stubGeocoder struct {
	locality string
	err      error
}

func (g stubGeocoder) Locality(context.Context, float64, float64) (string, error) {
	return g.locality, g.err
}

type settingsFixture struct {
	svc      *AccountSettingsService
	identity *recordingIdentity
	store    *recordingStore
	uploader *stubUploader
	sess     *models.Session
}

func newSettingsFixture(t *testing.T) *settingsFixture {
	t.Helper()
	fileStore, err := NewFileProfileStore(t.TempDir())
	require.NoError(t, err)

	idp := &recordingIdentity{MemoryIdentityProvider: NewMemoryIdentityProvider()}
	idp.Put(models.Identity{ID: "u1", DisplayName: "Ada", Email: "ada@example.com", EmailVerified: true, PhotoURL: "https://img.test/ada.png"})

	f := &settingsFixture{
		identity: idp,
		store:    &recordingStore{ProfileStore: fileStore},
		uploader: &stubUploader{},
		sess:     &models.Session{UserID: "u1", Email: "ada@example.com"},
	}
	f.svc = NewAccountSettingsService(f.identity, f.store, f.uploader, stubGeocoder{locality: "Austin"}, testDefaults, "/profile", nil)
	return f
}

func TestAccountSettings_LoadAppliesDefaults(t *testing.T) {
	f := newSettingsFixture(t)

	view, err := f.svc.Load(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Equal(t, SettingsSchema, view.Schema)
	assert.Equal(t, models.SettingsForm{
		Name:         "Ada",
		Email:        "ada@example.com",
		ProfilePhoto: "https://img.test/ada.png",
		CoverPhoto:   testCover,
	}, view.Values)
}

func TestAccountSettings_LoadErrors(t *testing.T) {
	f := newSettingsFixture(t)

	_, err := f.svc.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	svc := NewAccountSettingsService(erroringIdentity{NewMemoryIdentityProvider()}, f.store, f.uploader, nil, testDefaults, "/profile", nil)
	_, err = svc.Load(context.Background(), f.sess)
	assert.ErrorIs(t, err, ErrIdentityUnavailable)
}

func TestAccountSettings_SubmitUnchangedAbsentRecordWritesNothing(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()

	view, err := f.svc.Load(ctx, f.sess)
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, f.sess, view.Values)
	require.NoError(t, err)
	assert.False(t, res.NameUpdated)
	assert.False(t, res.ProfileWritten)
	assert.Empty(t, res.Navigations)
	assert.Empty(t, f.store.writes)
	assert.Empty(t, f.identity.updates)
}

func TestAccountSettings_SubmitLocationOnlyWritesFullTriple(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.ProfileStore.WriteProfile(ctx, "u1", models.ProfileFields{Bio: "", CoverPhoto: testCover, Location: ""}))

	view, err := f.svc.Load(ctx, f.sess)
	require.NoError(t, err)
	form := view.Values
	form.Location = "Austin"

	res, err := f.svc.Submit(ctx, f.sess, form)
	require.NoError(t, err)
	require.Len(t, f.store.writes, 1)
	assert.Equal(t, models.ProfileFields{Bio: "", CoverPhoto: testCover, Location: "Austin"}, f.store.writes[0])
	assert.Empty(t, f.identity.updates)
	assert.True(t, res.ProfileWritten)
	assert.Equal(t, []string{"/profile"}, res.Navigations)
	assert.Equal(t, view.Values, res.ResetValues)
}

func TestAccountSettings_SubmitBothBranches(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()

	view, err := f.svc.Load(ctx, f.sess)
	require.NoError(t, err)
	form := view.Values
	form.Name = "Ada Lovelace"
	form.Bio = "analyst"

	res, err := f.svc.Submit(ctx, f.sess, form)
	require.NoError(t, err)
	assert.True(t, res.NameUpdated)
	assert.True(t, res.ProfileWritten)
	assert.Equal(t, []string{"/profile", "/profile"}, res.Navigations)
	assert.Equal(t, "/profile", res.Redirect)

	user, err := f.identity.CurrentUser(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)
}

func TestAccountSettings_SubmitBranchesFailIndependently(t *testing.T) {
	ctx := context.Background()

	t.Run("identity failure still writes profile", func(t *testing.T) {
		f := newSettingsFixture(t)
		f.identity.updateErr = errors.New("quota")
		view, err := f.svc.Load(ctx, f.sess)
		require.NoError(t, err)
		form := view.Values
		form.Name = "Grace"
		form.Bio = "admiral"

		res, err := f.svc.Submit(ctx, f.sess, form)
		assert.ErrorIs(t, err, ErrUpdateFailed)
		assert.NotErrorIs(t, err, ErrDocumentUnavailable)
		assert.False(t, res.NameUpdated)
		assert.True(t, res.ProfileWritten)
		assert.Len(t, f.store.writes, 1)
	})

	t.Run("document failure still updates name", func(t *testing.T) {
		f := newSettingsFixture(t)
		f.store.writeErr = errors.New("permission denied")
		view, err := f.svc.Load(ctx, f.sess)
		require.NoError(t, err)
		form := view.Values
		form.Name = "Grace"
		form.Location = "Arlington"

		res, err := f.svc.Submit(ctx, f.sess, form)
		assert.ErrorIs(t, err, ErrDocumentUnavailable)
		assert.True(t, res.NameUpdated)
		assert.False(t, res.ProfileWritten)
		assert.Len(t, f.identity.updates, 1)
	})
}

func TestAccountSettings_SubmitRejectsInvalidForm(t *testing.T) {
	f := newSettingsFixture(t)

	_, err := f.svc.Submit(context.Background(), f.sess, models.SettingsForm{Email: "ada@example.com"})
	var ferr *FormError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "Required", ferr.Fields["name"])
	assert.Empty(t, f.store.writes)
	assert.Empty(t, f.identity.updates)
}

func TestAccountSettings_Uploads(t *testing.T) {
	ctx := context.Background()

	t.Run("profile photo updates identity immediately", func(t *testing.T) {
		f := newSettingsFixture(t)
		url, err := f.svc.UploadProfilePhoto(ctx, f.sess, "image/png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/images/profile/u1", url)
		require.Len(t, f.identity.updates, 1)
		require.NotNil(t, f.identity.updates[0].PhotoURL)
		assert.Equal(t, url, *f.identity.updates[0].PhotoURL)
		assert.Nil(t, f.identity.updates[0].DisplayName)
		assert.Empty(t, f.store.writes)
	})

	t.Run("cover photo defers to submit", func(t *testing.T) {
		f := newSettingsFixture(t)
		url, err := f.svc.UploadCoverPhoto(ctx, f.sess, "image/jpeg", strings.NewReader("jpg"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/images/cover/u1", url)
		assert.Empty(t, f.identity.updates)
		assert.Empty(t, f.store.writes)
	})

	t.Run("rejected image", func(t *testing.T) {
		f := newSettingsFixture(t)
		f.uploader.err = ErrImageRejected
		_, err := f.svc.UploadProfilePhoto(ctx, f.sess, "image/png", strings.NewReader("png"))
		assert.ErrorIs(t, err, ErrImageRejected)
		assert.Empty(t, f.identity.updates)
	})

	t.Run("storage error wraps upload failure", func(t *testing.T) {
		f := newSettingsFixture(t)
		f.uploader.err = errors.New("bucket gone")
		_, err := f.svc.UploadCoverPhoto(ctx, f.sess, "image/png", strings.NewReader("png"))
		assert.ErrorIs(t, err, ErrUploadFailed)
	})
}

func TestAccountSettings_Locate(t *testing.T) {
	f := newSettingsFixture(t)
	lat, lng := 30.27, -97.74

	res, err := f.svc.Locate(context.Background(), models.LocateRequest{Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	assert.Equal(t, " Austin", res.Location)

	svc := NewAccountSettingsService(f.identity, f.store, f.uploader, stubGeocoder{err: ErrLocalityNotFound}, testDefaults, "/profile", nil)
	_, err = svc.Locate(context.Background(), models.LocateRequest{Latitude: &lat, Longitude: &lng})
	assert.ErrorIs(t, err, ErrLocalityNotFound)

	_, err = svc.Locate(context.Background(), models.LocateRequest{})
	var ferr *FormError
	assert.True(t, errors.As(err, &ferr))
}

func TestAccountSettings_Watch(t *testing.T) {
	f := newSettingsFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.svc.Watch(ctx, f.sess)
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.NoError(t, snap.Err)
		assert.Nil(t, snap.Record)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, f.store.WriteProfile(ctx, "u1", models.ProfileFields{CoverPhoto: testCover, Location: "Austin"}))
	select {
	case snap := <-ch:
		require.NotNil(t, snap.Record)
		assert.Equal(t, "Austin", snap.Record.Resolve(f.svc.Defaults()).Location)
	case <-time.After(time.Second):
		t.Fatal("no update snapshot")
	}
}

// fixedRecordStore returns rec for every read.
type fixedRecordStore struct {
	ProfileStore
	rec *models.ProfileRecord
}

func (s fixedRecordStore) ReadProfile(context.Context, string) (*models.ProfileRecord, error) {
	return s.rec, nil
}

func TestAccountSettings_SubmitMissingFieldsCompareAsDefaults(t *testing.T) {
	f := newSettingsFixture(t)
	ctx := context.Background()
	bio := "analyst"
	f.store.ProfileStore = fixedRecordStore{ProfileStore: f.store.ProfileStore, rec: &models.ProfileRecord{Bio: &bio}}

	view, err := f.svc.Load(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, testCover, view.Values.CoverPhoto)
	assert.Equal(t, "", view.Values.Location)

	res, err := f.svc.Submit(ctx, f.sess, view.Values)
	require.NoError(t, err)
	assert.False(t, res.ProfileWritten, "a stored record missing coverPhoto and location is not rewritten")
	assert.Empty(t, f.store.writes)
}

// slowUploader reads its input only after release is closed.
type slowUploader struct {
	release chan struct{}
	read    atomic.Bool
}

func (u *slowUploader) Upload(_ context.Context, _ string, _ string, r io.Reader) <-chan UploadResult {
	out := make(chan UploadResult, 1)
	go func() {
		defer close(out)
		<-u.release
		_, _ = io.Copy(io.Discard, r)
		u.read.Store(true)
		out <- UploadResult{Err: context.DeadlineExceeded}
	}()
	return out
}

func TestAccountSettings_UploadTimeoutWaitsForReader(t *testing.T) {
	f := newSettingsFixture(t)
	up := &slowUploader{release: make(chan struct{})}
	svc := NewAccountSettingsService(f.identity, f.store, up, nil, testDefaults, "/profile", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go func() {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		close(up.release)
	}()

	_, err := svc.UploadCoverPhoto(ctx, f.sess, "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.True(t, up.read.Load(), "returned before the uploader finished reading")
}
