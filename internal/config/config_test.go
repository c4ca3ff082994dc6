package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "AUTH_MODE", "PROFILE_STORE", "NOTICE_TTL", "CORS_ALLOWED_ORIGINS",
		"DEFAULT_COVER_PHOTO", "REGISTER_PATH", "PROFILE_PATH")

	cfg := Load()

	assert.Equal(t, AuthModeFirebase, cfg.AuthMode)
	assert.Equal(t, ProfileStoreFirestore, cfg.ProfileStore)
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://picsum.photos/200/300", cfg.DefaultCoverPhoto)
	assert.Equal(t, "/auth/register", cfg.Routes.Register)
	assert.Equal(t, "/profile", cfg.Routes.Profile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("PROFILE_STORE", "file")
	t.Setenv("NOTICE_TTL", "2s")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "3")
	t.Setenv("MODERATION_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://gatherly.app ,")

	cfg := Load()

	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
	assert.Equal(t, ProfileStoreFile, cfg.ProfileStore)
	assert.Equal(t, 2*time.Second, cfg.NoticeTTL)
	assert.Equal(t, int64(3), cfg.MaxUploadSizeMB)
	assert.True(t, cfg.ModerationEnabled)
	assert.Equal(t, []string{"http://localhost:3000", "https://gatherly.app"}, cfg.CORSAllowedOrigins)
}

func TestTypedHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "many")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	assert.Equal(t, 7, getInt("X_INT", 7))
	assert.False(t, getBool("X_BOOL", false))
	assert.Equal(t, time.Minute, getDuration("X_DUR", time.Minute))
}
