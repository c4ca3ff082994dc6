package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

func TestValidateSettingsForm(t *testing.T) {
	valid := models.SettingsForm{Name: "Ada", Email: "ada@example.com"}

	tests := []struct {
		name   string
		mutate func(*models.SettingsForm)
		want   map[string]string
	}{
		{"valid", func(*models.SettingsForm) {}, nil},
		{"missing name", func(f *models.SettingsForm) { f.Name = "" }, map[string]string{"name": "Required"}},
		{"missing email", func(f *models.SettingsForm) { f.Email = "" }, map[string]string{"email": "Required"}},
		{"bad email", func(f *models.SettingsForm) { f.Email = "not-an-email" }, map[string]string{"email": "Invalid email address"}},
		{"changed email", func(f *models.SettingsForm) { f.Email = "other@example.com" }, map[string]string{"email": "Email cannot be changed"}},
		{"long location", func(f *models.SettingsForm) { f.Location = strings.Repeat("x", 256) }, map[string]string{"location": "Must be at most 255 characters"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			err := ValidateSettingsForm(form, "ada@example.com")
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var ferr *FormError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, tt.want, ferr.Fields)
		})
	}
}

func TestValidateStruct_LocateRequest(t *testing.T) {
	lat, lng := 30.27, -97.74
	assert.NoError(t, ValidateStruct(models.LocateRequest{Latitude: &lat, Longitude: &lng}))

	bad := 123.0
	err := ValidateStruct(models.LocateRequest{Latitude: &bad})
	var ferr *FormError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "Invalid latitude", ferr.Fields["latitude"])
	assert.Equal(t, "Required", ferr.Fields["longitude"])
}

func TestSettingsSchemaCoversForm(t *testing.T) {
	names := make([]string, 0, len(SettingsSchema))
	for _, f := range SettingsSchema {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "email", "bio", "profile_photo", "cover_photo", "location"}, names)
}
