package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	ErrDocumentUnavailable = errors.New("document store unavailable")
	ErrUpdateFailed        = errors.New("identity update failed")
	ErrNotUnverified       = errors.New("user is not awaiting email verification")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUploadFailed        = errors.New("upload failed")
	ErrImageRejected       = errors.New("image rejected: violates community guidelines")
	ErrGeocodeFailed       = errors.New("reverse geocoding failed")
	ErrLocalityNotFound    = errors.New("no locality for coordinates")
)

// FormError carries per-field validation messages.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
