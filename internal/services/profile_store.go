package services

import (
	"context"

	"github.com/gatherly/backend/internal/models"
)

// ProfilesCollection is the document-store collection holding profile records.
const ProfilesCollection = "users"

// ProfileStore is the external document store holding per-user profile records.
type ProfileStore interface {
	// ReadProfile returns nil, nil when the user has no record yet.
	ReadProfile(ctx context.Context, userID string) (*models.ProfileRecord, error)
	// WatchProfile delivers the current record and every later change until ctx ends.
	WatchProfile(ctx context.Context, userID string) (<-chan models.ProfileSnapshot, error)
	// WriteProfile overwrites the whole record, creating it when absent.
	WriteProfile(ctx context.Context, userID string, fields models.ProfileFields) error
}

func sendSnapshot(ctx context.Context, out chan<- models.ProfileSnapshot, snap models.ProfileSnapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
