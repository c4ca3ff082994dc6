package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/gatherly/backend/internal/models"
)

type FirestoreProfileStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreProfileStore(client *firestore.Client) *FirestoreProfileStore {
	return &FirestoreProfileStore{client: client, collection: ProfilesCollection}
}

func (s *FirestoreProfileStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreProfileStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

func (s *FirestoreProfileStore) ReadProfile(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	snap, err := s.doc(userID).Get(ctx)
	if err != nil {
		// Get reports NotFound with a non-existent snapshot.
		if snap != nil && !snap.Exists() {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore: get %s/%s: %w", s.collection, userID, err)
	}
	return decodeFirestoreProfile(snap)
}

func (s *FirestoreProfileStore) WatchProfile(ctx context.Context, userID string) (<-chan models.ProfileSnapshot, error) {
	it := s.doc(userID).Snapshots(ctx)
	out := make(chan models.ProfileSnapshot)

	go func() {
		defer close(out)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					sendSnapshot(ctx, out, models.ProfileSnapshot{Err: fmt.Errorf("firestore: watch %s: %w", userID, err)})
				}
				return
			}
			var rec *models.ProfileRecord
			if snap.Exists() {
				rec, err = decodeFirestoreProfile(snap)
			}
			if !sendSnapshot(ctx, out, models.ProfileSnapshot{Record: rec, Err: err}) {
				return
			}
		}
	}()
	return out, nil
}

func (s *FirestoreProfileStore) WriteProfile(ctx context.Context, userID string, fields models.ProfileFields) error {
	if _, err := s.doc(userID).Set(ctx, fields); err != nil {
		return fmt.Errorf("firestore: set %s/%s: %w", s.collection, userID, err)
	}
	return nil
}

func decodeFirestoreProfile(snap *firestore.DocumentSnapshot) (*models.ProfileRecord, error) {
	var rec models.ProfileRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("firestore: decode %s: %w", snap.Ref.ID, err)
	}
	return &rec, nil
}
