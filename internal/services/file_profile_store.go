package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/storage"
)

// FileProfileStore keeps every profile record in one JSON file. Used for local
// development and tests; watchers are notified in process.
type FileProfileStore struct {
	file *storage.JSONFile[map[string]models.ProfileFields]

	mu       sync.Mutex
	watchers map[string]map[chan models.ProfileSnapshot]struct{}
}

func NewFileProfileStore(dataDir string) (*FileProfileStore, error) {
	f, err := storage.NewJSONFile[map[string]models.ProfileFields](dataDir, ProfilesCollection+".json")
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileProfileStore{
		file:     f,
		watchers: make(map[string]map[chan models.ProfileSnapshot]struct{}),
	}, nil
}

func (s *FileProfileStore) ReadProfile(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := s.file.Load()
	if err != nil {
		return nil, fmt.Errorf("file store: load: %w", err)
	}
	fields, ok := all[userID]
	if !ok {
		return nil, nil
	}
	return fields.Record(), nil
}

func (s *FileProfileStore) WriteProfile(ctx context.Context, userID string, fields models.ProfileFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.file.Update(func(all *map[string]models.ProfileFields) error {
		if *all == nil {
			*all = make(map[string]models.ProfileFields)
		}
		(*all)[userID] = fields
		return nil
	})
	if err != nil {
		return fmt.Errorf("file store: save: %w", err)
	}
	s.publish(userID, fields.Record())
	return nil
}

func (s *FileProfileStore) WatchProfile(ctx context.Context, userID string) (<-chan models.ProfileSnapshot, error) {
	rec, err := s.ReadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Buffered so the initial snapshot and a concurrent write never block publish.
	ch := make(chan models.ProfileSnapshot, 4)
	ch <- models.ProfileSnapshot{Record: rec}

	s.mu.Lock()
	if s.watchers[userID] == nil {
		s.watchers[userID] = make(map[chan models.ProfileSnapshot]struct{})
	}
	s.watchers[userID][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[userID], ch)
		if len(s.watchers[userID]) == 0 {
			delete(s.watchers, userID)
		}
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// publish drops the update for watchers whose buffer is full; they still see
// the next write.
func (s *FileProfileStore) publish(userID string, rec *models.ProfileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers[userID] {
		select {
		case ch <- models.ProfileSnapshot{Record: rec}:
		default:
		}
	}
}
