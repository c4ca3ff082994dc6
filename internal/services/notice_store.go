package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

// NoticeStore remembers which notification keys are currently visible.
type NoticeStore interface {
	// Claim marks key visible for ttl. It reports false while key is already visible.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryNoticeStore is a process-local NoticeStore.
type MemoryNoticeStore struct {
	mu      sync.Mutex
	visible map[string]time.Time
	now     func() time.Time
}

func NewMemoryNoticeStore() *MemoryNoticeStore {
	return &MemoryNoticeStore{visible: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryNoticeStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, until := range s.visible {
		if !now.Before(until) {
			delete(s.visible, k)
		}
	}
	if _, ok := s.visible[key]; ok {
		return false, nil
	}
	s.visible[key] = now.Add(ttl)
	return true, nil
}

// Notifier shows one-shot notifications, suppressing a key while it is visible.
type Notifier struct {
	store  NoticeStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewNotifier(store NoticeStore, ttl time.Duration, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{store: store, ttl: ttl, logger: logger}
}

// Show returns note when it should be displayed, nil when an identical key is
// still visible for scope. A store failure shows the notification.
func (n *Notifier) Show(ctx context.Context, scope string, note models.Notification) *models.Notification {
	key := "notice:" + scope + ":" + note.ID
	ok, err := n.store.Claim(ctx, key, n.ttl)
	if err != nil {
		n.logger.Warn("notice store claim failed", zap.String("key", key), zap.Error(err))
		return &note
	}
	if !ok {
		return nil
	}
	return &note
}
