package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.RWMutex
	items map[string][]Item
}

// NewMemoryStore constructs an in-memory inbox store.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string][]Item)}
}

func (s *memoryStore) Add(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.UserID] = append(s.items[item.UserID], item)
	return nil
}

func (s *memoryStore) List(_ context.Context, userID string, limit int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.items[userID]
	out := make([]Item, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkRead(_ context.Context, userID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[userID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		if !items[i].Read {
			at := at.UTC()
			items[i].Read = true
			items[i].ReadAt = &at
		}
		return nil
	}
	return ErrNotFound
}

func (s *memoryStore) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at = at.UTC()
	n := 0
	items := s.items[userID]
	for i := range items {
		if items[i].Read {
			continue
		}
		stamp := at
		items[i].Read = true
		items[i].ReadAt = &stamp
		n++
	}
	return n, nil
}

func (s *memoryStore) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items[userID] {
		if !item.Read {
			n++
		}
	}
	return n, nil
}
