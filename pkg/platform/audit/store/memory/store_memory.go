package memory

import (
	"context"
	"sync"

	id "coppice/pkg/domain"
	audit "coppice/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByApplication returns events recorded against one application, in
// append order.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.ApplicationID == appID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every recorded event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
