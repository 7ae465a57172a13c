package session

import (
	"context"
	"sync"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// MemoryStore is a process-local Store. Forms are copied on the way in and
// out so callers never share a pointer with the map.
type MemoryStore struct {
	mu    sync.RWMutex
	forms map[string]*models.Form
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forms: make(map[string]*models.Form)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, reporterID string) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forms[reporterID].Clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, reporterID string, form *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[reporterID] = form.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, reporterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, reporterID)
	return nil
}

// Len returns the number of active sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

// ExpireIdle implements Expirer.
func (s *MemoryStore) ExpireIdle(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, form := range s.forms {
		if form.UpdatedAt.Before(cutoff) {
			delete(s.forms, id)
			removed++
		}
	}
	return removed, nil
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Expirer = (*MemoryStore)(nil)
)
