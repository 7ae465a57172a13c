package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// InMemoryStore keeps reports in process memory. It is used when no database
// DSN is configured and in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
	inbound map[string]DedupRecord
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]models.Report),
		inbound: make(map[string]DedupRecord),
	}
}

func (s *InMemoryStore) CreateReport(_ context.Context, r models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.MediaURLs = append([]string{}, r.MediaURLs...)
	s.reports[r.ID] = r
	return nil
}

// listable returns non-invalid reports, newest first. Callers hold the read lock.
func (s *InMemoryStore) listable() []models.Report {
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if r.Status != models.ReportStatusInvalid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *InMemoryStore) ListReports(_ context.Context, page, size int) ([]models.Report, int, error) {
	page, size = NormalizePage(page, size)
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.listable()
	start := offset(page, size)
	if start >= len(all) {
		return []models.Report{}, len(all), nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (s *InMemoryStore) ListMapReports(_ context.Context, limit int) ([]models.Report, error) {
	if limit < 1 || limit > MaxMapReports {
		limit = MaxMapReports
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Report{}
	for _, r := range s.listable() {
		if r.Lat == 0 && r.Lon == 0 {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, models.ErrReportNotFound
	}
	return &r, nil
}

func (s *InMemoryStore) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return models.ErrReportNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func (s *InMemoryStore) RecordInbound(_ context.Context, messageID, reporterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inbound[messageID]; ok {
		return false, nil
	}
	s.inbound[messageID] = DedupRecord{MessageID: messageID, ReporterID: reporterID, ReceivedAt: time.Now()}
	return true, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.inbound[messageID]
	if !ok {
		return nil
	}
	now := time.Now()
	rec.ProcessedAt = &now
	s.inbound[messageID] = rec
	return nil
}

var _ Store = (*InMemoryStore)(nil)
