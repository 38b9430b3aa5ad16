package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"enroll/internal/registrant/models"
	"enroll/pkg/platform/sentinel"
)

// InMemory keeps registrants in insertion order, like rows of a sheet.
type InMemory struct {
	mu      sync.RWMutex
	rows    []*models.Registrant
	byID    map[string]int
	missing map[models.Field]bool
}

type Option func(*InMemory)

// WithoutFields simulates a deployment whose table lacks the given fields:
// writes to them are dropped and MissingColumns reports them.
func WithoutFields(fields ...models.Field) Option {
	return func(s *InMemory) {
		for _, f := range fields {
			s.missing[f] = true
		}
	}
}

func New(opts ...Option) *InMemory {
	s := &InMemory{
		byID:    make(map[string]int),
		missing: make(map[models.Field]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) EnsureSchema(_ context.Context) error { return nil }

func (s *InMemory) MissingColumns(_ context.Context) ([]models.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Field
	for f := range s.missing {
		out = append(out, f)
	}
	slices.Sort(out)
	return out, nil
}

func (s *InMemory) AppendNew(_ context.Context, r *models.Registrant) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("registrant id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[r.ID]; exists {
		return fmt.Errorf("append registrant %s: %w", r.ID, sentinel.ErrConflict)
	}
	s.byID[r.ID] = len(s.rows)
	s.rows = append(s.rows, r.Clone())
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.rows[idx].Clone(), nil
}

func (s *InMemory) FindByTaxID(_ context.Context, taxID string) (*models.Registrant, error) {
	return s.findLast(func(r *models.Registrant) bool { return taxID != "" && r.TaxID == taxID })
}

func (s *InMemory) FindByEmail(_ context.Context, addr string) (*models.Registrant, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findLast(func(r *models.Registrant) bool { return r.MatchesEmail(addr) })
}

// findLast scans from the newest row so duplicates resolve to the latest.
func (s *InMemory) findLast(match func(*models.Registrant) bool) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.rows) - 1; i >= 0; i-- {
		if match(s.rows[i]) {
			return s.rows[i].Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registrant, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *InMemory) UpsertFields(_ context.Context, id string, values models.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(id, values)
}

// UpsertMany validates every id before writing so a bad patch leaves the
// table untouched.
func (s *InMemory) UpsertMany(_ context.Context, patches []models.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range patches {
		if _, ok := s.byID[p.ID]; !ok {
			return fmt.Errorf("patch registrant %s: %w", p.ID, sentinel.ErrNotFound)
		}
	}
	for _, p := range patches {
		if err := s.applyLocked(p.ID, p.Values); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemory) applyLocked(id string, values models.Values) error {
	idx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("patch registrant %s: %w", id, sentinel.ErrNotFound)
	}
	next := s.rows[idx].Clone()
	for f, v := range values {
		if s.missing[f] {
			continue
		}
		if f == models.FieldID {
			return fmt.Errorf("registrant id is immutable")
		}
		if err := models.Apply(next, f, v); err != nil {
			return err
		}
	}
	s.rows[idx] = next
	return nil
}
