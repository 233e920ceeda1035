package store

import (
	"context"
	"sync"
	"time"

	"coppice/internal/fla/models"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/sentinel"
)

// InMemoryStore holds application aggregates behind a coarse lock. It backs
// unit tests and local development; the Postgres store is the production
// implementation. Reads return deep copies so callers can only mutate state
// through store methods.
type InMemoryStore struct {
	mu      sync.RWMutex
	apps    map[id.ApplicationID]*models.Application
	notes   map[id.ApplicationID][]models.CaseNote
	reviews map[id.ApplicationID]models.ApproverReview
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		apps:  make(map[id.ApplicationID]*models.Application),
		notes: make(map[id.ApplicationID][]models.CaseNote),
	}
}

// Add seeds an aggregate. Fails with sentinel.ErrConflict on duplicate id.
func (s *InMemoryStore) Add(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = clone(app)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, exists := s.apps[appID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return clone(app), nil
}

func (s *InMemoryStore) AppendStatusHistory(_ context.Context, entry models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, exists := s.apps[entry.ApplicationID]
	if !exists {
		return sentinel.ErrNotFound
	}
	app.StatusHistory = append(app.StatusHistory, entry)
	return nil
}

func (s *InMemoryStore) SetFinalActionDate(_ context.Context, appID id.ApplicationID, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, exists := s.apps[appID]
	if !exists {
		return sentinel.ErrNotFound
	}
	app.FinalActionDate = date
	return nil
}

func (s *InMemoryStore) SetDecisionRegisterDetails(_ context.Context, appID id.ApplicationID, publishedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, exists := s.apps[appID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if app.PublicRegister == nil {
		app.PublicRegister = &models.PublicRegisterRecord{}
	}
	app.PublicRegister.DecisionPublishedAt = &publishedAt
	app.PublicRegister.DecisionExpiresAt = &expiresAt
	return nil
}

func (s *InMemoryStore) SetRemovalDate(_ context.Context, appID id.ApplicationID, kind models.RegisterKind, removedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, exists := s.apps[appID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if app.PublicRegister == nil {
		return sentinel.ErrInvalidState
	}
	switch kind {
	case models.ConsultationRegister:
		app.PublicRegister.ConsultationRemovedAt = &removedAt
	case models.DecisionRegister:
		app.PublicRegister.DecisionRemovedAt = &removedAt
	}
	return nil
}

func (s *InMemoryStore) AddCaseNote(_ context.Context, note models.CaseNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[note.ApplicationID]; !exists {
		return sentinel.ErrNotFound
	}
	s.notes[note.ApplicationID] = append(s.notes[note.ApplicationID], note)
	return nil
}

// ListCaseNotes returns the notes attached to an application, in append order.
func (s *InMemoryStore) ListCaseNotes(_ context.Context, appID id.ApplicationID) ([]models.CaseNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CaseNote{}, s.notes[appID]...), nil
}

// ListFinalActionDateDue returns applications in a review status whose final
// action date falls on or before the cutoff.
func (s *InMemoryStore) ListFinalActionDateDue(_ context.Context, cutoff time.Time) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if !models.ReviewStatuses[app.CurrentStatus()] {
			continue
		}
		if app.FinalActionDate.After(cutoff) {
			continue
		}
		out = append(out, clone(app))
	}
	return out, nil
}

// ListWithApplicantSince returns applications that entered a with-applicant
// status on or before the cutoff and have stayed there.
func (s *InMemoryStore) ListWithApplicantSince(_ context.Context, cutoff time.Time) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if !models.WithApplicantStatuses[app.CurrentStatus()] {
			continue
		}
		entered := latestStatusTime(app)
		if entered.After(cutoff) {
			continue
		}
		out = append(out, clone(app))
	}
	return out, nil
}

// ListRegisterExpiryDue returns applications whose entry on the given
// register has expired and has not been removed yet.
func (s *InMemoryStore) ListRegisterExpiryDue(_ context.Context, kind models.RegisterKind, now time.Time) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		r := app.PublicRegister
		if r == nil {
			continue
		}
		var expires, removed *time.Time
		switch kind {
		case models.ConsultationRegister:
			expires, removed = r.ConsultationExpiresAt, r.ConsultationRemovedAt
		case models.DecisionRegister:
			expires, removed = r.DecisionExpiresAt, r.DecisionRemovedAt
		}
		if expires == nil || removed != nil || expires.After(now) {
			continue
		}
		out = append(out, clone(app))
	}
	return out, nil
}

func latestStatusTime(app *models.Application) time.Time {
	var latest time.Time
	for _, e := range app.StatusHistory {
		if e.Created.After(latest) {
			latest = e.Created
		}
	}
	return latest
}

func clone(app *models.Application) *models.Application {
	cp := *app
	cp.StatusHistory = append([]models.StatusHistoryEntry{}, app.StatusHistory...)
	cp.AssigneeHistory = append([]models.AssigneeHistoryEntry{}, app.AssigneeHistory...)
	if app.PublicRegister != nil {
		pr := *app.PublicRegister
		cp.PublicRegister = &pr
	}
	return &cp
}

// SetApproverReview stores the approver's confirmed review settings.
func (s *InMemoryStore) SetApproverReview(_ context.Context, review models.ApproverReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[review.ApplicationID]; !exists {
		return sentinel.ErrNotFound
	}
	if s.reviews == nil {
		s.reviews = make(map[id.ApplicationID]models.ApproverReview)
	}
	s.reviews[review.ApplicationID] = review
	return nil
}

// GetApproverReview returns the stored review settings; absence defaults to
// publication requested, matching the register's opt-out model.
func (s *InMemoryStore) GetApproverReview(_ context.Context, appID id.ApplicationID) (models.ApproverReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if review, ok := s.reviews[appID]; ok {
		return review, nil
	}
	return models.ApproverReview{ApplicationID: appID, PublishToDecisionRegister: true}, nil
}
