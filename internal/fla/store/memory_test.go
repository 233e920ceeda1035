package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coppice/internal/fla/models"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/sentinel"
)

func seedApp(t *testing.T, s *InMemoryStore, status models.Status, at time.Time) *models.Application {
	t.Helper()
	app := &models.Application{
		ID:            id.NewApplicationID(),
		CaseReference: "FLA/2026/9001",
		StatusHistory: []models.StatusHistoryEntry{
			{Status: status, Created: at},
		},
	}
	app.StatusHistory[0].ApplicationID = app.ID
	require.NoError(t, s.Add(context.Background(), app))
	return app
}

func TestInMemoryStore_AddAndGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	app := seedApp(t, s, models.StatusSubmitted, now)

	t.Run("duplicate ids conflict", func(t *testing.T) {
		assert.ErrorIs(t, s.Add(ctx, app), sentinel.ErrConflict)
	})

	t.Run("unknown ids are not found", func(t *testing.T) {
		_, err := s.Get(ctx, id.NewApplicationID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("reads are isolated from caller mutation", func(t *testing.T) {
		got, err := s.Get(ctx, app.ID)
		require.NoError(t, err)
		got.StatusHistory = append(got.StatusHistory, models.StatusHistoryEntry{
			ApplicationID: app.ID,
			Status:        models.StatusWithdrawn,
			Created:       now.Add(time.Hour),
		})

		fresh, err := s.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Len(t, fresh.StatusHistory, 1)
		assert.Equal(t, models.StatusSubmitted, fresh.CurrentStatus())
	})
}

func TestInMemoryStore_StatusAppend(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	app := seedApp(t, s, models.StatusSentForApproval, now)

	require.NoError(t, s.AppendStatusHistory(ctx, models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        models.StatusApproved,
		Created:       now.Add(time.Hour),
	}))

	got, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.CurrentStatus())
	assert.Len(t, got.StatusHistory, 2)

	err = s.AppendStatusHistory(ctx, models.StatusHistoryEntry{
		ApplicationID: id.NewApplicationID(),
		Status:        models.StatusApproved,
	})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_RegisterWrites(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	app := seedApp(t, s, models.StatusApproved, now)

	t.Run("decision details create the record when absent", func(t *testing.T) {
		expires := now.Add(28 * 24 * time.Hour)
		require.NoError(t, s.SetDecisionRegisterDetails(ctx, app.ID, now, expires))

		got, err := s.Get(ctx, app.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PublicRegister)
		assert.Equal(t, now, *got.PublicRegister.DecisionPublishedAt)
		assert.Equal(t, expires, *got.PublicRegister.DecisionExpiresAt)
	})

	t.Run("removal stamps the requested register only", func(t *testing.T) {
		removedAt := now.Add(30 * 24 * time.Hour)
		require.NoError(t, s.SetRemovalDate(ctx, app.ID, models.DecisionRegister, removedAt))

		got, err := s.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, removedAt, *got.PublicRegister.DecisionRemovedAt)
		assert.Nil(t, got.PublicRegister.ConsultationRemovedAt)
	})

	t.Run("removal without a record is an invalid state", func(t *testing.T) {
		other := seedApp(t, s, models.StatusApproved, now)
		err := s.SetRemovalDate(ctx, other.ID, models.DecisionRegister, now)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})
}

func TestInMemoryStore_CaseNotes(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	app := seedApp(t, s, models.StatusSentForApproval, now)

	first := models.CaseNote{ID: uuid.New(), ApplicationID: app.ID, Type: models.CaseNoteReturnToReview, Text: "returned for survey rework", CreatedAt: now}
	second := models.CaseNote{ID: uuid.New(), ApplicationID: app.ID, Type: models.CaseNoteGeneral, Text: "survey received", CreatedAt: now.Add(time.Hour)}
	require.NoError(t, s.AddCaseNote(ctx, first))
	require.NoError(t, s.AddCaseNote(ctx, second))

	notes, err := s.ListCaseNotes(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, second.ID, notes[1].ID)

	err = s.AddCaseNote(ctx, models.CaseNote{ID: uuid.New(), ApplicationID: id.NewApplicationID()})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ApproverReview(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	app := seedApp(t, s, models.StatusSentForApproval, now)

	t.Run("absence defaults to publication requested", func(t *testing.T) {
		review, err := s.GetApproverReview(ctx, app.ID)
		require.NoError(t, err)
		assert.True(t, review.PublishToDecisionRegister)
	})

	t.Run("a stored opt-out is returned as stored", func(t *testing.T) {
		require.NoError(t, s.SetApproverReview(ctx, models.ApproverReview{
			ApplicationID:             app.ID,
			PublishToDecisionRegister: false,
		}))
		review, err := s.GetApproverReview(ctx, app.ID)
		require.NoError(t, err)
		assert.False(t, review.PublishToDecisionRegister)
	})

	t.Run("reviews for unknown applications are rejected", func(t *testing.T) {
		err := s.SetApproverReview(ctx, models.ApproverReview{ApplicationID: id.NewApplicationID()})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStore_BatchQueries(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	due := seedApp(t, s, models.StatusWoodlandOfficerReview, now.Add(-30*24*time.Hour))
	due.FinalActionDate = now.Add(5 * 24 * time.Hour)
	far := seedApp(t, s, models.StatusWoodlandOfficerReview, now.Add(-30*24*time.Hour))
	far.FinalActionDate = now.Add(90 * 24 * time.Hour)

	t.Run("final action date query respects status and cutoff", func(t *testing.T) {
		// The aggregate was mutated after Add; write the dates through the store.
		require.NoError(t, s.SetFinalActionDate(ctx, due.ID, due.FinalActionDate))
		require.NoError(t, s.SetFinalActionDate(ctx, far.ID, far.FinalActionDate))

		got, err := s.ListFinalActionDateDue(ctx, now.Add(10*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, due.ID, got[0].ID)
	})

	t.Run("with-applicant query keys off the time the status was entered", func(t *testing.T) {
		stale := seedApp(t, s, models.StatusWithApplicant, now.Add(-20*24*time.Hour))
		seedApp(t, s, models.StatusWithApplicant, now.Add(-2*24*time.Hour))

		got, err := s.ListWithApplicantSince(ctx, now.Add(-14*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, stale.ID, got[0].ID)
	})

	t.Run("expiry query ignores already-removed entries", func(t *testing.T) {
		expired := now.Add(-24 * time.Hour)

		pending := seedApp(t, s, models.StatusApproved, now.Add(-60*24*time.Hour))
		require.NoError(t, s.SetDecisionRegisterDetails(ctx, pending.ID, now.Add(-30*24*time.Hour), expired))

		removed := seedApp(t, s, models.StatusApproved, now.Add(-60*24*time.Hour))
		require.NoError(t, s.SetDecisionRegisterDetails(ctx, removed.ID, now.Add(-30*24*time.Hour), expired))
		require.NoError(t, s.SetRemovalDate(ctx, removed.ID, models.DecisionRegister, now))

		got, err := s.ListRegisterExpiryDue(ctx, models.DecisionRegister, now)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pending.ID, got[0].ID)
	})
}
