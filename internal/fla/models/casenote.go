package models

import (
	"time"

	"github.com/google/uuid"

	id "coppice/pkg/domain"
)

// CaseNoteType classifies a case note for filtering in the case file.
type CaseNoteType string

const (
	CaseNoteGeneral        CaseNoteType = "General"
	CaseNoteReturnToReview CaseNoteType = "ReturnToReview"
)

// CaseNote is a free-text note attached to an application's case file.
type CaseNote struct {
	ID            uuid.UUID
	ApplicationID id.ApplicationID
	Type          CaseNoteType
	Text          string
	CreatedByID   id.UserID
	CreatedAt     time.Time
}
