// Package domain holds the typed identifiers shared across the service.
// IDs are UUID-backed value types so an application id can never be passed
// where a user id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "coppice/pkg/domain-errors"
)

// ApplicationID identifies a felling licence application aggregate.
type ApplicationID uuid.UUID

// UserID identifies an internal or external user account.
type UserID uuid.UUID

func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) String() string { return uuid.UUID(id).String() }

// NewApplicationID mints a random application id.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewUserID mints a random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseApplicationID parses and validates an application id from its string
// form. Empty, malformed and nil UUIDs are rejected at this trust boundary.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

// ParseUserID parses and validates a user id from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
