package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coppice/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})

	t.Run("application ids share the same validation", func(t *testing.T) {
		_, err := ParseApplicationID("")
		require.Error(t, err)

		validUUID := uuid.New()
		id, err := ParseApplicationID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ApplicationID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	appID := ApplicationID(uuid.New())
	userID := UserID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ ApplicationID = userID   // compile error
	// var _ UserID = appID           // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(appID), uuid.UUID(userID))
}

// TestParseID_SecurityInvariants validates trust boundary parsing rules:
// ids arrive in URLs and forwarded headers and must reject attack vectors.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE felling_applications;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseApplicationID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}
