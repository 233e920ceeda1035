package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "single address",
			input:    []string{"wes.officer@forestry.example"},
			expected: []string{"wes.officer@forestry.example"},
		},
		{
			name:     "casing variants collapse onto one mailbox",
			input:    []string{"Wes.Officer@forestry.example", "wes.officer@forestry.example", "WES.OFFICER@forestry.example"},
			expected: []string{"wes.officer@forestry.example"},
		},
		{
			name:     "padding and empties are dropped",
			input:    []string{" ada.birch@forestry.example ", "", "  ", "ada.birch@forestry.example"},
			expected: []string{"ada.birch@forestry.example"},
		},
		{
			name:     "first occurrence order is kept",
			input:    []string{"b@forestry.example", "a@forestry.example", "B@forestry.example"},
			expected: []string{"b@forestry.example", "a@forestry.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
