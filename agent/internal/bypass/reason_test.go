package bypass

import (
	"testing"

	"focus-guard/agent/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateReason(t *testing.T) {
	tests := []struct {
		reason string
		ok     bool
	}{
		{"asdf", false},
		{"aaaaaaaaaa", false},
		{"I need this for a work deadline", true},
		{"   short   ", false},
		{"test test", false},
		{"Test   Test", false},
		{"1234567890123", false},
		{"!!!!!!!!!!!!", false},
		{"abababababab", false},
		{"abcabc abcabc", false},
		{"asdfghjkl stuff", false},
		{"qwertyuiop", false},
		{"lorem ipsum dolor", false},
		{"hello hello hello", false},
		{"just because", false},
		{"Checking a recruiter message", true},
		{"Reply to my manager on Q3 report", true},
		{"go  to  hr", true},
		{"go to hr", false},
		{"  go to hr  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			err := ValidateReason(tt.reason)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.False(t, ReasonAcceptable(tt.reason))
		})
	}
}
