package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateKey_UsesUTC(t *testing.T) {
	late := time.Date(2026, 3, 1, 22, 0, 0, 0, time.FixedZone("UTC-4", -4*3600))

	assert.Equal(t, "2026-03-02", DateKey(late))
}

func TestValidateDateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"2026-10-19", false},
		{"2024-02-29", false},
		{"2026-02-29", true},
		{"2026-1-9", true},
		{"19/10/2026", true},
		{"../etc/passwd", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateDateKey(tt.key)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
