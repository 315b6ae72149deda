package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFireTime(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"23:59", 23, 59, false},
		{"0:05", 0, 5, false},
		{" 12:30 ", 12, 30, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noonish", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := parseFireTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestNextFireTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)

	t.Run("later today", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 8, 30, 0, 0, loc)
		next := nextFireTime(now, "09:00")
		assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, loc), next)
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 9, 30, 0, 0, loc)
		next := nextFireTime(now, "09:00")
		assert.Equal(t, time.Date(2024, 5, 2, 9, 0, 0, 0, loc), next)
	})

	t.Run("exactly at fire time rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 9, 0, 0, 0, loc)
		next := nextFireTime(now, "09:00")
		assert.Equal(t, time.Date(2024, 5, 2, 9, 0, 0, 0, loc), next)
	})
}
