package bookkeep_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"datetime-local input", "2024-07-01T14:30", "2024-07-01 14:30:00", true},
		{"space separated", "2024-07-01 14:30", "2024-07-01 14:30:00", true},
		{"T separated with seconds", "2024-07-01T14:30:45", "2024-07-01 14:30:45", true},
		{"space separated with seconds", "2024-07-01 14:30:45", "2024-07-01 14:30:45", true},
		{"bare date normalizes to midnight", "2024-07-01", "2024-07-01 00:00:00", true},
		{"garbage", "invalid-date", "", false},
		{"empty", "", "", false},
		{"partial date", "2024-07", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bookkeep.NormalizeTimestamp(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimestampOrNow(t *testing.T) {
	t.Run("explicit timestamp is canonicalized", func(t *testing.T) {
		assert.Equal(t, "2024-07-01 14:30:00", bookkeep.TimestampOrNow("2024-07-01T14:30"))
	})

	t.Run("absent timestamp defaults to now", func(t *testing.T) {
		got := bookkeep.TimestampOrNow("")
		require.NotEmpty(t, got)
		parsed, err := time.Parse(bookkeep.TimestampLayout, got)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), parsed, 5*time.Second)
	})

	t.Run("malformed explicit input is dropped", func(t *testing.T) {
		assert.Empty(t, bookkeep.TimestampOrNow("not-a-date"))
	})
}
