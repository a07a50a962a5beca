package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/schedule"
)

func TestDue(t *testing.T) {
	t.Parallel()

	policy := schedule.NewPolicy("Europe/Kyiv", nil)

	// 2025-07-15 06:30 UTC is 09:30 in Kyiv (UTC+3 in summer).
	now := time.Date(2025, 7, 15, 6, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		sub      database.ChatSubscription
		expected bool
	}{
		{
			name:     "due at preferred hour",
			sub:      database.ChatSubscription{Enabled: true, DigestHour: 6, Timezone: "UTC"},
			expected: true,
		},
		{
			name:     "local hour differs from utc hour",
			sub:      database.ChatSubscription{Enabled: true, DigestHour: 9, Timezone: "UTC"},
			expected: false,
		},
		{
			name:     "due in subscription zone",
			sub:      database.ChatSubscription{Enabled: true, DigestHour: 9, Timezone: "Europe/Kyiv"},
			expected: true,
		},
		{
			name:     "empty zone falls back to default",
			sub:      database.ChatSubscription{Enabled: true, DigestHour: 9, Timezone: ""},
			expected: true,
		},
		{
			name:     "disabled subscription",
			sub:      database.ChatSubscription{Enabled: false, DigestHour: 9, Timezone: "Europe/Kyiv"},
			expected: false,
		},
		{
			name:     "hour mismatch",
			sub:      database.ChatSubscription{Enabled: true, DigestHour: 10, Timezone: "Europe/Kyiv"},
			expected: false,
		},
		{
			name: "already delivered this hour",
			sub: database.ChatSubscription{
				Enabled:      true,
				DigestHour:   9,
				Timezone:     "Europe/Kyiv",
				LastDigestAt: time.Date(2025, 7, 15, 6, 5, 0, 0, time.UTC).Unix(),
			},
			expected: false,
		},
		{
			name: "delivered yesterday at the same hour",
			sub: database.ChatSubscription{
				Enabled:      true,
				DigestHour:   9,
				Timezone:     "Europe/Kyiv",
				LastDigestAt: time.Date(2025, 7, 14, 6, 5, 0, 0, time.UTC).Unix(),
			},
			expected: true,
		},
		{
			name: "unknown zone falls back to UTC",
			sub: database.ChatSubscription{
				Enabled:    true,
				DigestHour: 6,
				Timezone:   "Mars/Olympus",
			},
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, policy.Due(tc.sub, now))
		})
	}
}

// The sweep ticks several times within the due hour; only the first tick
// without a watermark delivers, and bumping the watermark suppresses the rest.
func TestDueWatermarkSuppressesRepeatTicks(t *testing.T) {
	t.Parallel()

	policy := schedule.NewPolicy("Europe/Kyiv", nil)

	sub := database.ChatSubscription{Enabled: true, DigestHour: 9, Timezone: "Europe/Kyiv"}

	ticks := []time.Time{
		time.Date(2025, 7, 15, 6, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 15, 6, 10, 0, 0, time.UTC),
		time.Date(2025, 7, 15, 6, 50, 0, 0, time.UTC),
	}

	delivered := 0
	for _, tick := range ticks {
		if policy.Due(sub, tick) {
			delivered++
			sub.LastDigestAt = tick.Unix()
		}
	}

	require.Equal(t, 1, delivered)

	// The next day the same hour is due again.
	nextDay := time.Date(2025, 7, 16, 6, 10, 0, 0, time.UTC)
	assert.True(t, policy.Due(sub, nextDay))
}
