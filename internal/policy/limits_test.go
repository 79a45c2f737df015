package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotaWindow_UTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-06-02 03:00 local is still 2025-06-01 in UTC.
	now := time.Date(2025, 6, 2, 3, 0, 0, 0, loc)

	start, end := QuotaWindow(now)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), end)
}

func TestLimits_QuotaExceeded(t *testing.T) {
	l := Default()
	assert.False(t, l.QuotaExceeded(0))
	assert.False(t, l.QuotaExceeded(2))
	assert.True(t, l.QuotaExceeded(3))
	assert.True(t, l.QuotaExceeded(7))

	custom := Limits{DailySuggestionLimit: 1}
	assert.True(t, custom.QuotaExceeded(1))
}

func TestLimits_Expired(t *testing.T) {
	l := Limits{}
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, created.Add(24*time.Hour), l.ExpiresAt(created))
	assert.False(t, l.Expired(created, created.Add(23*time.Hour+59*time.Minute)))
	assert.True(t, l.Expired(created, created.Add(24*time.Hour)))
	assert.True(t, l.Expired(created, created.Add(72*time.Hour)))
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 6, 1, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
