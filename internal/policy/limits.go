// Package policy holds the time-based rules of the suggestion lifecycle:
// the daily generation quota window and the suggestion validity window.
// Everything here is a pure function of its inputs.
package policy

import "time"

const (
	// DefaultDailySuggestionLimit caps suggestions per user, per planned date, per UTC day.
	DefaultDailySuggestionLimit = 3
	// DefaultSuggestionTTL is how long a shown suggestion stays actionable.
	DefaultSuggestionTTL = 24 * time.Hour
)

// Limits carries the configurable knobs. Zero values fall back to the defaults.
type Limits struct {
	DailySuggestionLimit int
	SuggestionTTL        time.Duration
}

// Default returns the stock limits.
func Default() Limits {
	return Limits{
		DailySuggestionLimit: DefaultDailySuggestionLimit,
		SuggestionTTL:        DefaultSuggestionTTL,
	}
}

// Normalize fills unset fields with defaults.
func (l Limits) Normalize() Limits {
	if l.DailySuggestionLimit <= 0 {
		l.DailySuggestionLimit = DefaultDailySuggestionLimit
	}
	if l.SuggestionTTL <= 0 {
		l.SuggestionTTL = DefaultSuggestionTTL
	}
	return l
}

// QuotaWindow returns the [start, end) bounds of the UTC calendar day containing now.
func QuotaWindow(now time.Time) (time.Time, time.Time) {
	start := DateOnly(now)
	return start, start.AddDate(0, 0, 1)
}

// QuotaExceeded reports whether a user who already created `used` suggestions
// in the current window may not create another.
func (l Limits) QuotaExceeded(used int) bool {
	return used >= l.Normalize().DailySuggestionLimit
}

// ExpiresAt is the instant a suggestion created at createdAt stops being actionable.
func (l Limits) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(l.Normalize().SuggestionTTL)
}

// Expired reports whether a suggestion created at createdAt is past its window at now.
// The boundary instant itself counts as expired.
func (l Limits) Expired(createdAt, now time.Time) bool {
	return !now.Before(l.ExpiresAt(createdAt))
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
