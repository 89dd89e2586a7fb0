// internal/service/social/streak.go

package social

import "time"

// dayOf truncates a time to its calendar day, midnight-aligned in the
// time's own location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextStreak applies the calendar-day streak rule to one new activity.
//
// Days are midnight-aligned, not rolling 24h windows: activity at 23:59
// and the next at 00:01 land on consecutive days and extend the streak.
// Same day leaves the streak unchanged; exactly yesterday increments it;
// anything older resets to 1. The second return reports whether the streak
// value changed.
func NextStreak(current int, lastActiveDay *time.Time, activityAt time.Time) (int, bool) {
	today := dayOf(activityAt)

	if lastActiveDay == nil || current == 0 {
		return 1, true
	}

	last := dayOf(*lastActiveDay)
	switch {
	case last.Equal(today):
		return current, false
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1, true
	default:
		return 1, true
	}
}

// RecencyDecay returns the linear engagement decay factor for the days
// elapsed since the user's last active day. It reaches zero once the gap
// equals the decay window (30 days by default).
func RecencyDecay(lastActiveDay *time.Time, now time.Time, window time.Duration) float64 {
	if lastActiveDay == nil {
		return 0
	}
	elapsed := dayOf(now).Sub(dayOf(*lastActiveDay))
	if elapsed <= 0 {
		return 1
	}
	factor := 1 - elapsed.Hours()/window.Hours()
	if factor < 0 {
		return 0
	}
	return factor
}
