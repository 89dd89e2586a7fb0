package social

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02 15:04", s)
		if err != nil {
			t.Fatalf("bad time literal %q: %v", s, err)
		}
		return d
	}

	t.Run("first ever activity starts at one", func(t *testing.T) {
		streak, changed := NextStreak(0, nil, day("2026-03-02 10:00"))
		assert.Equal(t, 1, streak)
		assert.True(t, changed)
	})

	t.Run("second activity same day is a no-op", func(t *testing.T) {
		last := day("2026-03-02 08:00")
		streak, changed := NextStreak(4, &last, day("2026-03-02 22:00"))
		assert.Equal(t, 4, streak)
		assert.False(t, changed)
	})

	t.Run("activity the next calendar day extends", func(t *testing.T) {
		last := day("2026-03-02 10:00")
		streak, changed := NextStreak(4, &last, day("2026-03-03 10:00"))
		assert.Equal(t, 5, streak)
		assert.True(t, changed)
	})

	t.Run("23:59 then 00:01 counts as consecutive days", func(t *testing.T) {
		last := day("2026-03-02 23:59")
		streak, changed := NextStreak(1, &last, day("2026-03-03 00:01"))
		assert.Equal(t, 2, streak)
		assert.True(t, changed)
	})

	t.Run("a skipped day resets to one", func(t *testing.T) {
		last := day("2026-03-02 10:00")
		streak, changed := NextStreak(30, &last, day("2026-03-04 10:00"))
		assert.Equal(t, 1, streak)
		assert.True(t, changed)
	})

	t.Run("a long gap resets to one", func(t *testing.T) {
		last := day("2026-01-01 10:00")
		streak, _ := NextStreak(365, &last, day("2026-03-04 10:00"))
		assert.Equal(t, 1, streak)
	})
}

func TestRecencyDecay(t *testing.T) {
	window := 30 * 24 * time.Hour
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	t.Run("never active decays to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, RecencyDecay(nil, now, window))
	})

	t.Run("active today has no decay", func(t *testing.T) {
		today := now.Add(-2 * time.Hour)
		assert.Equal(t, 1.0, RecencyDecay(&today, now, window))
	})

	t.Run("halfway through the window decays by half", func(t *testing.T) {
		last := now.AddDate(0, 0, -15)
		assert.InDelta(t, 0.5, RecencyDecay(&last, now, window), 1e-9)
	})

	t.Run("past the window is zero", func(t *testing.T) {
		last := now.AddDate(0, 0, -45)
		assert.Equal(t, 0.0, RecencyDecay(&last, now, window))
	})
}
