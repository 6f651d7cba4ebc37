package schedule

import (
	"testing"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWeekMinutes(t *testing.T) {
	m, err := ToWeekMinutes("MON", "09:30")
	require.NoError(t, err)
	assert.Equal(t, 1440+9*60+30, m)

	_, err = ToWeekMinutes("XYZ", "09:30")
	require.ErrorIs(t, err, ErrBadWeekday)

	_, err = ToWeekMinutes("SUN", "25:99")
	require.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	mon9 := domain.LessonTime{WeekStart: 1440 + 540, WeekEnd: 1440 + 600}
	mon930 := domain.LessonTime{WeekStart: 1440 + 570, WeekEnd: 1440 + 630}
	mon10 := domain.LessonTime{WeekStart: 1440 + 600, WeekEnd: 1440 + 660}
	satNight := domain.LessonTime{WeekStart: 6*1440 + 1380, WeekEnd: 30} // wraps into Sunday
	sunEarly := domain.LessonTime{WeekStart: 0, WeekEnd: 60}

	assert.True(t, Overlaps(mon9, mon930))
	assert.False(t, Overlaps(mon9, mon10))
	assert.True(t, Overlaps(satNight, sunEarly))
	assert.True(t, Overlaps(sunEarly, satNight))
}

func TestResolve(t *testing.T) {
	// Wednesday 2026-10-14 10:00 UTC
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	hour := int64(time.Hour / time.Millisecond)

	t.Run("no lesson times", func(t *testing.T) {
		w, ok := Resolve(nil, now)
		assert.False(t, ok)
		assert.Nil(t, w)
	})

	t.Run("ongoing lesson wins over later ones", func(t *testing.T) {
		times := []domain.LessonTime{
			{WeekStart: 3*1440 + 9*60, WeekEnd: 3*1440 + 11*60, Timezone: "UTC", EarlyOpenWindow: hour},
			{WeekStart: 5*1440 + 9*60, WeekEnd: 5*1440 + 11*60, Timezone: "UTC"},
		}
		w, ok := Resolve(times, now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC).UnixMilli(), w.Start)
		assert.Equal(t, time.Date(2026, 10, 14, 11, 0, 0, 0, time.UTC).UnixMilli(), w.End)
		assert.Equal(t, w.Start-hour, w.EarlyOpen)
		assert.False(t, TooEarly(w, now))
	})

	t.Run("past lesson rolls over to next week", func(t *testing.T) {
		times := []domain.LessonTime{
			{WeekStart: 1*1440 + 9*60, WeekEnd: 1*1440 + 10*60, Timezone: "UTC", EarlyOpenWindow: hour},
		}
		w, ok := Resolve(times, now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC).UnixMilli(), w.Start)
		assert.True(t, TooEarly(w, now))
	})

	t.Run("upcoming lesson in early open window", func(t *testing.T) {
		times := []domain.LessonTime{
			{WeekStart: 3*1440 + 10*60 + 30, WeekEnd: 3*1440 + 12*60, Timezone: "UTC", EarlyOpenWindow: hour},
		}
		w, ok := Resolve(times, now)
		require.True(t, ok)
		assert.False(t, TooEarly(w, now))
		assert.True(t, TooEarly(w, now.Add(-time.Hour)))
	})
}
