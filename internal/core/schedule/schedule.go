// Package schedule resolves weekly recurring lesson times to concrete windows.
package schedule

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/dkeye/rclass/internal/domain"
)

// DefaultTimezone applies to lesson times stored without one.
const DefaultTimezone = "Asia/Seoul"

var ErrBadWeekday = errors.New("invalid weekday")

var weekdays = map[string]int{"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6}

// ToWeekMinutes converts "MON", "09:30" to minutes since Sunday 00:00.
func ToWeekMinutes(weekday, clock string) (int, error) {
	day, ok := weekdays[weekday]
	if !ok {
		return 0, fmt.Errorf("%q: %w", weekday, ErrBadWeekday)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", clock, err)
	}
	return day*24*60 + t.Hour()*60 + t.Minute(), nil
}

// Normalize makes an interval that wraps past Saturday midnight end after it starts.
func Normalize(start, end int) (int, int) {
	if end <= start {
		end += domain.WeekMinutes
	}
	return start, end
}

// Overlaps reports whether two weekly intervals intersect.
func Overlaps(a, b domain.LessonTime) bool {
	as, ae := Normalize(a.WeekStart, a.WeekEnd)
	bs, be := Normalize(b.WeekStart, b.WeekEnd)
	// compare against b shifted a week either way to catch wrap-around
	for _, shift := range []int{-domain.WeekMinutes, 0, domain.WeekMinutes} {
		if as < be+shift && ae > bs+shift {
			return true
		}
	}
	return false
}

// Resolve picks the closest ongoing or upcoming window among the weekly
// lesson times. It reports false when there are no lesson times.
func Resolve(times []domain.LessonTime, now time.Time) (*domain.LessonWindow, bool) {
	var best *domain.LessonWindow
	for _, lt := range times {
		loc := location(lt.Timezone)
		local := now.In(loc)
		weekStart := time.Date(local.Year(), local.Month(), local.Day()-int(local.Weekday()), 0, 0, 0, 0, loc)
		ws, we := Normalize(lt.WeekStart, lt.WeekEnd)
		start := weekStart.Add(time.Duration(ws) * time.Minute)
		end := weekStart.Add(time.Duration(we) * time.Minute)
		if end.Before(local) {
			start = start.AddDate(0, 0, 7)
			end = end.AddDate(0, 0, 7)
		}
		w := &domain.LessonWindow{
			Start:     start.UnixMilli(),
			End:       end.UnixMilli(),
			EarlyOpen: start.UnixMilli() - lt.EarlyOpenWindow,
		}
		if best == nil || w.Start < best.Start {
			best = w
		}
	}
	return best, best != nil
}

// TooEarly reports whether now precedes the window's early open time.
func TooEarly(w *domain.LessonWindow, now time.Time) bool {
	return w != nil && now.UnixMilli() < w.EarlyOpen
}

func location(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
