package compliance

import (
	"fmt"
	"time"
)

// TCPA permitted calling hours, recipient-local. Boundaries are inclusive.
const (
	windowOpenHour  = 8
	windowCloseHour = 21
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return c, nil
}

// InCallingWindow reports whether a clock time falls within the permitted
// 08:00-21:00 window, both boundaries inclusive.
func (c Clock) InCallingWindow() bool {
	if c.Hour < windowOpenHour {
		return false
	}
	if c.Hour > windowCloseHour {
		return false
	}
	if c.Hour == windowCloseHour && c.Minute > 0 {
		return false
	}
	return true
}

// IsWithinCallingWindow reports whether t, interpreted in loc, is within the
// permitted calling hours.
func IsWithinCallingWindow(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	return Clock{Hour: local.Hour(), Minute: local.Minute()}.InCallingWindow()
}

// RestrictedDay reports whether t falls on a Sunday or a federal holiday.
// Whether restricted days block dialing is policy-configurable; some states
// restrict Sunday calling but federal law does not.
func RestrictedDay(t time.Time, loc *time.Location) (bool, string) {
	local := t.In(loc)
	if local.Weekday() == time.Sunday {
		return true, "sunday"
	}
	if name, ok := federalHoliday(local); ok {
		return true, name
	}
	return false, ""
}

func federalHoliday(t time.Time) (string, bool) {
	y, m, d := t.Date()

	switch {
	case m == time.January && d == 1:
		return "new_years_day", true
	case m == time.June && d == 19:
		return "juneteenth", true
	case m == time.July && d == 4:
		return "independence_day", true
	case m == time.November && d == 11:
		return "veterans_day", true
	case m == time.December && d == 25:
		return "christmas_day", true
	}

	switch {
	case m == time.January && t.Weekday() == time.Monday && nthWeekdayOfMonth(d) == 3:
		return "mlk_day", true
	case m == time.February && t.Weekday() == time.Monday && nthWeekdayOfMonth(d) == 3:
		return "presidents_day", true
	case m == time.May && t.Weekday() == time.Monday && d+7 > daysInMonth(y, m):
		return "memorial_day", true
	case m == time.September && t.Weekday() == time.Monday && nthWeekdayOfMonth(d) == 1:
		return "labor_day", true
	case m == time.October && t.Weekday() == time.Monday && nthWeekdayOfMonth(d) == 2:
		return "columbus_day", true
	case m == time.November && t.Weekday() == time.Thursday && nthWeekdayOfMonth(d) == 4:
		return "thanksgiving", true
	}
	return "", false
}

// nthWeekdayOfMonth returns which occurrence of its weekday a day-of-month is
// (1-based): day 15 is always the 3rd occurrence of its weekday.
func nthWeekdayOfMonth(day int) int {
	return (day-1)/7 + 1
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
