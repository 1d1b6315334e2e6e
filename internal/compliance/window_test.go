package compliance

import (
	"testing"
	"time"
)

func TestInCallingWindow_InclusiveBoundaries(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"08:00", true},
		{"21:00", true},
		{"07:59", false},
		{"21:01", false},
		{"12:30", true},
		{"00:00", false},
	}
	for _, tc := range cases {
		c, err := ParseClock(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got := c.InCallingWindow(); got != tc.want {
			t.Fatalf("InCallingWindow(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseClock_RejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "25:00", "08:61", "8am"} {
		if _, err := ParseClock(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestIsWithinCallingWindow_UsesRecipientTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 13:00 UTC in January is 08:00 in New York.
	at := time.Date(2025, time.January, 6, 13, 0, 0, 0, time.UTC)
	if !IsWithinCallingWindow(at, ny) {
		t.Fatalf("expected 08:00 New York to be within window")
	}
	if IsWithinCallingWindow(at, time.UTC) {
		// 13:00 UTC itself is within the window; sanity-check the inverse case.
		// 02:00 UTC is outside.
		at = time.Date(2025, time.January, 6, 2, 0, 0, 0, time.UTC)
		if IsWithinCallingWindow(at, time.UTC) {
			t.Fatalf("expected 02:00 UTC to be outside window")
		}
	}
}

func TestRestrictedDay(t *testing.T) {
	// 2025-01-05 is a Sunday.
	if ok, day := RestrictedDay(time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC), time.UTC); !ok || day != "sunday" {
		t.Fatalf("expected sunday restriction, got %v %q", ok, day)
	}
	// 2025-07-04 is Independence Day (a Friday).
	if ok, day := RestrictedDay(time.Date(2025, time.July, 4, 12, 0, 0, 0, time.UTC), time.UTC); !ok || day != "independence_day" {
		t.Fatalf("expected holiday restriction, got %v %q", ok, day)
	}
	// 2025-11-27 is Thanksgiving (4th Thursday).
	if ok, day := RestrictedDay(time.Date(2025, time.November, 27, 12, 0, 0, 0, time.UTC), time.UTC); !ok || day != "thanksgiving" {
		t.Fatalf("expected thanksgiving, got %v %q", ok, day)
	}
	// 2025-05-26 is Memorial Day (last Monday of May).
	if ok, day := RestrictedDay(time.Date(2025, time.May, 26, 12, 0, 0, 0, time.UTC), time.UTC); !ok || day != "memorial_day" {
		t.Fatalf("expected memorial day, got %v %q", ok, day)
	}
	// A plain Tuesday.
	if ok, _ := RestrictedDay(time.Date(2025, time.January, 7, 12, 0, 0, 0, time.UTC), time.UTC); ok {
		t.Fatalf("expected ordinary weekday to be unrestricted")
	}
}
