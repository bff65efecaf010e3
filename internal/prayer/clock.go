package prayer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// IsClock reports whether s has the H:MM or HH:MM shape.
func IsClock(s string) bool {
	return clockPattern.MatchString(s)
}

// FormatDate renders a zero-padded YYYY-MM-DD date
func FormatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// DateOf renders t's calendar date in t's location.
func DateOf(t time.Time) string {
	return FormatDate(t.Year(), int(t.Month()), t.Day())
}

// ParseClock returns the minutes since midnight for a clock-shaped value.
func ParseClock(s string) (int, error) {
	if !IsClock(s) {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}

	hh, mm, _ := strings.Cut(s, ":")
	hours, _ := strconv.Atoi(hh)
	minutes, _ := strconv.Atoi(mm)
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("clock value out of range %q", s)
	}

	return hours*60 + minutes, nil
}

// Next returns the first slot at or after now's wall-clock time.
// Returns false once isha has passed. Slots with unparseable times are skipped.
func (r *Record) Next(now time.Time) (Slot, bool) {
	current := now.Hour()*60 + now.Minute()

	for _, s := range r.Slots() {
		minutes, err := ParseClock(s.Time)
		if err != nil {
			continue
		}
		if minutes >= current {
			return s, true
		}
	}

	return Slot{}, false
}

// At returns the slot time on the record's date in loc.
func (r *Record) At(s Slot, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", r.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date: %w", err)
	}

	minutes, err := ParseClock(s.Time)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}
