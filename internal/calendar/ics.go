// Package calendar renders a day's prayer times as an iCalendar document.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/bonetider/internal/prayer"
)

// EventDuration is the length of each prayer event
const EventDuration = 15 * time.Minute

// Options describes the calendar being generated
type Options struct {
	City     string
	Location *time.Location
	Stamp    time.Time // DTSTAMP, defaults to now
}

// GenerateICS generates an iCalendar (.ics) document with one event per prayer slot.
// Slots with unparseable times are skipped.
func GenerateICS(record *prayer.Record, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Bonetider//bonetider//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, slot := range record.Slots() {
		start, err := record.At(slot, loc)
		if err != nil {
			continue
		}

		ics.WriteString("BEGIN:VEVENT\r\n")
		ics.WriteString(fmt.Sprintf("UID:%s-%s@bonetider\r\n", record.Date, slot.Name))
		ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(stamp)))
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(EventDuration))))
		ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary(slot))))
		if opts.City != "" {
			ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(opts.City)))
		}
		ics.WriteString("STATUS:CONFIRMED\r\n")
		ics.WriteString("TRANSP:TRANSPARENT\r\n")
		ics.WriteString("END:VEVENT\r\n")
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func summary(slot prayer.Slot) string {
	name := slot.Name
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s %s", name, slot.Time)
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
