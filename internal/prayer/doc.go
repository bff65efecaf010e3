// Package prayer provides the daily prayer time record shared by the extractor,
// the service layer and the HTTP boundary.
//
// A Record pairs a calendar date with six clock times (fajr, shuruk, dhohr, asr,
// magrib, isha) in that fixed order. Clock values use the simple 24-hour H:MM or
// HH:MM shape published by the upstream timetable.
package prayer
