package prayer

import (
	"fmt"
)

// Slot names in the fixed order they appear in the upstream timetable.
const (
	Fajr   = "fajr"
	Shuruk = "shuruk"
	Dhohr  = "dhohr"
	Asr    = "asr"
	Magrib = "magrib"
	Isha   = "isha"
)

// SlotNames lists the six slots in table order.
var SlotNames = [6]string{Fajr, Shuruk, Dhohr, Asr, Magrib, Isha}

// Record is one day of prayer times
type Record struct {
	Date   string `json:"date" yaml:"date"`
	Fajr   string `json:"fajr" yaml:"fajr"`
	Shuruk string `json:"shuruk" yaml:"shuruk"`
	Dhohr  string `json:"dhohr" yaml:"dhohr"`
	Asr    string `json:"asr" yaml:"asr"`
	Magrib string `json:"magrib" yaml:"magrib"`
	Isha   string `json:"isha" yaml:"isha"`
}

// Slot is a named clock time
type Slot struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// NewRecord builds a Record from a date and the six times in table order.
func NewRecord(date string, times [6]string) *Record {
	return &Record{
		Date:   date,
		Fajr:   times[0],
		Shuruk: times[1],
		Dhohr:  times[2],
		Asr:    times[3],
		Magrib: times[4],
		Isha:   times[5],
	}
}

// Times returns the six times in table order
func (r *Record) Times() [6]string {
	return [6]string{r.Fajr, r.Shuruk, r.Dhohr, r.Asr, r.Magrib, r.Isha}
}

// Slots returns the named times in table order
func (r *Record) Slots() []Slot {
	times := r.Times()
	slots := make([]Slot, 0, len(times))
	for i, t := range times {
		slots = append(slots, Slot{Name: SlotNames[i], Time: t})
	}
	return slots
}

// Validate reports the first slot whose time is not clock-shaped.
func (r *Record) Validate() error {
	for _, s := range r.Slots() {
		if !IsClock(s.Time) {
			return fmt.Errorf("%s: invalid time %q", s.Name, s.Time)
		}
	}
	return nil
}

// WithDate returns a copy of the record carrying another date
func (r *Record) WithDate(date string) *Record {
	cp := *r
	cp.Date = date
	return &cp
}
