package extract

import (
	"github.com/pfrederiksen/bonetider/internal/prayer"
)

// ToTimeRecord converts a row's cells into a record dated year-month-day.
// The date always comes from the caller, never from the row itself.
func ToTimeRecord(cells []string, year, month, day int) (*prayer.Record, error) {
	var times [6]string

	for i, name := range prayer.SlotNames {
		pos := i + 1
		if pos >= len(cells) {
			return nil, malformedTime(name, "")
		}
		if !prayer.IsClock(cells[pos]) {
			return nil, malformedTime(name, cells[pos])
		}
		times[i] = cells[pos]
	}

	return prayer.NewRecord(prayer.FormatDate(year, month, day), times), nil
}
