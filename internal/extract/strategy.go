package extract

import (
	"strings"

	"github.com/pfrederiksen/bonetider/internal/prayer"
)

// Tier names reported with every successful extraction.
const (
	TierMarker = "marker"
	TierDay    = "day"
	TierShape  = "shape"
)

// DefaultTodayMarkers are the row class values the upstream widget uses to
// highlight the current day.
var DefaultTodayMarkers = []string{
	`class="odd today"`,
	`class="even today"`,
	`class='odd today'`,
	`class='even today'`,
	`class="today"`,
	`class='today'`,
}

// Strategy decides whether a row fragment is today's row.
type Strategy interface {
	Name() string
	Match(row string, targetDay int) bool
}

// MarkerStrategy trusts the upstream page's own "today" highlight.
type MarkerStrategy struct {
	Markers  []string
	MinCells int
}

func (s MarkerStrategy) Name() string { return TierMarker }

func (s MarkerStrategy) Match(row string, _ int) bool {
	for _, marker := range s.Markers {
		if strings.Contains(row, marker) {
			return len(ExtractCells(row)) >= s.MinCells
		}
	}
	return false
}

// DayStrategy matches the row whose first cell is the target day of month.
type DayStrategy struct {
	MinCells int
}

func (s DayStrategy) Name() string { return TierDay }

func (s DayStrategy) Match(row string, targetDay int) bool {
	cells := ExtractCells(row)
	if len(cells) < s.MinCells || len(cells) == 0 {
		return false
	}

	day, ok := parseDay(cells[0])
	return ok && day == targetDay
}

// ShapeStrategy accepts the first row whose first time cell looks like a clock
// value, whatever day it belongs to.
type ShapeStrategy struct {
	MinCells int
}

func (s ShapeStrategy) Name() string { return TierShape }

func (s ShapeStrategy) Match(row string, _ int) bool {
	cells := ExtractCells(row)
	if len(cells) < s.MinCells || len(cells) < 2 {
		return false
	}
	return prayer.IsClock(cells[1])
}

// parseDay reads the leading digits of a day label such as "14" or "14 tor".
func parseDay(label string) (int, bool) {
	day, digits := 0, 0
	for _, r := range label {
		if r < '0' || r > '9' {
			break
		}
		day = day*10 + int(r-'0')
		digits++
		if digits > 2 {
			return 0, false
		}
	}
	return day, digits > 0
}

// Ladder is an ordered list of strategies. Find evaluates them in order and
// stops at the first one that matches a row.
type Ladder []Strategy

// DefaultLadder returns marker, day and shape strategies in priority order.
func DefaultLadder(minCells int, markers []string) Ladder {
	if markers == nil {
		markers = DefaultTodayMarkers
	}
	return Ladder{
		MarkerStrategy{Markers: markers, MinCells: minCells},
		DayStrategy{MinCells: minCells},
		ShapeStrategy{MinCells: minCells},
	}
}

// Without returns the ladder minus the strategies named name, in the same order.
func (l Ladder) Without(name string) Ladder {
	out := make(Ladder, 0, len(l))
	for _, s := range l {
		if s.Name() != name {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the first matching row and the name of the strategy that matched.
// Every strategy walks its own row sequence derived from fragment.
func (l Ladder) Find(fragment string, targetDay int) (string, string, error) {
	for _, s := range l {
		for row := range SplitRows(fragment) {
			if s.Match(row, targetDay) {
				return row, s.Name(), nil
			}
		}
	}
	return "", "", noValidRow(targetDay)
}

// FindTodayRow runs the default ladder over fragment.
func FindTodayRow(fragment string, targetDay, minCells int) (string, string, error) {
	return DefaultLadder(minCells, nil).Find(fragment, targetDay)
}
