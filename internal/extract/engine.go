package extract

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pfrederiksen/bonetider/internal/prayer"
)

const (
	// DefaultContainerID is the id of the tbody wrapping the monthly timetable.
	DefaultContainerID = "ifis_bonetider"

	// DefaultMinCells is the day label plus the six slot times.
	DefaultMinCells = 1 + len(prayer.SlotNames)
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	ContainerID  string
	MinCells     int
	TodayMarkers []string
}

// Target is the date a caller wants times for
type Target struct {
	Year  int
	Month int
	Day   int
}

// TargetOf returns the target for t's calendar date in t's location.
func TargetOf(t time.Time) Target {
	return Target{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Date renders the target as YYYY-MM-DD
func (t Target) Date() string {
	return prayer.FormatDate(t.Year, t.Month, t.Day)
}

// Valid reports whether the target names a real calendar date.
func (t Target) Valid() bool {
	d := time.Date(t.Year, time.Month(t.Month), t.Day, 12, 0, 0, 0, time.UTC)
	return d.Year() == t.Year && int(d.Month()) == t.Month && d.Day() == t.Day
}

// Result is a successful extraction
type Result struct {
	Record *prayer.Record
	Tier   string
}

// Engine extracts records from timetable documents. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	containerID string
	open        *regexp.Regexp
	ladder      Ladder
}

// New creates an Engine
func New(opts Options) *Engine {
	if opts.ContainerID == "" {
		opts.ContainerID = DefaultContainerID
	}
	if opts.MinCells <= 0 {
		opts.MinCells = DefaultMinCells
	}

	return &Engine{
		containerID: opts.ContainerID,
		open:        containerPattern(opts.ContainerID),
		ladder:      DefaultLadder(opts.MinCells, opts.TodayMarkers),
	}
}

// NewWithLadder creates an Engine that evaluates a custom strategy ladder.
func NewWithLadder(containerID string, ladder Ladder) *Engine {
	e := New(Options{ContainerID: containerID})
	e.ladder = ladder
	return e
}

// Extract locates today's row in document and normalizes it.
func (e *Engine) Extract(document string, target Target) (*Result, error) {
	if target.Day < 1 || target.Day > 31 {
		return nil, fmt.Errorf("target day out of range: %d", target.Day)
	}
	if target.Month < 1 || target.Month > 12 {
		return nil, fmt.Errorf("target month out of range: %d", target.Month)
	}
	if !target.Valid() {
		return nil, fmt.Errorf("target date does not exist: %s", target.Date())
	}

	fragment, err := isolate(document, e.containerID, e.open)
	if err != nil {
		return nil, err
	}

	row, tier, err := e.ladder.Find(fragment, target.Day)
	if err != nil {
		return nil, err
	}

	record, err := ToTimeRecord(ExtractCells(row), target.Year, target.Month, target.Day)
	if err != nil {
		return nil, err
	}

	return &Result{Record: record, Tier: tier}, nil
}

// ContainerID returns the id of the element the engine isolates.
func (e *Engine) ContainerID() string {
	return e.containerID
}
