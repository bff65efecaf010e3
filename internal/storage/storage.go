package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/bonetider/internal/prayer"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// StoredRecord is a record plus bookkeeping written to disk
type StoredRecord struct {
	Record    *prayer.Record `json:"record"`
	Tier      string         `json:"tier"`
	City      string         `json:"city,omitempty"`
	UpdatedAt string         `json:"updated_at"`
}

// Storage handles persistence of extracted records
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// recordPath returns the path to the record file for date
func (s *Storage) recordPath(date string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("record_%s.json", date))
}

// Load returns the stored record for date, or nil when none exists.
func (s *Storage) Load(date string) (*StoredRecord, error) {
	if !datePattern.MatchString(date) {
		return nil, fmt.Errorf("invalid date: %q", date)
	}

	data, err := os.ReadFile(s.recordPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}

	var stored StoredRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	if stored.Record == nil {
		return nil, fmt.Errorf("parsing record: %s has no record", date)
	}

	return &stored, nil
}

// Save writes stored to disk, replacing any record for the same date.
func (s *Storage) Save(stored *StoredRecord) error {
	if stored == nil || stored.Record == nil {
		return fmt.Errorf("saving record: nothing to save")
	}
	if !datePattern.MatchString(stored.Record.Date) {
		return fmt.Errorf("saving record: invalid date %q", stored.Record.Date)
	}

	stored.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file
	path := s.recordPath(stored.Record.Date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	return nil
}

// Dates lists the dates with a stored record, oldest first.
func (s *Storage) Dates() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "record_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	dates := make([]string, 0, len(matches))
	for _, m := range matches {
		date := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "record_"), ".json")
		if datePattern.MatchString(date) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	return dates, nil
}

// Prune removes stored records older than before (YYYY-MM-DD) and returns how
// many were removed.
func (s *Storage) Prune(before string) (int, error) {
	dates, err := s.Dates()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, date := range dates {
		if date >= before {
			break
		}
		if err := os.Remove(s.recordPath(date)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing record: %w", err)
		}
		removed++
	}

	return removed, nil
}
