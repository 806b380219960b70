package rugsync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// timestampLayouts are the accepted updated_at forms. Anything else is
// treated as an absent timestamp.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Compare decides which side of a row pair is authoritative using the
// last-updated timestamp. Strictly-greater-than only: equal well-formed
// timestamps are WinnerEqual, never a conflict. An unparseable timestamp is
// treated as absent; both absent is WinnerEqual.
func Compare(local, remote Item) Winner {
	lt, lok := parseTimestamp(local.UpdatedAt)
	rt, rok := parseTimestamp(remote.UpdatedAt)

	switch {
	case rok && (!lok || rt.After(lt)):
		return WinnerRemote
	case lok && (!rok || lt.After(rt)):
		return WinnerLocal
	default:
		return WinnerEqual
	}
}

// ConflictLog appends winner decisions to one JSON array file per UTC day
// (conflicts-YYYYMMDD.json). Files accumulate across runs and are never
// deleted automatically.
type ConflictLog struct {
	dir string
	now func() time.Time
}

// NewConflictLog creates a log writing into dir.
func NewConflictLog(dir string) *ConflictLog {
	return &ConflictLog{dir: dir, now: time.Now}
}

// Path returns the log file for the current UTC day.
func (l *ConflictLog) Path() string {
	day := l.now().UTC().Format("20060102")
	return filepath.Join(l.dir, fmt.Sprintf("conflicts-%s.json", day))
}

// Append merges records into the current day's file (read-merge-write).
func (l *ConflictLog) Append(records []ConflictRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("conflict log: %w", err)
	}

	path := l.Path()

	var existing []ConflictRecord
	data, err := os.ReadFile(path)
	if err == nil {
		// Corrupt day file loses nothing: keep it readable by starting over
		_ = json.Unmarshal(data, &existing)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("conflict log: %w", err)
	}

	merged := append(existing, records...)
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("conflict log: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("conflict log: %w", err)
	}
	return nil
}

// Read returns the records logged on the current UTC day.
func (l *ConflictLog) Read() ([]ConflictRecord, error) {
	data, err := os.ReadFile(l.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []ConflictRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("conflict log: %w", err)
	}
	return records, nil
}
