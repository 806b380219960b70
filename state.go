package rugsync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SyncState holds the high-water marks used to short-circuit unnecessary
// sync checks. Fields are nullable strings so "never synced" is
// distinguishable from any real timestamp.
//
// The state is loaded at coordinator construction, mutated only after a sync
// phase completes, and persisted immediately after mutation. A crash between
// sync and persist is safe: the next check re-derives identical values.
type SyncState struct {
	LocalLatest  *string `json:"local_latest"`
	RemoteLatest *string `json:"remote_latest"`
	LastSync     *string `json:"last_sync"`
}

// LoadSyncState reads the state file. A missing or corrupt file yields an
// empty state, which forces a full check on the next cycle.
func LoadSyncState(path string) (*SyncState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncState{}, nil
		}
		return nil, fmt.Errorf("sync state: %w", err)
	}

	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return &SyncState{}, nil
	}
	return &state, nil
}

// SaveSyncState persists the state atomically via write-rename.
func SaveSyncState(path string, state *SyncState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("sync state: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("sync state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("sync state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("sync state: %w", err)
	}
	return nil
}

// MarkSynced sets LastSync to the current wall-clock time.
func (s *SyncState) MarkSynced(now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	s.LastSync = &ts
}

func strPtr(s string) *string { return &s }
