package rugsync

import (
	"errors"
	"fmt"
)

// Common errors returned by the sync engine.
var (
	// ErrNotFound is returned when an item is not in the local store.
	ErrNotFound = errors.New("item not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrSyncInProgress is returned when the cross-process lock cannot be
	// acquired before the timeout.
	ErrSyncInProgress = errors.New("another sync is in progress")

	// ErrNoSheetTab is returned when the spreadsheet has no sheet tabs.
	ErrNoSheetTab = errors.New("spreadsheet has no sheet tabs")

	// ErrNoData is returned when the remote sheet returns no rows at all.
	ErrNoData = errors.New("no data returned from sheet")

	// ErrAccountMismatch is returned when the loaded credential identifies a
	// different service account than the one this deployment expects.
	ErrAccountMismatch = errors.New("credential does not match expected service account")
)

// ConfigError is returned for missing or invalid configuration, including
// credential problems. Extractable via errors.As().
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// SyncError is returned when a remote operation fails. StatusCode is the
// HTTP status when the failure came from the Sheets API, zero otherwise.
// Extractable via errors.As(). Supports Unwrap().
type SyncError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sync: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sync: %s failed: %v", e.Operation, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
