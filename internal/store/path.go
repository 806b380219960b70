package store

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the per-OS application data directory for RugBase
// sync artifacts (database, sync state, lock file, conflict logs, backups).
// Uses the platform config dir, falls back to ~/.rugbase, then to ./.rugbase
// when no home directory is available.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "rugbase")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".rugbase")
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".rugbase")
}

// DatabasePath returns the default location of the RugBase inventory database.
func DatabasePath() string {
	return filepath.Join(DefaultDataDir(), "rugbase.db")
}

// CredentialsPath returns the well-known location of the service-account
// credential file.
func CredentialsPath() string {
	return filepath.Join(DefaultDataDir(), "credentials.json")
}
