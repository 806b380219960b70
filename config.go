package rugsync

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rugbase/rugsync/internal/store"
)

// Default endpoints and identity. The spreadsheet and service account are
// fixed per deployment; both can be overridden through Config or environment.
const (
	DefaultSheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	DefaultTokenURL      = "https://oauth2.googleapis.com/token"

	// DefaultExpectedAccount is the service account the credential must
	// identify. Checking it catches a credential file copied from another
	// deployment before any data is touched.
	DefaultExpectedAccount = "rugbase-sync@rugbase-sheets.iam.gserviceaccount.com"

	// DefaultLockTimeout bounds how long a caller waits for a concurrent
	// sync to finish before giving up.
	DefaultLockTimeout = 10 * time.Second
)

// Config configures the sync coordinator.
type Config struct {
	// DatabasePath is the path to the local RugBase SQLite database.
	DatabasePath string

	// CredentialsPath is the service-account credential file. The
	// RUGSYNC_CREDENTIALS_JSON environment variable, when set, overrides
	// the file contents entirely.
	CredentialsPath string

	// SpreadsheetID identifies the one remote spreadsheet to sync with.
	SpreadsheetID string

	// ExpectedAccount is the client_email the credential must carry.
	// Defaults to DefaultExpectedAccount.
	ExpectedAccount string

	// DataDir holds sync state, the lock file, conflict logs and backups.
	// Defaults to the per-OS application data directory.
	DataDir string

	// BatchSize bounds rows per upload batch. Defaults to DefaultBatchSize.
	BatchSize int

	// LockTimeout bounds cross-process lock acquisition.
	// Defaults to DefaultLockTimeout.
	LockTimeout time.Duration

	// SheetsBaseURL and TokenURL exist so tests can point the client at
	// local fakes. Leave empty for the real endpoints.
	SheetsBaseURL string
	TokenURL      string

	// Debug enables verbose logging of Sheets API traffic.
	Debug bool

	// LogPath is an optional log file; empty logs to stderr only.
	LogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dataDir := store.DefaultDataDir()
	return Config{
		DatabasePath:    store.DatabasePath(),
		CredentialsPath: store.CredentialsPath(),
		ExpectedAccount: DefaultExpectedAccount,
		DataDir:         dataDir,
		BatchSize:       DefaultBatchSize,
		LockTimeout:     DefaultLockTimeout,
		SheetsBaseURL:   DefaultSheetsBaseURL,
		TokenURL:        DefaultTokenURL,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	RUGSYNC_DB_PATH          → DatabasePath
//	RUGSYNC_CREDENTIALS      → CredentialsPath
//	RUGSYNC_SPREADSHEET_ID   → SpreadsheetID
//	RUGSYNC_SERVICE_ACCOUNT  → ExpectedAccount
//	RUGSYNC_DATA_DIR         → DataDir
//	RUGSYNC_DEBUG            → Debug (any non-empty value enables)
//	RUGSYNC_LOG              → LogPath
func ConfigFromEnv() Config {
	return Config{
		DatabasePath:    os.Getenv("RUGSYNC_DB_PATH"),
		CredentialsPath: os.Getenv("RUGSYNC_CREDENTIALS"),
		SpreadsheetID:   os.Getenv("RUGSYNC_SPREADSHEET_ID"),
		ExpectedAccount: os.Getenv("RUGSYNC_SERVICE_ACCOUNT"),
		DataDir:         os.Getenv("RUGSYNC_DATA_DIR"),
		Debug:           os.Getenv("RUGSYNC_DEBUG") != "",
		LogPath:         os.Getenv("RUGSYNC_LOG"),
	}
}

// Validate checks the configuration for errors.
// Returns *ConfigError for invalid fields.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return &ConfigError{Field: "DatabasePath", Message: "required: path to RugBase database"}
	}
	if c.SpreadsheetID == "" {
		return &ConfigError{Field: "SpreadsheetID", Message: "required: target spreadsheet ID"}
	}
	if c.BatchSize < 0 {
		return &ConfigError{Field: "BatchSize", Message: "must be non-negative"}
	}
	if c.LockTimeout < 0 {
		return &ConfigError{Field: "LockTimeout", Message: "must be non-negative"}
	}
	return nil
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.DatabasePath == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = defaults.CredentialsPath
	}
	if c.ExpectedAccount == "" {
		c.ExpectedAccount = defaults.ExpectedAccount
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = defaults.LockTimeout
	}
	if c.SheetsBaseURL == "" {
		c.SheetsBaseURL = defaults.SheetsBaseURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaults.TokenURL
	}
	return c
}

// StatePath returns the sync state file location.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "sync-state.json")
}

// LockPath returns the cross-process lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "sync.lock")
}

// ConflictDir returns the directory holding dated conflict logs.
func (c *Config) ConflictDir() string {
	return filepath.Join(c.DataDir, "conflicts")
}

// BackupDir returns the directory holding database snapshots.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}
