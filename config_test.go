package rugsync_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rugbase/rugsync"
)

func TestConfig_Validate(t *testing.T) {
	valid := rugsync.Config{DatabasePath: "/tmp/rugbase.db", SpreadsheetID: "sheet-1"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() returned error for valid config: %v", err)
	}

	cases := []struct {
		name  string
		cfg   rugsync.Config
		field string
	}{
		{"missing database", rugsync.Config{SpreadsheetID: "sheet-1"}, "DatabasePath"},
		{"missing spreadsheet", rugsync.Config{DatabasePath: "/tmp/rugbase.db"}, "SpreadsheetID"},
		{"negative batch size", rugsync.Config{DatabasePath: "/tmp/rugbase.db", SpreadsheetID: "s", BatchSize: -1}, "BatchSize"},
		{"negative lock timeout", rugsync.Config{DatabasePath: "/tmp/rugbase.db", SpreadsheetID: "s", LockTimeout: -time.Second}, "LockTimeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			var cfgErr *rugsync.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("ConfigError field = %q, want %q", cfgErr.Field, tc.field)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := rugsync.Config{SpreadsheetID: "sheet-1"}.WithDefaults()

	if cfg.BatchSize != rugsync.DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, rugsync.DefaultBatchSize)
	}
	if cfg.LockTimeout != rugsync.DefaultLockTimeout {
		t.Errorf("LockTimeout = %s, want %s", cfg.LockTimeout, rugsync.DefaultLockTimeout)
	}
	if cfg.ExpectedAccount != rugsync.DefaultExpectedAccount {
		t.Errorf("ExpectedAccount = %q, want default identity", cfg.ExpectedAccount)
	}
	if cfg.SheetsBaseURL != rugsync.DefaultSheetsBaseURL {
		t.Errorf("SheetsBaseURL = %q", cfg.SheetsBaseURL)
	}
	if cfg.TokenURL != rugsync.DefaultTokenURL {
		t.Errorf("TokenURL = %q", cfg.TokenURL)
	}
	if cfg.DatabasePath == "" || cfg.CredentialsPath == "" || cfg.DataDir == "" {
		t.Errorf("paths not defaulted: %+v", cfg)
	}
}

func TestConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := rugsync.Config{
		DatabasePath:  "/data/inv.db",
		SpreadsheetID: "sheet-1",
		BatchSize:     100,
		LockTimeout:   time.Second,
		SheetsBaseURL: "http://localhost:9999",
	}.WithDefaults()

	if cfg.DatabasePath != "/data/inv.db" || cfg.BatchSize != 100 ||
		cfg.LockTimeout != time.Second || cfg.SheetsBaseURL != "http://localhost:9999" {
		t.Errorf("explicit values overridden: %+v", cfg)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RUGSYNC_DB_PATH", "/data/inv.db")
	t.Setenv("RUGSYNC_SPREADSHEET_ID", "sheet-env")
	t.Setenv("RUGSYNC_SERVICE_ACCOUNT", "svc@env.iam.gserviceaccount.com")
	t.Setenv("RUGSYNC_DEBUG", "1")

	cfg := rugsync.ConfigFromEnv()
	if cfg.DatabasePath != "/data/inv.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.SpreadsheetID != "sheet-env" {
		t.Errorf("SpreadsheetID = %q", cfg.SpreadsheetID)
	}
	if cfg.ExpectedAccount != "svc@env.iam.gserviceaccount.com" {
		t.Errorf("ExpectedAccount = %q", cfg.ExpectedAccount)
	}
	if !cfg.Debug {
		t.Error("Debug not enabled by RUGSYNC_DEBUG")
	}
}

func TestConfig_DataDirPaths(t *testing.T) {
	cfg := rugsync.Config{DataDir: "/var/lib/rugbase"}

	if got := cfg.StatePath(); got != filepath.Join("/var/lib/rugbase", "sync-state.json") {
		t.Errorf("StatePath() = %q", got)
	}
	if got := cfg.LockPath(); got != filepath.Join("/var/lib/rugbase", "sync.lock") {
		t.Errorf("LockPath() = %q", got)
	}
	if got := cfg.ConflictDir(); got != filepath.Join("/var/lib/rugbase", "conflicts") {
		t.Errorf("ConflictDir() = %q", got)
	}
	if got := cfg.BackupDir(); got != filepath.Join("/var/lib/rugbase", "backups") {
		t.Errorf("BackupDir() = %q", got)
	}
}
