package main

import (
	"fmt"

	"github.com/rugbase/rugsync"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath        string
	cfgCredentials   string
	cfgSpreadsheetID string
	cfgDataDir       string
	cfgDebug         bool
)

var rootCmd = &cobra.Command{
	Use:   "rugsync",
	Short: "RugBase sheet sync",
	Long: `rugsync keeps the local RugBase inventory and its shared Google
spreadsheet in two-way sync: batched uploads, last-writer-wins downloads,
a per-day conflict audit log, and a cross-process lock so only one sync
runs at a time.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db", "", "Path to the RugBase database (default: per-OS data dir)")
	rootCmd.PersistentFlags().StringVar(&cfgCredentials, "credentials", "", "Path to the service-account credential file")
	rootCmd.PersistentFlags().StringVar(&cfgSpreadsheetID, "spreadsheet-id", "", "Target spreadsheet ID")
	rootCmd.PersistentFlags().StringVar(&cfgDataDir, "data-dir", "", "Directory for sync state, lock, conflict logs and backups")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Log Sheets API traffic")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers flags over environment variables over defaults.
func loadConfig() rugsync.Config {
	cfg := rugsync.ConfigFromEnv()

	if cfgDBPath != "" {
		cfg.DatabasePath = cfgDBPath
	}
	if cfgCredentials != "" {
		cfg.CredentialsPath = cfgCredentials
	}
	if cfgSpreadsheetID != "" {
		cfg.SpreadsheetID = cfgSpreadsheetID
	}
	if cfgDataDir != "" {
		cfg.DataDir = cfgDataDir
	}
	if cfgDebug {
		cfg.Debug = true
	}

	return cfg.WithDefaults()
}

func newCoordinator() (*rugsync.Coordinator, error) {
	c, err := rugsync.New(loadConfig())
	if err != nil {
		return nil, err
	}
	c.SetStatusFunc(func(msg string) { fmt.Println(msg) })
	return c, nil
}
