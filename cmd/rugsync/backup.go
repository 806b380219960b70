package main

import (
	"fmt"

	"github.com/rugbase/rugsync"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the local database",
	Long: `Copy the local database into the backup directory with a content
hash. Take one before operations you may want to undo; sync never deletes
local data but a download can overwrite rows.`,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, info, err := rugsync.CreateBackup(cfg.DatabasePath, cfg.BackupDir())
	if err != nil {
		return err
	}

	fmt.Printf("Backup written: %s\n", path)
	fmt.Printf("  sha256: %s\n", info.SHA256)
	fmt.Printf("  size:   %d bytes\n", info.Size)
	return nil
}
