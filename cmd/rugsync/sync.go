package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one bidirectional sync cycle",
	Long: `Run a full bidirectional cycle: download and reconcile remote rows
first, then upload the reconciled inventory back to the sheet. Download-first
ordering means rows where local won are written back over the sheet.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	c, err := newCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	result, err := c.BidirectionalSync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Sync complete: %d inserted, %d updated, %d uploaded (took %s)\n",
		result.Inserted, result.Updated, result.Uploaded, result.Duration.Round(time.Millisecond))
	return nil
}
