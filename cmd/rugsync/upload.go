package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Replace the sheet with the local inventory",
	Long: `Overwrite the remote sheet with the local inventory: the header row
is re-asserted, existing data rows are cleared, and local rows are streamed
up in batches.`,
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := newCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := c.UploadDatabase(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %d rows (took %s)\n", n, time.Since(start).Round(time.Millisecond))
	return nil
}
