package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify credentials and spreadsheet access",
	Long: `Verify the service-account credential matches the expected account
and the spreadsheet is reachable. Prints the sheet tab that will be synced.`,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	c, err := newCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tab, err := c.TestConnection(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Connection OK, syncing tab %q\n", tab)
	return nil
}
