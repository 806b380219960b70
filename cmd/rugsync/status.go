package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and inventory size",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	count, err := c.Store().CountItems()
	if err != nil {
		return err
	}

	state := c.State()
	fmt.Printf("Inventory rows: %d\n", count)
	fmt.Printf("Local latest:   %s\n", orNever(state.LocalLatest))
	fmt.Printf("Remote latest:  %s\n", orNever(state.RemoteLatest))
	fmt.Printf("Last sync:      %s\n", orNever(state.LastSync))
	return nil
}

func orNever(p *string) string {
	if p == nil {
		return "(never)"
	}
	return *p
}
