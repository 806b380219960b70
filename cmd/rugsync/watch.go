package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rugbase/rugsync"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for changes and sync in the background",
	Long: `Poll the local database and the sheet for changes and run a
bidirectional sync whenever either side moved. Cycles where neither side
changed cost only two timestamp probes. Transient errors back off with an
increasing delay instead of stopping the loop.`,
	RunE: runWatch,
}

var watchInterval time.Duration

const watchMaxBackoff = 5 * time.Minute

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 60*time.Second, "Polling interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := newCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching for changes every %s (Ctrl+C to stop)\n", watchInterval)

	delay := watchInterval
	for {
		cycleCtx, cancel := context.WithTimeout(ctx, 20*time.Minute)
		synced, err := c.BackgroundSyncCycle(cycleCtx)
		cancel()

		switch {
		case err != nil:
			// transient by policy: the message was already reported through
			// the status sink, so just back off
			if !errors.Is(err, rugsync.ErrSyncInProgress) {
				delay *= 2
				if delay > watchMaxBackoff {
					delay = watchMaxBackoff
				}
			}
		case synced:
			fmt.Println("Synced")
			delay = watchInterval
		default:
			delay = watchInterval
		}

		select {
		case <-ctx.Done():
			fmt.Println("Stopping watch")
			return nil
		case <-time.After(delay):
		}
	}
}
