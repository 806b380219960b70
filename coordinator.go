package rugsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StatusFunc receives human-readable progress messages for UI display.
type StatusFunc func(msg string)

// Coordinator orchestrates upload, download and bidirectional sync cycles
// between the local store and the remote sheet. Every public operation
// acquires the cross-process lock once and releases it on all exit paths.
// Operations within one call are strictly sequential; callers wanting
// concurrency run each call on its own goroutine or thread.
type Coordinator struct {
	store     *Store
	remote    RemoteClient
	state     *SyncState
	statePath string
	conflicts *ConflictLog
	lock      *FileLock
	batchSize int
	logger    zerolog.Logger
	status    StatusFunc
}

// New constructs a coordinator from configuration, wiring the real store,
// credential source and Sheets client. Returns an error wrapping
// fs.ErrNotExist when the local database is missing.
func New(cfg Config) (*Coordinator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Debug, cfg.LogPath)
	if err != nil {
		return nil, err
	}

	account, err := NewCredentialSource(cfg.CredentialsPath).Load()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	remote := NewSheetsClient(account, cfg, logger)

	c, err := NewCoordinator(store, remote, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

// NewCoordinator builds a coordinator around an already-open store and any
// RemoteClient. This is the injection seam tests use with fake remotes and
// temporary stores.
func NewCoordinator(store *Store, remote RemoteClient, cfg Config, logger zerolog.Logger) (*Coordinator, error) {
	cfg = cfg.WithDefaults()

	state, err := LoadSyncState(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		store:     store,
		remote:    remote,
		state:     state,
		statePath: cfg.StatePath(),
		conflicts: NewConflictLog(cfg.ConflictDir()),
		lock:      NewFileLock(cfg.LockPath(), cfg.LockTimeout),
		batchSize: cfg.BatchSize,
		logger:    logger,
	}, nil
}

// SetStatusFunc installs an optional message sink for UI feedback.
func (c *Coordinator) SetStatusFunc(fn StatusFunc) { c.status = fn }

// State returns a copy of the persisted sync state.
func (c *Coordinator) State() SyncState { return *c.state }

// Store returns the underlying local store (read-only use by callers such
// as the status command).
func (c *Coordinator) Store() *Store { return c.store }

// Close closes the local store.
func (c *Coordinator) Close() error { return c.store.Close() }

func (c *Coordinator) report(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Info().Msg(msg)
	if c.status != nil {
		c.status(msg)
	}
}

// dataRange spans every data row of the sheet: A2 down through the last
// header column.
func dataRange() string {
	return fmt.Sprintf("A2:%s", ColumnLetter(len(SheetHeader)))
}

// fullRange spans the header row and every data row.
func fullRange() string {
	return fmt.Sprintf("A1:%s", ColumnLetter(len(SheetHeader)))
}

// TestConnection verifies credentials and spreadsheet reachability and
// returns the synced tab name.
func (c *Coordinator) TestConnection(ctx context.Context) (string, error) {
	if err := c.lock.Acquire(); err != nil {
		return "", err
	}
	defer c.lock.Release()

	tab, err := c.remote.TestConnection(ctx)
	if err != nil {
		return "", err
	}
	c.report("connected to sheet tab %q", tab)
	return tab, nil
}

// UploadDatabase replaces the sheet contents with the local inventory:
// re-asserts the header row, clears all data rows, then streams local rows
// in batches to contiguous ranges. Returns the number of rows uploaded.
func (c *Coordinator) UploadDatabase(ctx context.Context) (int, error) {
	if err := c.lock.Acquire(); err != nil {
		return 0, err
	}
	defer c.lock.Release()

	return c.upload(ctx)
}

// upload runs the upload phase. Callers must hold the lock.
func (c *Coordinator) upload(ctx context.Context) (int, error) {
	c.report("uploading inventory to sheet")

	if err := c.remote.WriteRange(ctx, fmt.Sprintf("A1:%s1", ColumnLetter(len(SheetHeader))), [][]string{SheetHeader}); err != nil {
		return 0, err
	}
	if err := c.remote.ClearRange(ctx, dataRange()); err != nil {
		return 0, err
	}

	uploaded := 0
	cursor := 2 // first data row
	batches := c.store.ItemBatches(c.batchSize)
	for {
		batch, err := batches.Next()
		if err != nil {
			return uploaded, err
		}
		if batch == nil {
			break
		}

		rows := make([][]string, len(batch))
		for i, it := range batch {
			rows[i] = it.SheetRow()
		}

		rng := fmt.Sprintf("A%d:%s%d", cursor, ColumnLetter(len(SheetHeader)), cursor+len(batch)-1)
		if err := c.remote.WriteRange(ctx, rng, rows); err != nil {
			return uploaded, err
		}

		cursor += len(batch)
		uploaded += len(batch)
		c.report("uploaded %d rows", uploaded)
	}

	remoteLatest, ok, err := c.remoteLatest(ctx)
	if err != nil {
		return uploaded, err
	}
	if ok {
		c.state.RemoteLatest = strPtr(remoteLatest)
	} else {
		c.state.RemoteLatest = nil
	}
	c.state.MarkSynced(time.Now())
	if err := SaveSyncState(c.statePath, c.state); err != nil {
		return uploaded, err
	}

	c.report("upload complete: %d rows", uploaded)
	return uploaded, nil
}

// DownloadToDatabase reads all remote rows and reconciles them into the
// local store with last-writer-wins. Returns (inserted, updated).
func (c *Coordinator) DownloadToDatabase(ctx context.Context) (int, int, error) {
	if err := c.lock.Acquire(); err != nil {
		return 0, 0, err
	}
	defer c.lock.Release()

	res, err := c.download(ctx)
	if err != nil {
		return 0, 0, err
	}
	return res.Inserted, res.Updated, nil
}

// download runs the download phase. Callers must hold the lock.
func (c *Coordinator) download(ctx context.Context) (*DownloadResult, error) {
	c.report("downloading sheet rows")

	rows, err := c.remote.ReadRange(ctx, fullRange())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &SyncError{Operation: "download", Err: ErrNoData}
	}

	cols := HeaderColumns(rows[0])
	result := &DownloadResult{}
	var conflicts []ConflictRecord
	seen := make(map[int64]bool)

	for _, row := range rows[1:] {
		remote, ok := ItemFromSheetRow(cols, row)
		if !ok {
			continue // no usable primary key
		}
		if seen[remote.ID] {
			continue // a given id is processed at most once per cycle
		}
		seen[remote.ID] = true

		local, err := c.store.FetchItem(remote.ID)
		if err == ErrNotFound {
			if err := c.store.InsertItem(remote); err != nil {
				return nil, err
			}
			result.Inserted++
			continue
		}
		if err != nil {
			return nil, err
		}

		switch Compare(*local, remote) {
		case WinnerRemote:
			if err := c.store.UpdateItem(remote); err != nil {
				return nil, err
			}
			result.Updated++
			conflicts = append(conflicts, ConflictRecord{
				ID: remote.ID, Winner: WinnerRemote, Local: *local, Remote: remote,
			})
		case WinnerLocal:
			// keep local; the audit trail still records the decision
			conflicts = append(conflicts, ConflictRecord{
				ID: remote.ID, Winner: WinnerLocal, Local: *local, Remote: remote,
			})
		case WinnerEqual:
			// no write, no conflict record
		}
	}

	if err := c.conflicts.Append(conflicts); err != nil {
		return nil, err
	}

	localLatest, ok, err := c.store.LatestTimestamp()
	if err != nil {
		return nil, err
	}
	if ok {
		c.state.LocalLatest = strPtr(localLatest)
	} else {
		c.state.LocalLatest = nil
	}
	c.state.MarkSynced(time.Now())
	if err := SaveSyncState(c.statePath, c.state); err != nil {
		return nil, err
	}

	c.report("download complete: %d inserted, %d updated, %d conflicts logged",
		result.Inserted, result.Updated, len(conflicts))
	return result, nil
}

// BidirectionalSync downloads then uploads under one lock acquisition.
// Download-first is deliberate: rows where local won the comparison survive
// into the upload, which overwrites the sheet with the reconciled local
// truth.
func (c *Coordinator) BidirectionalSync(ctx context.Context) (*SyncResult, error) {
	if err := c.lock.Acquire(); err != nil {
		return nil, err
	}
	defer c.lock.Release()

	return c.bidirectional(ctx)
}

func (c *Coordinator) bidirectional(ctx context.Context) (*SyncResult, error) {
	start := time.Now()

	down, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	uploaded, err := c.upload(ctx)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		Inserted: down.Inserted,
		Updated:  down.Updated,
		Uploaded: uploaded,
		Duration: time.Since(start),
	}, nil
}

// BackgroundSyncCycle is the cheap polling entry point: it probes the local
// and remote latest timestamps and short-circuits when both match the
// stored state, performing no row-level reads or writes. Otherwise it runs a
// full bidirectional sync. Returns true when a sync was performed.
//
// Errors are reported to the status/log sink before being returned so a
// supervising loop can back off without losing the message.
func (c *Coordinator) BackgroundSyncCycle(ctx context.Context) (synced bool, err error) {
	defer func() {
		if err != nil {
			c.report("background sync: %v", err)
		}
	}()

	if err := c.lock.Acquire(); err != nil {
		return false, err
	}
	defer c.lock.Release()

	localLatest, localOK, err := c.store.LatestTimestamp()
	if err != nil {
		return false, err
	}
	remoteLatest, remoteOK, err := c.remoteLatest(ctx)
	if err != nil {
		return false, err
	}

	localMatch := probeMatches(localLatest, localOK, c.state.LocalLatest)
	remoteMatch := probeMatches(remoteLatest, remoteOK, c.state.RemoteLatest)
	if localMatch && remoteMatch {
		c.logger.Debug().Msg("no changes on either side; skipping sync")
		return false, nil
	}

	if _, err := c.bidirectional(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func probeMatches(latest string, present bool, stored *string) bool {
	if !present {
		return stored == nil
	}
	return stored != nil && *stored == latest
}

// remoteLatest probes the maximum updated_at on the sheet with a single
// one-column read. The raw cell string of the newest parseable timestamp is
// returned so it compares exactly against later probes.
func (c *Coordinator) remoteLatest(ctx context.Context) (string, bool, error) {
	col := ColumnLetter(len(SheetHeader)) // updated_at is the last column
	rows, err := c.remote.ReadRange(ctx, fmt.Sprintf("%s2:%s", col, col))
	if err != nil {
		return "", false, err
	}

	var (
		latestRaw string
		latest    time.Time
		found     bool
	)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		t, ok := parseTimestamp(row[0])
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			latestRaw = row[0]
			found = true
		}
	}
	return latestRaw, found, nil
}
