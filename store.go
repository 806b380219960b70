package rugsync

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rugbase/rugsync/internal/store/migrations"
	_ "modernc.org/sqlite"
)

// Store provides row access to the local RugBase inventory database.
// Row-level insert/update is atomic at the storage layer; the coordinator
// relies on that for its never-partially-updated invariant.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// OpenStore opens an existing inventory database. A missing file is an error
// wrapping fs.ErrNotExist; the sync engine never creates the inventory
// implicitly.
func OpenStore(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database %s: %w", path, fs.ErrNotExist)
	}
	return openStore(path)
}

// CreateStore creates (or opens) and migrates an inventory database. Used on
// first run and by tests.
func CreateStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return openStore(path)
}

func openStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps readers unblocked while a sync writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}
	return nil
}

// Path returns the database file location (used by the backup helper).
func (s *Store) Path() string { return s.path }

const itemColumns = "id, code, sku, title, grouping, size, price, qty, updated_at"

// FetchItem retrieves a single item by id. Returns ErrNotFound when absent.
func (s *Store) FetchItem(id int64) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	return scanItem(row)
}

// InsertItem inserts a new row.
func (s *Store) InsertItem(it Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO items (id, code, sku, title, grouping, size, price, qty, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.Code, it.SKU, it.Title, it.Grouping, it.Size, it.Price, it.Qty, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert item %d: %w", it.ID, err)
	}
	return nil
}

// UpdateItem sets all non-key columns unconditionally from the given row.
func (s *Store) UpdateItem(it Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.db.Exec(`
		UPDATE items
		SET code = ?, sku = ?, title = ?, grouping = ?, size = ?, price = ?, qty = ?, updated_at = ?
		WHERE id = ?
	`, it.Code, it.SKU, it.Title, it.Grouping, it.Size, it.Price, it.Qty, it.UpdatedAt, it.ID)
	if err != nil {
		return fmt.Errorf("store: update item %d: %w", it.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestTimestamp returns the maximum updated_at across all rows. The bool
// is false for an empty table, which callers must distinguish from any real
// timestamp.
func (s *Store) LatestTimestamp() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrStoreClosed
	}

	var latest sql.NullString
	err := s.db.QueryRow("SELECT MAX(updated_at) FROM items").Scan(&latest)
	if err != nil {
		return "", false, fmt.Errorf("store: latest timestamp: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return "", false, nil
	}
	return latest.String, true, nil
}

// CountItems returns the number of rows in the items table.
func (s *Store) CountItems() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ItemBatches returns a restartable iterator over row batches ordered by id
// ascending, each at most batchSize rows. Keyset pagination bounds memory
// for large tables.
func (s *Store) ItemBatches(batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchIterator{store: s, batchSize: batchSize}
}

// BatchIterator walks the items table batch by batch. Create a fresh
// iterator to restart from the beginning.
type BatchIterator struct {
	store     *Store
	batchSize int
	afterID   int64
	done      bool
}

// Next returns the next batch, or nil once the table is exhausted.
func (it *BatchIterator) Next() ([]Item, error) {
	if it.done {
		return nil, nil
	}

	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.store.closed {
		return nil, ErrStoreClosed
	}

	rows, err := it.store.db.Query(
		"SELECT "+itemColumns+" FROM items WHERE id > ? ORDER BY id ASC LIMIT ?",
		it.afterID, it.batchSize)
	if err != nil {
		return nil, fmt.Errorf("store: iterate items: %w", err)
	}
	defer rows.Close()

	var batch []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(batch) == 0 {
		it.done = true
		return nil, nil
	}

	it.afterID = batch[len(batch)-1].ID
	if len(batch) < it.batchSize {
		it.done = true
	}
	return batch, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*Item, error) {
	var it Item
	err := sc.Scan(&it.ID, &it.Code, &it.SKU, &it.Title, &it.Grouping, &it.Size, &it.Price, &it.Qty, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}
