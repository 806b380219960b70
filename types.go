package rugsync

import (
	"strconv"
	"time"
)

// Item is one inventory row, the unit of synchronization. The numeric ID is
// assigned by the local store and immutable once set; UpdatedAt is an
// ISO-8601 string and the sole ordering signal for conflict resolution.
type Item struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	SKU       string  `json:"sku"`
	Title     string  `json:"title"`
	Grouping  string  `json:"grouping"`
	Size      string  `json:"size"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	UpdatedAt string  `json:"updated_at"`
}

// SheetHeader is the canonical header row of the remote sheet, in the fixed
// column order re-asserted on every upload.
var SheetHeader = []string{"id", "code", "sku", "title", "grouping", "size", "price", "qty", "updated_at"}

// SheetRow renders the item in SheetHeader column order.
func (it Item) SheetRow() []string {
	return []string{
		strconv.FormatInt(it.ID, 10),
		it.Code,
		it.SKU,
		it.Title,
		it.Grouping,
		it.Size,
		strconv.FormatFloat(it.Price, 'f', -1, 64),
		strconv.FormatInt(it.Qty, 10),
		it.UpdatedAt,
	}
}

// ItemFromSheetRow builds an Item from a remote data row using a
// header-name → column-index map. Returns false when the row has no usable
// numeric id.
func ItemFromSheetRow(cols map[string]int, row []string) (Item, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	id, err := strconv.ParseInt(cell("id"), 10, 64)
	if err != nil || id <= 0 {
		return Item{}, false
	}

	price, _ := strconv.ParseFloat(cell("price"), 64)
	qty, _ := strconv.ParseInt(cell("qty"), 10, 64)

	return Item{
		ID:        id,
		Code:      cell("code"),
		SKU:       cell("sku"),
		Title:     cell("title"),
		Grouping:  cell("grouping"),
		Size:      cell("size"),
		Price:     price,
		Qty:       qty,
		UpdatedAt: cell("updated_at"),
	}, true
}

// HeaderColumns maps header cell names to their column indexes.
func HeaderColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

// Winner identifies which side of a compared row pair is authoritative.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
	WinnerEqual  Winner = "equal"
)

// ConflictRecord captures one last-writer-wins decision on an existing local
// row. Records accumulate in a dated audit log; a record is written even when
// the remote side simply has a legitimately newer edit.
type ConflictRecord struct {
	ID     int64  `json:"id"`
	Winner Winner `json:"winner"`
	Local  Item   `json:"local"`
	Remote Item   `json:"remote"`
}

// DownloadResult reports what a download pass changed locally.
type DownloadResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// SyncResult contains statistics from a bidirectional cycle.
type SyncResult struct {
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Uploaded int           `json:"uploaded"`
	Duration time.Duration `json:"duration"`
}

// BackupInfo describes a database snapshot taken by CreateBackup.
type BackupInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	SHA256    string    `json:"sha256"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultBatchSize bounds memory when streaming large tables to the sheet.
const DefaultBatchSize = 5000
