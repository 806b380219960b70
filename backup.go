package rugsync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// CreateBackup snapshots the database file into backupDir before risky
// operations, hashing the content while copying. Callers invoke it
// explicitly; the coordinator never does.
func CreateBackup(dbPath, backupDir string) (string, *BackupInfo, error) {
	src, err := os.Open(dbPath)
	if err != nil {
		return "", nil, fmt.Errorf("backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", nil, fmt.Errorf("backup: %w", err)
	}

	now := time.Now().UTC()
	id := ulid.Make().String()
	base := strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
	dest := filepath.Join(backupDir, fmt.Sprintf("%s-%s-%s.db", base, now.Format("20060102-150405"), id))

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", nil, fmt.Errorf("backup: %w", err)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hash), src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", nil, fmt.Errorf("backup: %w", err)
	}

	return dest, &BackupInfo{
		ID:        id,
		Source:    dbPath,
		SHA256:    hex.EncodeToString(hash.Sum(nil)),
		Size:      size,
		CreatedAt: now,
	}, nil
}
