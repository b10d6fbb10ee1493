package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pstuifzand/tui-mindmap/internal/exchange"
	"github.com/pstuifzand/tui-mindmap/internal/model"
)

const (
	backupTimeLayout = "20060102_150405"
	backupExt        = ".json"
	sessionIDLen     = 8
)

// BackupManager writes copies of a document before it is replaced or cleared
type BackupManager struct {
	backupDir string
	sessionID string
}

// NewBackupManager creates a backup manager writing to dir. An empty dir
// uses the default location under the user's data directory.
func NewBackupManager(dir string) (*BackupManager, error) {
	if dir == "" {
		dir = DefaultBackupDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create backup directory")
	}

	return &BackupManager{
		backupDir: dir,
		sessionID: uuid.NewString()[:sessionIDLen],
	}, nil
}

// SessionID returns the 8-character id stamped on this manager's backups.
func (bm *BackupManager) SessionID() string {
	return bm.sessionID
}

// GetBackupDir returns the directory backups are written to
func (bm *BackupManager) GetBackupDir() string {
	return bm.backupDir
}

// CreateBackup writes doc to a new timestamped file and returns its path.
// The document's updatedAt is kept as it was.
func (bm *BackupManager) CreateBackup(doc *model.Document) (string, error) {
	if doc == nil || doc.Root == nil {
		return "", errors.Wrap(model.ErrInvariant, "cannot back up an empty document")
	}

	data, err := exchange.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal backup")
	}

	backupPath := bm.nextBackupPath(timeNow())
	if err := writeFileAtomic(backupPath, data); err != nil {
		return "", errors.Wrap(err, "failed to write backup file")
	}
	return backupPath, nil
}

// nextBackupPath builds YYYYMMDD_HHMMSS_<session>.json, adding a counter when
// several backups land in the same second.
func (bm *BackupManager) nextBackupPath(now time.Time) string {
	base := fmt.Sprintf("%s_%s", now.Format(backupTimeLayout), bm.sessionID)
	candidate := filepath.Join(bm.backupDir, base+backupExt)
	for i := 2; fileExists(candidate); i++ {
		candidate = filepath.Join(bm.backupDir, fmt.Sprintf("%s_%d%s", base, i, backupExt))
	}
	return candidate
}

// BackupMetadata holds parsed information about a backup file
type BackupMetadata struct {
	FilePath  string    // Full path to backup file
	Timestamp time.Time // Parsed from the filename
	Sequence  int       // 1 for the first backup in a second, then 2, 3, ...
	SessionID string
	ModTime   time.Time // orders backups of different sessions within a second
	Title     string    // Root title, empty when the file could not be read
	Nodes     int
}

// List returns all backups in the directory, oldest first. Files that do not
// follow the backup naming scheme are skipped.
func (bm *BackupManager) List() ([]BackupMetadata, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read backup directory")
	}

	var backups []BackupMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}
		metadata, err := parseBackupFilename(entry.Name(), filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			continue
		}
		if info, err := entry.Info(); err == nil {
			metadata.ModTime = info.ModTime()
		}
		backups = append(backups, metadata)
	}

	sortBackupsByTimestamp(backups)
	return backups, nil
}

// Restore reads the backup at path. The caller decides what to replace with
// it.
func (bm *BackupManager) Restore(path string) (*model.Document, error) {
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		path = filepath.Join(bm.backupDir, path)
	}
	return exchange.ImportFile(path)
}

// parseBackupFilename extracts metadata from a backup filename
// Expected format: YYYYMMDD_HHMMSS_<sessionID>[_N].json
func parseBackupFilename(filename string, fullPath string) (BackupMetadata, error) {
	name := strings.TrimSuffix(filename, backupExt)
	minLen := len(backupTimeLayout) + 1 + sessionIDLen
	if len(name) < minLen || name[len(backupTimeLayout)] != '_' {
		return BackupMetadata{}, errors.New("not a backup filename")
	}

	timestamp, err := time.ParseInLocation(backupTimeLayout, name[:len(backupTimeLayout)], time.Local)
	if err != nil {
		return BackupMetadata{}, errors.Wrap(err, "invalid timestamp format")
	}

	sessionID := name[len(backupTimeLayout)+1 : minLen]
	sequence := 1
	if rest := name[minLen:]; rest != "" {
		if _, err := fmt.Sscanf(rest, "_%d", &sequence); err != nil {
			return BackupMetadata{}, errors.Wrap(err, "invalid sequence suffix")
		}
	}

	metadata := BackupMetadata{
		FilePath:  fullPath,
		Timestamp: timestamp,
		Sequence:  sequence,
		SessionID: sessionID,
	}
	if doc, err := exchange.ImportFile(fullPath); err == nil {
		metadata.Title = doc.Root.Title
		metadata.Nodes = doc.Count()
	}
	return metadata, nil
}

// sortBackupsByTimestamp sorts backups chronologically (oldest first)
func sortBackupsByTimestamp(backups []BackupMetadata) {
	slices.SortFunc(backups, func(a, b BackupMetadata) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if a.Sequence != b.Sequence {
			return a.Sequence - b.Sequence
		}
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
}

// DefaultBackupDir returns ~/.local/share/tui-mindmap/backups
func DefaultBackupDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tui-mindmap", "backups")
	}
	return filepath.Join(homeDir, ".local", "share", "tui-mindmap", "backups")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
