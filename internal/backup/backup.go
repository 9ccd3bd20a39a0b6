// Package backup keeps timestamped copies of the snapshot file next to it.
// Copies are taken before destructive operations (import, reset, restore
// and recovery from an unreadable snapshot) and rotated to a fixed count.
package backup

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/storage"
	"github.com/julianstephens/habittasker/internal/storage/sqlite"
)

// ErrNoSource is returned when there is no snapshot file to back up.
var ErrNoSource = errors.New("snapshot file does not exist")

var backupNameRe = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.BackupFilePrefix) +
	`(\d{8}-\d{4}(?:\d{2})?)(?:-(\d+))?(\.[A-Za-z]+)$`)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64

	seq int
}

// Name is the file name without its directory.
func (b BackupInfo) Name() string {
	return filepath.Base(b.Path)
}

// Manager handles backup operations for one snapshot file.
type Manager struct {
	dataPath  string
	backupDir string
	suffix    string
	keep      int
	now       func() time.Time
}

// NewManager creates a manager that stores backups in a "backups"
// directory beside dataPath. Backup files keep dataPath's extension.
func NewManager(dataPath string) *Manager {
	suffix := strings.ToLower(filepath.Ext(dataPath))
	if suffix == "" {
		suffix = constants.ExportFileSuffix
	}
	return &Manager{
		dataPath:  dataPath,
		backupDir: filepath.Join(filepath.Dir(dataPath), constants.BackupDirName),
		suffix:    suffix,
		keep:      constants.MaxBackups,
		now:       time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup copies the snapshot file into the backup directory and
// rotates old copies.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(true)
}

func (m *Manager) createBackup(rotate bool) (string, error) {
	if _, err := os.Stat(m.dataPath); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoSource, m.dataPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	if storage.IsSQLitePath(m.dataPath) {
		err = m.backupDatabase(dest)
	} else {
		err = copyFile(m.dataPath, dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", m.dataPath, err)
	}
	logger.Debug("Backup written", "path", dest)

	if rotate {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return dest, nil
}

// nextBackupPath uses minute precision, falling back to seconds and then a
// counter when several backups are taken close together.
func (m *Manager) nextBackupPath() (string, error) {
	now := m.now()
	candidate := func(stamp string, n int) string {
		name := constants.BackupFilePrefix + stamp
		if n > 0 {
			name += "-" + strconv.Itoa(n)
		}
		return filepath.Join(m.backupDir, name+m.suffix)
	}
	free := func(p string) bool {
		_, err := os.Stat(p)
		return errors.Is(err, fs.ErrNotExist)
	}

	if p := candidate(now.Format("20060102-1504"), 0); free(p) {
		return p, nil
	}
	stamp := now.Format("20060102-150405")
	for n := range 100 {
		if p := candidate(stamp, n); free(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// backupDatabase writes a consistent copy with VACUUM INTO, falling back to
// a plain copy when the source cannot be opened as a database.
func (m *Manager) backupDatabase(dest string) error {
	src := sqlite.NewStore(m.dataPath)
	if err := src.Open(false); err != nil {
		logger.Warn("Database unreadable, copying file as is", "path", m.dataPath, "error", err)
		return copyFile(m.dataPath, dest)
	}
	defer src.Close()

	if err := src.VacuumInto(dest); err != nil {
		logger.Warn("VACUUM INTO failed, copying file as is", "error", err)
		_ = os.Remove(dest)
		return copyFile(m.dataPath, dest)
	}
	return nil
}

// ListBackups returns every backup for this snapshot kind, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, seq, suffix, ok := parseBackupName(entry.Name())
		if !ok || !strings.EqualFold(suffix, m.suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	slices.SortFunc(backups, func(a, b BackupInfo) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	return backups, nil
}

func parseBackupName(name string) (ts time.Time, seq int, suffix string, ok bool) {
	match := backupNameRe.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, 0, "", false
	}
	layout := "20060102-1504"
	if len(match[1]) == len(layout)+2 {
		layout = "20060102-150405"
	}
	ts, err := time.ParseInLocation(layout, match[1], time.Local)
	if err != nil {
		return time.Time{}, 0, "", false
	}
	if match[2] != "" {
		seq, _ = strconv.Atoi(match[2])
	}
	return ts, seq, match[3], true
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) <= m.keep {
		return nil
	}
	for _, b := range backups[m.keep:] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
		logger.Debug("Removed old backup", "path", b.Path)
	}
	return nil
}

// Resolve accepts a backup file name or a path and returns the full path.
func (m *Manager) Resolve(nameOrPath string) string {
	if filepath.Base(nameOrPath) == nameOrPath {
		return filepath.Join(m.backupDir, nameOrPath)
	}
	return nameOrPath
}

// RestoreBackup replaces the snapshot file with a backup. The backup must
// hold a readable snapshot; the current file is backed up first. Callers
// must close any open store on the snapshot file beforehand.
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); err != nil {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if !strings.EqualFold(filepath.Ext(backupPath), m.suffix) {
		return "", fmt.Errorf("backup %s does not match snapshot format %s", filepath.Base(backupPath), m.suffix)
	}
	if err := verifyBackup(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.dataPath); err == nil {
		p, err := m.createBackup(false)
		if err != nil {
			return "", fmt.Errorf("failed to backup current snapshot before restore: %w", err)
		}
		previous = p
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to read backup file: %w", err)
	}
	if err := storage.WriteFileAtomic(m.dataPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to restore snapshot: %w", err)
	}
	logger.Info("Backup restored", "from", backupPath, "to", m.dataPath)
	return previous, nil
}

// verifyBackup loads the backup through the matching storage backend.
func verifyBackup(path string) error {
	var p storage.Provider
	if storage.IsSQLitePath(path) {
		p = storage.NewSQLiteStore(path)
	} else {
		p = storage.NewJSONStore(path)
	}
	defer p.Close()

	snap, err := p.Load()
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New("backup holds no snapshot")
	}
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
