package storage

import (
	"errors"
	"strings"
	"sync"

	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/storage/sqlite"
)

// SQLiteStore adapts sqlite.Store to the Provider contract, mapping its
// failures onto the snapshot error kinds.
type SQLiteStore struct {
	store *sqlite.Store
	mu    sync.Mutex
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{store: sqlite.NewStore(path)}
}

func (s *SQLiteStore) Path() string {
	return s.store.Path()
}

func (s *SQLiteStore) Load() (*models.AppSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Open(false); err != nil {
		if errors.Is(err, sqlite.ErrNotExist) {
			return nil, nil
		}
		return nil, ioErr("open", s.store.Path(), err)
	}

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return nil, decodeErr("unreadable database contents", err)
	}
	if snap == nil {
		return nil, nil
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, &SchemaVersionError{Found: snap.SchemaVersion}
	}
	return snap, nil
}

func (s *SQLiteStore) Save(snap models.AppSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Open(true); err != nil {
		return ioErr("open", s.store.Path(), err)
	}
	snap.SchemaVersion = SchemaVersion
	if err := s.store.SaveSnapshot(snap); err != nil {
		return ioErr("write", s.store.Path(), err)
	}
	logger.Debug("Snapshot saved", "path", s.store.Path(), "habits", len(snap.Habits))
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

// IsSQLitePath reports whether path selects the SQLite backend.
func IsSQLitePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite")
}

// Open returns the Provider for path: SQLite for .db/.sqlite files, JSON
// otherwise.
func Open(path string) Provider {
	if IsSQLitePath(path) {
		return NewSQLiteStore(path)
	}
	return NewJSONStore(path)
}
