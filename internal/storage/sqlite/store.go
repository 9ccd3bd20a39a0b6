package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/migration"
	"github.com/julianstephens/habittasker/migrations"
)

// ErrNotExist is returned by Open when the database file is missing and
// creation was not requested.
var ErrNotExist = errors.New("database does not exist")

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open opens the database, creating the file and directory when create is
// set, and brings the table schema up to date.
func (s *Store) Open(create bool) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if !create {
			return ErrNotExist
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps PRAGMAs and transactions on the same handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		s.db = nil
		db.Close()
		return err
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying connection, or nil before Open.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub), nil
}

func (s *Store) migrate() error {
	r, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := r.Apply(func(msg string) { logger.Debug(msg, "db", s.path) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied and latest available table schema.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	r, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = r.CurrentVersion(); err != nil {
		return 0, 0, err
	}
	latest, err = r.LatestVersion()
	return current, latest, err
}

// VacuumInto writes a compacted copy of the database to dest.
func (s *Store) VacuumInto(dest string) error {
	if s.db == nil {
		return fmt.Errorf("database not open")
	}
	if _, err := s.db.Exec("VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("failed to vacuum into %s: %w", dest, err)
	}
	return nil
}
