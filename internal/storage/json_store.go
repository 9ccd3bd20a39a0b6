package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
)

// JSONStore keeps the snapshot in a single JSON file.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Load() (*models.AppSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioErr("read", s.path, err)
	}
	return Decode(data)
}

func (s *JSONStore) Save(snap models.AppSnapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteFileAtomic(s.path, data, 0600); err != nil {
		return err
	}
	logger.Debug("Snapshot saved", "path", s.path, "habits", len(snap.Habits), "bytes", len(data))
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// WriteFileAtomic writes data to a temp file in path's directory, syncs it
// and renames it over path, creating the directory first. Readers see either
// the old file or the new one, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ioErr("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioErr("create temp file in", dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return ioErr("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return ioErr("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ioErr("close", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return ioErr("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return ioErr("rename", path, err)
	}
	return nil
}
