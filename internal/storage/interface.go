package storage

import "github.com/julianstephens/habittasker/internal/models"

// Provider persists whole snapshots. There is no incremental persistence:
// Load returns everything and Save replaces everything.
type Provider interface {
	// Load returns the stored snapshot, or (nil, nil) when nothing has been
	// stored yet.
	Load() (*models.AppSnapshot, error)
	// Save durably replaces the stored snapshot.
	Save(models.AppSnapshot) error
	Close() error

	// Path is the location of the backing file.
	Path() string
}
