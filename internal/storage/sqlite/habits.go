package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

const (
	metaSchemaVersion = "schema_version"
	metaSavedAt       = "saved_at"
)

// LoadSnapshot reads every habit in position order. It returns (nil, nil)
// when no snapshot has ever been saved into this database.
func (s *Store) LoadSnapshot() (*models.AppSnapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	var raw string
	err := s.db.QueryRow("SELECT value FROM snapshot_meta WHERE key = ?", metaSchemaVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid stored schema version %q: %w", raw, err)
	}

	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	return &models.AppSnapshot{SchemaVersion: version, Habits: habits}, nil
}

func (s *Store) loadHabits() ([]models.Habit, error) {
	rows, err := s.db.Query(`
		SELECT id, name, icon, color_hex
		FROM habits ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	index := map[string]int{}
	for rows.Next() {
		h := models.Habit{DayStates: map[string]models.DayState{}}
		if err := rows.Scan(&h.ID, &h.Name, &h.Icon, &h.ColorHex); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stateRows, err := s.db.Query(`SELECT habit_id, day, state FROM day_states`)
	if err != nil {
		return nil, fmt.Errorf("failed to query day states: %w", err)
	}
	defer stateRows.Close()

	for stateRows.Next() {
		var habitID, day, state string
		if err := stateRows.Scan(&habitID, &day, &state); err != nil {
			return nil, fmt.Errorf("failed to scan day state: %w", err)
		}
		i, ok := index[habitID]
		if !ok {
			continue
		}
		if _, err := utils.DateFromKey(day); err != nil {
			return nil, fmt.Errorf("habit %s: %w", habitID, err)
		}
		ds, err := models.ParseDayState(state)
		if err != nil {
			return nil, fmt.Errorf("habit %s day %s: %w", habitID, day, err)
		}
		if ds != models.StateNone {
			habits[i].DayStates[day] = ds
		}
	}
	return habits, stateRows.Err()
}

// SaveSnapshot replaces every stored habit with snap's in one transaction.
func (s *Store) SaveSnapshot(snap models.AppSnapshot) error {
	if s.db == nil {
		return fmt.Errorf("database not open")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM day_states"); err != nil {
		return fmt.Errorf("failed to clear day states: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM habits"); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}

	habitStmt, err := tx.Prepare(`
		INSERT INTO habits (id, position, name, icon, color_hex)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer habitStmt.Close()

	stateStmt, err := tx.Prepare(`INSERT INTO day_states (habit_id, day, state) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stateStmt.Close()

	for pos, h := range snap.Habits {
		if _, err := habitStmt.Exec(h.ID, pos, h.Name, h.Icon, h.ColorHex); err != nil {
			return fmt.Errorf("failed to insert habit %s: %w", h.ID, err)
		}
		for day, state := range h.DayStates {
			if state == models.StateNone || state == "" {
				continue
			}
			if _, err := stateStmt.Exec(h.ID, day, string(state)); err != nil {
				return fmt.Errorf("failed to insert day state %s/%s: %w", h.ID, day, err)
			}
		}
	}

	meta := map[string]string{
		metaSchemaVersion: strconv.Itoa(snap.SchemaVersion),
		metaSavedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`
			INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("failed to write snapshot metadata: %w", err)
		}
	}

	return tx.Commit()
}
