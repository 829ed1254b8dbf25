package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Profile kinds. Each kind holds at most one row.
const (
	ProfileFlex     = "flex"
	ProfileInertial = "inertial"
)

// ProfileRepository persists calibration blobs keyed by kind.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Save upserts the profile of the given kind.
func (r *ProfileRepository) Save(kind string, profile any) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode %s profile: %w", kind, err)
	}

	_, err = r.db.Exec(
		`INSERT INTO profiles (kind, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		kind, string(data), time.Now(),
	)
	return err
}

// Load reads the profile of the given kind into out. Returns ErrNotFound
// when no profile of that kind has been saved.
func (r *ProfileRepository) Load(kind string, out any) error {
	var data string
	err := r.db.QueryRow(`SELECT data FROM profiles WHERE kind = ?`, kind).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("decode %s profile: %w", kind, err)
	}
	return nil
}

// Delete removes the profile of the given kind, reverting to defaults on
// the next load.
func (r *ProfileRepository) Delete(kind string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE kind = ?`, kind)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
