package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/feature"
)

// Sample represents a recorded training sample stored in the database.
type Sample struct {
	ID          int64
	TemplateID  string
	SampleIndex int
	Vector      feature.Vector
	CreatedAt   time.Time
}

// SampleRepository provides CRUD operations for training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts the samples for a template in a single transaction,
// replacing any previous recording and updating the sample count on the
// template.
func (r *SampleRepository) Create(templateID string, vectors []feature.Vector) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Update sample count on the template, which also proves it exists
	// before any rows reference it.
	result, err := tx.Exec(`UPDATE templates SET samples = ?, updated_at = ? WHERE id = ?`,
		len(vectors), time.Now(), templateID)
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

	if _, err := tx.Exec(`DELETE FROM template_samples WHERE template_id = ?`, templateID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO template_samples (template_id, sample_index, features, feature_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range vectors {
		features, err := json.Marshal(v.Values)
		if err != nil {
			return fmt.Errorf("encode sample %d: %w", i, err)
		}
		if _, err := stmt.Exec(templateID, i, string(features), v.Count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByTemplateID retrieves all samples for a given template in recording
// order.
func (r *SampleRepository) GetByTemplateID(templateID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, template_id, sample_index, features, feature_count, created_at
		 FROM template_samples
		 WHERE template_id = ?
		 ORDER BY sample_index`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var features string
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.SampleIndex, &features, &s.Vector.Count, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &s.Vector.Values); err != nil {
			return nil, fmt.Errorf("decode sample %d: %w", s.ID, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteByTemplateID removes all samples for a given template and resets its
// sample counter.
func (r *SampleRepository) DeleteByTemplateID(templateID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM template_samples WHERE template_id = ?`, templateID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE templates SET samples = 0, updated_at = ? WHERE id = ?`, time.Now(), templateID); err != nil {
		return err
	}

	return tx.Commit()
}
