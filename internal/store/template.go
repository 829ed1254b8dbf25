package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/feature"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// TemplateType represents the type of gesture template (static or dynamic).
type TemplateType string

const (
	// TemplateTypeStatic represents a static hand pose.
	TemplateTypeStatic TemplateType = "static"
	// TemplateTypeDynamic represents a motion-based gesture.
	TemplateTypeDynamic TemplateType = "dynamic"
)

// Template represents a gesture template stored in the database.
type Template struct {
	ID        string
	Name      string
	Type      TemplateType
	Threshold float64
	Archetype feature.Vector
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateRepository provides CRUD operations for templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

// Create inserts a new template into the database.
func (r *TemplateRepository) Create(t *Template) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	features, err := json.Marshal(t.Archetype.Values)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO templates (id, name, type, threshold, features, feature_count, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Type), t.Threshold, string(features), t.Archetype.Count, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(id string) (*Template, error) {
	return r.get(`SELECT id, name, type, threshold, features, feature_count, samples, created_at, updated_at
		 FROM templates WHERE id = ?`, id)
}

// GetByName retrieves a template by its name.
func (r *TemplateRepository) GetByName(name string) (*Template, error) {
	return r.get(`SELECT id, name, type, threshold, features, feature_count, samples, created_at, updated_at
		 FROM templates WHERE name = ?`, name)
}

func (r *TemplateRepository) get(query, arg string) (*Template, error) {
	t := &Template{}
	var templateType, features string

	err := r.db.QueryRow(query, arg).Scan(
		&t.ID, &t.Name, &templateType, &t.Threshold, &features, &t.Archetype.Count,
		&t.Samples, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(features), &t.Archetype.Values); err != nil {
		return nil, fmt.Errorf("decode features for %s: %w", t.ID, err)
	}
	t.Type = TemplateType(templateType)
	return t, nil
}

// List retrieves all templates ordered by creation time, oldest first, so
// vocabulary positions stay stable as templates are added.
func (r *TemplateRepository) List() ([]*Template, error) {
	rows, err := r.db.Query(
		`SELECT id, name, type, threshold, features, feature_count, samples, created_at, updated_at
		 FROM templates ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t := &Template{}
		var templateType, features string

		err := rows.Scan(
			&t.ID, &t.Name, &templateType, &t.Threshold, &features, &t.Archetype.Count,
			&t.Samples, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &t.Archetype.Values); err != nil {
			return nil, fmt.Errorf("decode features for %s: %w", t.ID, err)
		}

		t.Type = TemplateType(templateType)
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// Count returns how many templates exist.
func (r *TemplateRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Update updates an existing template in the database.
func (r *TemplateRepository) Update(t *Template) error {
	t.UpdatedAt = time.Now()

	features, err := json.Marshal(t.Archetype.Values)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE templates SET name = ?, type = ?, threshold = ?, features = ?, feature_count = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, string(t.Type), t.Threshold, string(features), t.Archetype.Count, t.Samples, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a template from the database by its ID.
func (r *TemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
