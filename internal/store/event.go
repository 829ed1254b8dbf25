package store

import (
	"database/sql"
	"time"
)

// Event represents one emitted gesture in the rolling log.
type Event struct {
	ID         string
	Name       string
	Confidence float64
	Dynamic    bool
	DurationMs int64
	CreatedAt  time.Time
}

// EventRepository persists the gesture event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Insert appends one event to the log.
func (r *EventRepository) Insert(e *Event) error {
	e.CreatedAt = time.Now()

	dynamic := 0
	if e.Dynamic {
		dynamic = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, name, confidence, dynamic, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Confidence, dynamic, e.DurationMs, e.CreatedAt,
	)
	return err
}

// Recent returns the newest events, most recent first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, name, confidence, dynamic, duration_ms, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var dynamic int
		if err := rows.Scan(&e.ID, &e.Name, &e.Confidence, &dynamic, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Dynamic = dynamic != 0
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns how many events are logged.
func (r *EventRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Prune keeps only the newest max events.
func (r *EventRepository) Prune(max int) error {
	if max <= 0 {
		return nil
	}
	_, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN
		 (SELECT id FROM events ORDER BY created_at DESC, id DESC LIMIT ?)`,
		max,
	)
	return err
}
