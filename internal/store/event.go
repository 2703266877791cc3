package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLimit is the number of events List returns when no limit is given.
const DefaultEventLimit = 50

// Event records a change of recognised gesture symbol.
type Event struct {
	ID         string
	Seq        uint64
	Label      string
	Confidence float64 // NaN when the classifier reported a malformed value
	Symbol     string
	Command    string
	CreatedAt  time.Time
}

// EventRepository provides access to the gesture event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends an event, assigning an ID and timestamp when unset.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var confidence sql.NullFloat64
	if !math.IsNaN(e.Confidence) && !math.IsInf(e.Confidence, 0) {
		confidence = sql.NullFloat64{Float64: e.Confidence, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, seq, label, confidence, symbol, command, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, int64(e.Seq), e.Label, confidence, e.Symbol, e.Command, e.CreatedAt,
	)
	return err
}

// List returns up to limit events, newest first.
// A limit of zero or less returns DefaultEventLimit events.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := r.db.Query(
		`SELECT id, seq, label, confidence, symbol, command, created_at
		 FROM events ORDER BY created_at DESC, seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var seq int64
		var confidence sql.NullFloat64

		if err := rows.Scan(&e.ID, &seq, &e.Label, &confidence, &e.Symbol, &e.Command, &e.CreatedAt); err != nil {
			return nil, err
		}

		e.Seq = uint64(seq)
		e.Confidence = math.NaN()
		if confidence.Valid {
			e.Confidence = confidence.Float64
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (
			SELECT id FROM events ORDER BY created_at DESC, seq DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
