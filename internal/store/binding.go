package store

import (
	"database/sql"
	"errors"
	"sort"
	"time"
)

// Binding maps a classifier label to a gesture symbol name.
type Binding struct {
	Label     string
	Symbol    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BindingRepository provides access to label bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Put creates or replaces the binding for b.Label.
func (r *BindingRepository) Put(b *Binding) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO bindings (label, symbol, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(label) DO UPDATE SET symbol = excluded.symbol, updated_at = excluded.updated_at`,
		b.Label, b.Symbol, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// Get retrieves the binding for label.
func (r *BindingRepository) Get(label string) (*Binding, error) {
	b := &Binding{}
	err := r.db.QueryRow(
		`SELECT label, symbol, created_at, updated_at FROM bindings WHERE label = ?`,
		label,
	).Scan(&b.Label, &b.Symbol, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List returns all bindings ordered by label.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT label, symbol, created_at, updated_at FROM bindings ORDER BY label`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.Label, &b.Symbol, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bindings, nil
}

// Map returns all bindings as label to symbol.
func (r *BindingRepository) Map() (map[string]string, error) {
	bindings, err := r.List()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(bindings))
	for _, b := range bindings {
		m[b.Label] = b.Symbol
	}
	return m, nil
}

// Delete removes the binding for label.
func (r *BindingRepository) Delete(label string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE label = ?`, label)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Seed inserts defaults when the table is empty and reports whether it did.
func (r *BindingRepository) Seed(defaults map[string]string) (bool, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bindings`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	labels := make([]string, 0, len(defaults))
	for label := range defaults {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, label := range labels {
		if _, err := tx.Exec(
			`INSERT INTO bindings (label, symbol, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			label, defaults[label], now, now,
		); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
