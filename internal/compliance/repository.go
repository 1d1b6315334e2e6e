package compliance

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound      = errors.New("compliance: dnc entry not found")
	ErrAlreadyListed = errors.New("compliance: number already on dnc list")
)

// Repository is the persistence contract for the DNC registry.
type Repository interface {
	// Find returns the entry for an exact number match.
	Find(ctx context.Context, number string) (DNCEntry, bool, error)

	// FindAny returns the subset of numbers that are listed.
	FindAny(ctx context.Context, numbers []string) (map[string]DNCEntry, error)

	// Add inserts an entry; ErrAlreadyListed if the number exists.
	Add(ctx context.Context, e DNCEntry) error

	Remove(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]DNCEntry, error)
}

// PostgresRepo stores DNC entries in the dnc_entries table.
//
// Assumed schema:
//   dnc_entries(id TEXT PK, phone_number TEXT UNIQUE, reason TEXT,
//               added_by_id TEXT, added_at TIMESTAMPTZ)
type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) Find(ctx context.Context, number string) (DNCEntry, bool, error) {
	const q = `
SELECT id, phone_number, reason, added_by_id, added_at
FROM dnc_entries
WHERE phone_number = $1
`
	var e DNCEntry
	err := r.DB.QueryRowContext(ctx, q, number).Scan(&e.ID, &e.PhoneNumber, &e.Reason, &e.AddedByID, &e.AddedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DNCEntry{}, false, nil
		}
		return DNCEntry{}, false, err
	}
	return e, true, nil
}

func (r *PostgresRepo) FindAny(ctx context.Context, numbers []string) (map[string]DNCEntry, error) {
	out := make(map[string]DNCEntry, len(numbers))
	if len(numbers) == 0 {
		return out, nil
	}
	// pq-style ANY avoids building a variadic IN clause.
	const q = `
SELECT id, phone_number, reason, added_by_id, added_at
FROM dnc_entries
WHERE phone_number = ANY($1)
`
	rows, err := r.DB.QueryContext(ctx, q, numbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e DNCEntry
		if err := rows.Scan(&e.ID, &e.PhoneNumber, &e.Reason, &e.AddedByID, &e.AddedAt); err != nil {
			return nil, err
		}
		out[e.PhoneNumber] = e
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Add(ctx context.Context, e DNCEntry) error {
	const q = `
INSERT INTO dnc_entries (id, phone_number, reason, added_by_id, added_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (phone_number) DO NOTHING
`
	res, err := r.DB.ExecContext(ctx, q, e.ID, e.PhoneNumber, e.Reason, e.AddedByID, e.AddedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyListed
	}
	return nil
}

func (r *PostgresRepo) Remove(ctx context.Context, id string) error {
	const q = `DELETE FROM dnc_entries WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, offset, limit int) ([]DNCEntry, error) {
	const q = `
SELECT id, phone_number, reason, added_by_id, added_at
FROM dnc_entries
ORDER BY added_at DESC
OFFSET $1 LIMIT $2
`
	rows, err := r.DB.QueryContext(ctx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DNCEntry
	for rows.Next() {
		var e DNCEntry
		if err := rows.Scan(&e.ID, &e.PhoneNumber, &e.Reason, &e.AddedByID, &e.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
