package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/rleal/face-attendance/internal/gallery"
)

// UserRepository provides PostgreSQL-backed user storage.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// userColumns selects the canonical vector first and falls back to the
// legacy columns carried over from the old system.
const userColumns = `
	rut, name, career, shift, active,
	COALESCE(reference_vector, vector_promedio, vector_facial)::text,
	photo_jpeg, created_at, updated_at
`

// scanUser scans a single user row.
func scanUser(scanner interface{ Scan(...any) error }) (gallery.Entry, error) {
	var e gallery.Entry
	var vec sql.NullString
	var photo []byte

	err := scanner.Scan(
		&e.RUT,
		&e.Name,
		&e.Career,
		&e.Shift,
		&e.Active,
		&vec,
		&photo,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return gallery.Entry{}, err
	}

	if vec.Valid {
		var v pgvector.Vector
		if err := v.Scan(vec.String); err != nil {
			return gallery.Entry{}, fmt.Errorf("parse reference vector: %w", err)
		}
		e.ReferenceVector = v.Slice()
	}
	e.PhotoJPEG = photo
	return e, nil
}

// ListActive returns active users, optionally filtered by shift.
func (r *UserRepository) ListActive(ctx context.Context, shift string) ([]gallery.Entry, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE active = TRUE`
	var args []any
	if shift != "" {
		query += ` AND shift = $1`
		args = append(args, shift)
	}
	query += ` ORDER BY rut`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	for rows.Next() {
		e, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return entries, nil
}

// Get retrieves a user by RUT.
func (r *UserRepository) Get(ctx context.Context, rut string) (*gallery.Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE rut = $1`, rut)
	e, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gallery.ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", rut, err)
	}
	return &e, nil
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Upsert creates or updates a user. The reference vector is only written
// when the entry carries one, so a profile update does not wipe enrollment.
func (r *UserRepository) Upsert(ctx context.Context, e gallery.Entry) error {
	var vec any
	if e.HasReferenceVector() {
		vec = pgvector.NewVector(e.ReferenceVector)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (rut, name, career, shift, active, reference_vector, photo_jpeg)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rut) DO UPDATE SET
			name = EXCLUDED.name,
			career = EXCLUDED.career,
			shift = EXCLUDED.shift,
			active = EXCLUDED.active,
			reference_vector = COALESCE(EXCLUDED.reference_vector, users.reference_vector),
			photo_jpeg = COALESCE(EXCLUDED.photo_jpeg, users.photo_jpeg),
			updated_at = NOW()
	`, e.RUT, e.Name, e.Career, e.Shift, e.Active, vec, e.PhotoJPEG)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", e.RUT, err)
	}
	return nil
}

// SetReferenceVector stores the result of an enrollment session.
func (r *UserRepository) SetReferenceVector(ctx context.Context, rut string, vector []float32, photo []byte) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reference_vector = $2, photo_jpeg = COALESCE($3, photo_jpeg), updated_at = NOW()
		WHERE rut = $1
	`, rut, pgvector.NewVector(vector), photo)
	if err != nil {
		return fmt.Errorf("set reference vector for %s: %w", rut, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return gallery.ErrNotFound
	}
	return nil
}

// SetActive toggles a user's active flag.
func (r *UserRepository) SetActive(ctx context.Context, rut string, active bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET active = $2, updated_at = NOW() WHERE rut = $1
	`, rut, active)
	if err != nil {
		return fmt.Errorf("set active for %s: %w", rut, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return gallery.ErrNotFound
	}
	return nil
}
