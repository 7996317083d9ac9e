package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rleal/face-attendance/internal/gallery"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Append records attendance for a user at an event. A second record for
// the same (event, rut) pair is reported as already existing, not an error.
func (r *AttendanceRepository) Append(ctx context.Context, rec gallery.Attendance) (gallery.AttendanceStatus, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (id, event_id, rut, method, similarity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, rut) DO NOTHING
	`, rec.ID, rec.EventID, rec.RUT, rec.Method, rec.Similarity)
	if err != nil {
		return "", fmt.Errorf("append attendance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return gallery.AttendanceExists, nil
	}
	return gallery.AttendanceRegistered, nil
}

// ListByEvent returns all attendance records for one event, oldest first.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]gallery.Attendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, rut, method, similarity, created_at
		FROM attendance
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []gallery.Attendance
	for rows.Next() {
		var a gallery.Attendance
		if err := rows.Scan(&a.ID, &a.EventID, &a.RUT, &a.Method, &a.Similarity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}
