package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the subset of pgx used by the store. pgxpool.Pool, pgx.Tx and
// pgxmock all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Repository interface for availability windows.
type Store interface {
	Get(ctx context.Context, doctorID uuid.UUID, day time.Weekday) (*Window, error)
	Upsert(ctx context.Context, doctorID uuid.UUID, day time.Weekday, start, end TimeOfDay) (*Window, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error)
}

// PostgresStore persists windows in the doctor_availability table.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore initializes a store backed by pgx.
func NewPostgresStore(db Querier) *PostgresStore {
	if db == nil {
		panic("availability: pgx querier required")
	}
	return &PostgresStore{db: db}
}

// Get returns the doctor's window for one weekday, or ErrNoWindow.
func (s *PostgresStore) Get(ctx context.Context, doctorID uuid.UUID, day time.Weekday) (*Window, error) {
	query := `
		SELECT start_time, end_time
		FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2
	`
	var start, end pgtype.Time
	if err := s.db.QueryRow(ctx, query, doctorID, day.String()).Scan(&start, &end); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoWindow
		}
		return nil, fmt.Errorf("availability: select window: %w", err)
	}
	return &Window{
		DoctorID: doctorID,
		Day:      day,
		Start:    fromPGTime(start),
		End:      fromPGTime(end),
	}, nil
}

// Upsert replaces the doctor's window for the weekday, never duplicating the
// (doctor, day) key.
func (s *PostgresStore) Upsert(ctx context.Context, doctorID uuid.UUID, day time.Weekday, start, end TimeOfDay) (*Window, error) {
	if start >= end {
		return nil, ErrInvalidRange
	}
	query := `
		INSERT INTO doctor_availability (id, doctor_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, day_of_week)
		DO UPDATE SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query, uuid.New(), doctorID, day.String(), toPGTime(start), toPGTime(end))
	if err != nil {
		return nil, fmt.Errorf("availability: upsert window: %w", err)
	}
	return &Window{DoctorID: doctorID, Day: day, Start: start, End: end}, nil
}

// ListForDoctor returns all windows for the doctor ordered Sunday..Saturday.
func (s *PostgresStore) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	query := `
		SELECT day_of_week, start_time, end_time
		FROM doctor_availability
		WHERE doctor_id = $1
	`
	rows, err := s.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: list windows: %w", err)
	}
	defer rows.Close()

	byDay := make(map[time.Weekday]*Window)
	for rows.Next() {
		var dayName string
		var start, end pgtype.Time
		if err := rows.Scan(&dayName, &start, &end); err != nil {
			return nil, fmt.Errorf("availability: scan window: %w", err)
		}
		day, err := ParseWeekday(dayName)
		if err != nil {
			return nil, err
		}
		byDay[day] = &Window{
			DoctorID: doctorID,
			Day:      day,
			Start:    fromPGTime(start),
			End:      fromPGTime(end),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: list windows: %w", err)
	}

	var windows []*Window
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w, ok := byDay[d]; ok {
			windows = append(windows, w)
		}
	}
	return windows, nil
}

// DeleteForDoctor removes every window owned by the doctor. The querier is
// normally a transaction driven by the cascade removal in directory.
func (s *PostgresStore) DeleteForDoctor(ctx context.Context, q Querier, doctorID uuid.UUID) error {
	if q == nil {
		q = s.db
	}
	if _, err := q.Exec(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("availability: delete for doctor: %w", err)
	}
	return nil
}

func toPGTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{
		Microseconds: int64(t) * 60 * 1_000_000,
		Valid:        true,
	}
}

func fromPGTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / (60 * 1_000_000))
}
