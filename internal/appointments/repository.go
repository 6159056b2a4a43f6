package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (doctor_id, scheduled_at) WHERE status <> 'Cancelled'.
const uniqueViolation = "23505"

// Querier is the subset of pgx used by the ledger. pgxpool.Pool, pgx.Tx and
// pgxmock all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger is the appointment store contract consumed by scheduling,
// treatments and the HTTP handlers.
type Ledger interface {
	FindConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error)
	Create(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time) (*Appointment, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
	ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID, now time.Time) ([]*Appointment, error)
	ListHistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListSharedHistory(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error)
	ListAll(ctx context.Context) ([]*Appointment, error)
}

// PostgresLedger stores appointments in the relational database.
type PostgresLedger struct {
	db Querier
}

// NewPostgresLedger initializes a ledger backed by pgx.
func NewPostgresLedger(db Querier) *PostgresLedger {
	if db == nil {
		panic("appointments: pgx querier required")
	}
	return &PostgresLedger{db: db}
}

// FindConflict reports whether a non-cancelled appointment exists at exactly
// (doctor, at).
func (l *PostgresLedger) FindConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND scheduled_at = $2 AND status <> 'Cancelled'
		)
	`
	var exists bool
	if err := l.db.QueryRow(ctx, query, doctorID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("appointments: conflict check: %w", err)
	}
	return exists, nil
}

// Create inserts a Booked row. A concurrent insert for the same slot loses
// against the partial unique index and surfaces as ErrSlotTaken — this is
// the authoritative double-booking gate, not the application-level check.
func (l *PostgresLedger) Create(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	id := uuid.New()
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status)
		VALUES ($1, $2, $3, $4, 'Booked')
		RETURNING created_at
	`
	var createdAt time.Time
	if err := l.db.QueryRow(ctx, query, id, patientID, doctorID, at).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return &Appointment{
		ID:          id,
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Status:      StatusBooked,
		CreatedAt:   createdAt,
	}, nil
}

// BookedTimes returns the timestamps of non-cancelled appointments for the
// doctor within [from, to).
func (l *PostgresLedger) BookedTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT scheduled_at
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
		  AND status <> 'Cancelled'
		ORDER BY scheduled_at
	`
	rows, err := l.db.Query(ctx, query, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("appointments: scan booked time: %w", err)
		}
		times = append(times, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	return times, nil
}

// GetByID fetches one appointment.
func (l *PostgresLedger) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		WHERE id = $1
	`
	appt, err := scanAppointment(l.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return appt, nil
}

// SetStatus transitions a Booked appointment. Terminal rows are left
// untouched and reported as ErrTerminalStatus.
func (l *PostgresLedger) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'Booked'
		RETURNING id, patient_id, doctor_id, scheduled_at, status, created_at
	`
	appt, err := scanAppointment(l.db.QueryRow(ctx, query, id, string(status)))
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointments: set status: %w", err)
	}

	// Distinguish a missing row from a terminal one.
	current, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, ErrTerminalStatus
	}
	return nil, fmt.Errorf("appointments: set status: unexpected state %q", current.Status)
}

// ListForDoctorBetween returns the doctor's appointments within [from, to),
// ascending. Cancelled rows are included so the day sheet shows them.
func (l *PostgresLedger) ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at
	`
	return l.queryAppointments(ctx, query, doctorID, from, to)
}

// ListUpcomingForPatient returns the patient's future appointments, ascending.
func (l *PostgresLedger) ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID, now time.Time) ([]*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		WHERE patient_id = $1 AND scheduled_at >= $2
		ORDER BY scheduled_at
	`
	return l.queryAppointments(ctx, query, patientID, now)
}

// ListHistoryForPatient returns all of the patient's appointments, newest first.
func (l *PostgresLedger) ListHistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC
	`
	return l.queryAppointments(ctx, query, patientID)
}

// ListSharedHistory returns the visits a patient had with one doctor, newest
// first. Doctors only ever see their own patients' history through this.
func (l *PostgresLedger) ListSharedHistory(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		WHERE doctor_id = $1 AND patient_id = $2
		ORDER BY scheduled_at DESC
	`
	return l.queryAppointments(ctx, query, doctorID, patientID)
}

// ListAll returns every appointment, newest first. Admin directory view.
func (l *PostgresLedger) ListAll(ctx context.Context) ([]*Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, created_at
		FROM appointments
		ORDER BY scheduled_at DESC
	`
	return l.queryAppointments(ctx, query)
}

// DeleteForDoctor removes the doctor's appointments. Part of the cascade
// removal transaction in directory.
func (l *PostgresLedger) DeleteForDoctor(ctx context.Context, q Querier, doctorID uuid.UUID) error {
	if q == nil {
		q = l.db
	}
	if _, err := q.Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("appointments: delete for doctor: %w", err)
	}
	return nil
}

// DeleteForPatient removes the patient's appointments inside a cascade.
func (l *PostgresLedger) DeleteForPatient(ctx context.Context, q Querier, patientID uuid.UUID) error {
	if q == nil {
		q = l.db
	}
	if _, err := q.Exec(ctx, `DELETE FROM appointments WHERE patient_id = $1`, patientID); err != nil {
		return fmt.Errorf("appointments: delete for patient: %w", err)
	}
	return nil
}

func (l *PostgresLedger) queryAppointments(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: query: %w", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: query: %w", err)
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var status string
	if err := row.Scan(&appt.ID, &appt.PatientID, &appt.DoctorID, &appt.ScheduledAt, &status, &appt.CreatedAt); err != nil {
		return nil, err
	}
	appt.Status = Status(status)
	return &appt, nil
}
