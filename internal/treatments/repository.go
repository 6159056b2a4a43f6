package treatments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carelane/hospital-platform/internal/appointments"
)

const uniqueViolation = "23505"

// Querier is the pgx query surface shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Recorder writes and reads treatment records.
type Recorder interface {
	Create(ctx context.Context, appointmentID, doctorID uuid.UUID, diagnosis, prescription string) (*Treatment, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error)
}

// PostgresRecorder persists treatments. Create runs in one transaction and
// flips the appointment to Completed, so a treatment row and a non-Completed
// appointment can never coexist.
type PostgresRecorder struct {
	db db
}

func NewPostgresRecorder(db db) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Create(ctx context.Context, appointmentID, doctorID uuid.UUID, diagnosis, prescription string) (*Treatment, error) {
	if diagnosis == "" {
		return nil, ErrEmptyDiagnosis
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("treatments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	var status appointments.Status
	err = tx.QueryRow(ctx,
		`SELECT doctor_id, status FROM appointments WHERE id = $1 FOR UPDATE`,
		appointmentID,
	).Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appointments.ErrNotFound
		}
		return nil, fmt.Errorf("treatments: load appointment: %w", err)
	}
	if ownerID != doctorID {
		return nil, appointments.ErrNotOwner
	}
	if status == appointments.StatusCancelled {
		return nil, appointments.ErrTerminalStatus
	}

	treatment := &Treatment{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Prescription:  prescription,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO treatments (id, appointment_id, diagnosis, prescription)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		treatment.ID, appointmentID, diagnosis, prescription,
	).Scan(&treatment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyRecorded
		}
		return nil, fmt.Errorf("treatments: insert treatment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE appointments SET status = $2 WHERE id = $1`,
		appointmentID, appointments.StatusCompleted,
	); err != nil {
		return nil, fmt.Errorf("treatments: complete appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("treatments: commit tx: %w", err)
	}
	return treatment, nil
}

func (r *PostgresRecorder) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("treatments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	treatment, err := getByAppointment(ctx, tx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("treatments: commit tx: %w", err)
	}
	return treatment, nil
}

func getByAppointment(ctx context.Context, q Querier, appointmentID uuid.UUID) (*Treatment, error) {
	var t Treatment
	err := q.QueryRow(ctx,
		`SELECT id, appointment_id, diagnosis, prescription, created_at
		 FROM treatments WHERE appointment_id = $1`,
		appointmentID,
	).Scan(&t.ID, &t.AppointmentID, &t.Diagnosis, &t.Prescription, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("treatments: fetch treatment: %w", err)
	}
	return &t, nil
}

// DeleteForDoctor removes treatments hanging off the doctor's appointments.
// Runs inside the caller's cascade transaction.
func DeleteForDoctor(ctx context.Context, q Querier, doctorID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`DELETE FROM treatments WHERE appointment_id IN
		 (SELECT id FROM appointments WHERE doctor_id = $1)`,
		doctorID,
	)
	if err != nil {
		return fmt.Errorf("treatments: delete for doctor: %w", err)
	}
	return nil
}

// DeleteForPatient removes treatments hanging off the patient's appointments.
func DeleteForPatient(ctx context.Context, q Querier, patientID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`DELETE FROM treatments WHERE appointment_id IN
		 (SELECT id FROM appointments WHERE patient_id = $1)`,
		patientID,
	)
	if err != nil {
		return fmt.Errorf("treatments: delete for patient: %w", err)
	}
	return nil
}
