package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/availability"
	"github.com/carelane/hospital-platform/internal/treatments"
)

const uniqueViolation = "23505"

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Registry is the directory of departments, doctors, and patients.
type Registry interface {
	ListDepartments(ctx context.Context) ([]*Department, error)
	CreateDepartment(ctx context.Context, name string) (*Department, error)
	DoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	CreateDoctor(ctx context.Context, name, email, phone string, departmentID uuid.UUID) (*Doctor, error)
	SearchDoctors(ctx context.Context, query string) ([]*Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	CreatePatient(ctx context.Context, name, email, phone string) (*Patient, error)
	SearchPatients(ctx context.Context, query string) ([]*Patient, error)
	RemoveDoctor(ctx context.Context, id uuid.UUID) error
	RemovePatient(ctx context.Context, id uuid.UUID) error
}

// PostgresRegistry implements Registry. Removal cascades through the
// ownership graph (treatments, appointments, availability) in one
// transaction so no orphan rows survive.
type PostgresRegistry struct {
	db      db
	ledger  *appointments.PostgresLedger
	windows *availability.PostgresStore
}

func NewPostgresRegistry(db db, ledger *appointments.PostgresLedger, windows *availability.PostgresStore) *PostgresRegistry {
	return &PostgresRegistry{db: db, ledger: ledger, windows: windows}
}

func (r *PostgresRegistry) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("directory: list departments: %w", err)
	}
	defer rows.Close()

	var departments []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("directory: scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

func (r *PostgresRegistry) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	if name == "" {
		return nil, ErrMissingField
	}
	d := &Department{ID: uuid.New(), Name: name}
	_, err := r.db.Exec(ctx,
		`INSERT INTO departments (id, name) VALUES ($1, $2)`, d.ID, d.Name)
	if err != nil {
		return nil, fmt.Errorf("directory: insert department: %w", err)
	}
	return d, nil
}

func (r *PostgresRegistry) DoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, departmentID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("directory: check department: %w", err)
	}
	if !exists {
		return nil, ErrDepartmentNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, phone, department_id FROM doctors
		 WHERE department_id = $1 ORDER BY name`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("directory: list doctors: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

func (r *PostgresRegistry) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone, department_id FROM doctors WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("directory: fetch doctor: %w", err)
	}
	return &d, nil
}

func (r *PostgresRegistry) CreateDoctor(ctx context.Context, name, email, phone string, departmentID uuid.UUID) (*Doctor, error) {
	if name == "" || email == "" {
		return nil, ErrMissingField
	}
	d := &Doctor{ID: uuid.New(), Name: name, Email: email, Phone: phone, DepartmentID: departmentID}
	_, err := r.db.Exec(ctx,
		`INSERT INTO doctors (id, name, email, phone, department_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.Name, d.Email, d.Phone, d.DepartmentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("directory: insert doctor: %w", err)
	}
	return d, nil
}

func (r *PostgresRegistry) SearchDoctors(ctx context.Context, query string) ([]*Doctor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, phone, department_id FROM doctors
		 WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		 ORDER BY name`, query)
	if err != nil {
		return nil, fmt.Errorf("directory: search doctors: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

func (r *PostgresRegistry) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory: fetch patient: %w", err)
	}
	return &p, nil
}

func (r *PostgresRegistry) CreatePatient(ctx context.Context, name, email, phone string) (*Patient, error) {
	if name == "" || email == "" {
		return nil, ErrMissingField
	}
	p := &Patient{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	_, err := r.db.Exec(ctx,
		`INSERT INTO patients (id, name, email, phone) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Email, p.Phone)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("directory: insert patient: %w", err)
	}
	return p, nil
}

func (r *PostgresRegistry) SearchPatients(ctx context.Context, query string) ([]*Patient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, phone FROM patients
		 WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		 ORDER BY name`, query)
	if err != nil {
		return nil, fmt.Errorf("directory: search patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("directory: scan patient: %w", err)
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

// RemoveDoctor deletes the doctor with every dependent treatment,
// appointment, and availability row in one transaction.
func (r *PostgresRegistry) RemoveDoctor(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("directory: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := treatments.DeleteForDoctor(ctx, tx, id); err != nil {
		return err
	}
	if err := r.ledger.DeleteForDoctor(ctx, tx, id); err != nil {
		return err
	}
	if err := r.windows.DeleteForDoctor(ctx, tx, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("directory: delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("directory: commit tx: %w", err)
	}
	return nil
}

// RemovePatient deletes the patient with their treatments and appointments
// in one transaction.
func (r *PostgresRegistry) RemovePatient(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("directory: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := treatments.DeleteForPatient(ctx, tx, id); err != nil {
		return err
	}
	if err := r.ledger.DeleteForPatient(ctx, tx, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("directory: delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("directory: commit tx: %w", err)
	}
	return nil
}

func scanDoctors(rows pgx.Rows) ([]*Doctor, error) {
	var doctors []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.DepartmentID); err != nil {
			return nil, fmt.Errorf("directory: scan doctor: %w", err)
		}
		doctors = append(doctors, &d)
	}
	return doctors, rows.Err()
}
