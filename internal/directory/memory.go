package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRegistry is the Registry test double. Email uniqueness and the
// not-found errors mirror the Postgres behavior; cascade deletion only
// covers the directory rows themselves.
type InMemoryRegistry struct {
	mu          sync.RWMutex
	departments map[uuid.UUID]*Department
	doctors     map[uuid.UUID]*Doctor
	patients    map[uuid.UUID]*Patient
	emails      map[string]struct{}
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		departments: make(map[uuid.UUID]*Department),
		doctors:     make(map[uuid.UUID]*Doctor),
		patients:    make(map[uuid.UUID]*Patient),
		emails:      make(map[string]struct{}),
	}
}

func (r *InMemoryRegistry) ListDepartments(ctx context.Context) ([]*Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var departments []*Department
	for _, d := range r.departments {
		copied := *d
		departments = append(departments, &copied)
	}
	sort.Slice(departments, func(i, j int) bool { return departments[i].Name < departments[j].Name })
	return departments, nil
}

func (r *InMemoryRegistry) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	if name == "" {
		return nil, ErrMissingField
	}
	d := &Department{ID: uuid.New(), Name: name}

	r.mu.Lock()
	r.departments[d.ID] = d
	r.mu.Unlock()

	copied := *d
	return &copied, nil
}

func (r *InMemoryRegistry) DoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.departments[departmentID]; !ok {
		return nil, ErrDepartmentNotFound
	}
	var doctors []*Doctor
	for _, d := range r.doctors {
		if d.DepartmentID == departmentID {
			copied := *d
			doctors = append(doctors, &copied)
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

func (r *InMemoryRegistry) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *InMemoryRegistry) CreateDoctor(ctx context.Context, name, email, phone string, departmentID uuid.UUID) (*Doctor, error) {
	if name == "" || email == "" {
		return nil, ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[email]; taken {
		return nil, ErrDuplicateEmail
	}
	d := &Doctor{ID: uuid.New(), Name: name, Email: email, Phone: phone, DepartmentID: departmentID}
	r.doctors[d.ID] = d
	r.emails[email] = struct{}{}

	copied := *d
	return &copied, nil
}

func (r *InMemoryRegistry) SearchDoctors(ctx context.Context, query string) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var doctors []*Doctor
	for _, d := range r.doctors {
		if matches(query, d.Name, d.Email) {
			copied := *d
			doctors = append(doctors, &copied)
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

func (r *InMemoryRegistry) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *InMemoryRegistry) CreatePatient(ctx context.Context, name, email, phone string) (*Patient, error) {
	if name == "" || email == "" {
		return nil, ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[email]; taken {
		return nil, ErrDuplicateEmail
	}
	p := &Patient{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	r.patients[p.ID] = p
	r.emails[email] = struct{}{}

	copied := *p
	return &copied, nil
}

func (r *InMemoryRegistry) SearchPatients(ctx context.Context, query string) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var patients []*Patient
	for _, p := range r.patients {
		if matches(query, p.Name, p.Email) {
			copied := *p
			patients = append(patients, &copied)
		}
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	return patients, nil
}

func (r *InMemoryRegistry) RemoveDoctor(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	delete(r.emails, d.Email)
	delete(r.doctors, id)
	return nil
}

func (r *InMemoryRegistry) RemovePatient(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	delete(r.emails, p.Email)
	delete(r.patients, id)
	return nil
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
