package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

// DirectoryRepository is the read-only lookup surface for the patient and
// clinician directory, an external collaborator of the scheduling core.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates a new directory repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ListPatients returns patients, optionally filtered by a case-insensitive
// name search.
func (r *DirectoryRepository) ListPatients(ctx context.Context, search string) ([]models.Patient, error) {
	var patients []models.Patient
	if search != "" {
		const query = `SELECT id, name, dob, mrn FROM patients WHERE LOWER(name) LIKE LOWER($1) ORDER BY name ASC`
		if err := r.db.SelectContext(ctx, &patients, query, "%"+search+"%"); err != nil {
			return nil, fmt.Errorf("search patients: %w", err)
		}
		return patients, nil
	}
	const query = `SELECT id, name, dob, mrn FROM patients ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// ListClinicians returns clinicians, optionally filtered by role.
func (r *DirectoryRepository) ListClinicians(ctx context.Context, role models.ProviderRole) ([]models.Clinician, error) {
	var clinicians []models.Clinician
	if role != "" {
		const query = `SELECT id, role, name, availability_start, availability_end, authorized_hours FROM clinicians WHERE role = $1 ORDER BY name ASC`
		if err := r.db.SelectContext(ctx, &clinicians, query, role); err != nil {
			return nil, fmt.Errorf("list clinicians by role: %w", err)
		}
		return clinicians, nil
	}
	const query = `SELECT id, role, name, availability_start, availability_end, authorized_hours FROM clinicians ORDER BY role ASC, name ASC`
	if err := r.db.SelectContext(ctx, &clinicians, query); err != nil {
		return nil, fmt.Errorf("list clinicians: %w", err)
	}
	return clinicians, nil
}

// FindClinician looks up one clinician by role and id.
func (r *DirectoryRepository) FindClinician(ctx context.Context, role models.ProviderRole, id string) (*models.Clinician, error) {
	const query = `SELECT id, role, name, availability_start, availability_end, authorized_hours FROM clinicians WHERE role = $1 AND id = $2`
	var clinician models.Clinician
	if err := r.db.GetContext(ctx, &clinician, query, role, id); err != nil {
		return nil, err
	}
	return &clinician, nil
}

// FindPatient looks up one patient by id.
func (r *DirectoryRepository) FindPatient(ctx context.Context, id string) (*models.Patient, error) {
	const query = `SELECT id, name, dob, mrn FROM patients WHERE id = $1`
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}
