package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

// ErrAlreadyResolved signals a status flip lost the race: the request was
// resolved by another caller between load and update.
var ErrAlreadyResolved = errors.New("interrupt request already resolved")

const interruptColumns = "id, patient_id, primary_provider_id, requester_role, requester_id, date, start_time, duration_minutes, status, created_at, updated_at"

// InterruptRepository provides persistence for interrupt requests.
type InterruptRepository struct {
	db *sqlx.DB
}

// NewInterruptRepository creates a new interrupt-request repository.
func NewInterruptRepository(db *sqlx.DB) *InterruptRepository {
	return &InterruptRepository{db: db}
}

// List returns requests matching the filter, newest first.
func (r *InterruptRepository) List(ctx context.Context, filter models.InterruptFilter) ([]models.InterruptRequest, error) {
	base := fmt.Sprintf("SELECT %s FROM interrupt_requests WHERE 1=1", interruptColumns)
	var conditions []string
	var args []interface{}

	if filter.PrimaryID != "" {
		conditions = append(conditions, fmt.Sprintf("primary_provider_id = $%d", len(args)+1))
		args = append(args, filter.PrimaryID)
	}
	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var requests []models.InterruptRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list interrupt requests: %w", err)
	}
	return requests, nil
}

// FindByID loads a request by id.
func (r *InterruptRepository) FindByID(ctx context.Context, id string) (*models.InterruptRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM interrupt_requests WHERE id = $1`, interruptColumns)
	var request models.InterruptRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create stores a new pending request.
func (r *InterruptRepository) Create(ctx context.Context, request *models.InterruptRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO interrupt_requests (id, patient_id, primary_provider_id, requester_role, requester_id, date, start_time, duration_minutes, status, created_at, updated_at)
		VALUES (:id, :patient_id, :primary_provider_id, :requester_role, :requester_id, :date, :start_time, :duration_minutes, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create interrupt request: %w", err)
	}
	return nil
}

// resolveQuery flips a request out of pending. Guarding on the current status
// makes resolution first-writer-wins: a request can never leave denied or
// applied once there.
const resolveQuery = `UPDATE interrupt_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

// UpdateStatus resolves a pending request. Returns ErrAlreadyResolved when
// the request is no longer pending.
func (r *InterruptRepository) UpdateStatus(ctx context.Context, id string, status models.InterruptStatus) error {
	result, err := r.db.ExecContext(ctx, resolveQuery, status, time.Now().UTC(), id, models.InterruptPending)
	if err != nil {
		return fmt.Errorf("update interrupt status: %w", err)
	}
	return checkResolved(result)
}

// UpdateStatusWithTx resolves a pending request inside a transaction so the
// approval split and the status flip commit together. Returns
// ErrAlreadyResolved when a concurrent resolution won.
func (r *InterruptRepository) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.InterruptStatus) error {
	result, err := tx.ExecContext(ctx, resolveQuery, status, time.Now().UTC(), id, models.InterruptPending)
	if err != nil {
		return fmt.Errorf("update interrupt status in tx: %w", err)
	}
	return checkResolved(result)
}

func checkResolved(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update interrupt status: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyResolved
	}
	return nil
}
