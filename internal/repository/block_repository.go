package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

const blockColumns = "id, date, start_time, end_time, status, provider_role, provider_id, patient_id, room_id, created_at, updated_at"

// BlockRepository provides persistence for schedule blocks.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new block repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// ListByDate returns every block on a date, canceled ones included, ordered
// by start time for stable grid rendering.
func (r *BlockRepository) ListByDate(ctx context.Context, date string) ([]models.Block, error) {
	query := fmt.Sprintf(`SELECT %s FROM blocks WHERE date = $1 ORDER BY start_time ASC, id ASC`, blockColumns)
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, date); err != nil {
		return nil, fmt.Errorf("list blocks by date: %w", err)
	}
	return blocks, nil
}

// List returns blocks matching the filter.
func (r *BlockRepository) List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error) {
	base := fmt.Sprintf("SELECT %s FROM blocks WHERE 1=1", blockColumns)
	var conditions []string
	var args []interface{}

	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.ProviderRole != "" {
		conditions = append(conditions, fmt.Sprintf("provider_role = $%d", len(args)+1))
		args = append(args, filter.ProviderRole)
	}
	if filter.ProviderID != "" {
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", len(args)+1))
		args = append(args, filter.ProviderID)
	}
	if filter.PatientID != "" {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)+1))
		args = append(args, filter.PatientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, start_time ASC, id ASC"

	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// ListForProviderInRange returns a provider's blocks between two dates
// inclusive, for utilization accounting.
func (r *BlockRepository) ListForProviderInRange(ctx context.Context, role models.ProviderRole, providerID, dateFrom, dateTo string) ([]models.Block, error) {
	query := fmt.Sprintf(`SELECT %s FROM blocks WHERE provider_role = $1 AND provider_id = $2 AND date >= $3 AND date <= $4`, blockColumns)
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, role, providerID, dateFrom, dateTo); err != nil {
		return nil, fmt.Errorf("list blocks for provider: %w", err)
	}
	return blocks, nil
}

// FindByID loads a block by id.
func (r *BlockRepository) FindByID(ctx context.Context, id string) (*models.Block, error) {
	query := fmt.Sprintf(`SELECT %s FROM blocks WHERE id = $1`, blockColumns)
	var block models.Block
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Create stores a new block record.
func (r *BlockRepository) Create(ctx context.Context, block *models.Block) error {
	prepareBlock(block)
	const query = `INSERT INTO blocks (id, date, start_time, end_time, status, provider_role, provider_id, patient_id, room_id, created_at, updated_at)
		VALUES (:id, :date, :start_time, :end_time, :status, :provider_role, :provider_id, :patient_id, :room_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// Update replaces a block's mutable fields.
func (r *BlockRepository) Update(ctx context.Context, block *models.Block) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blocks SET date = :date, start_time = :start_time, end_time = :end_time, status = :status,
		provider_role = :provider_role, provider_id = :provider_id, patient_id = :patient_id, room_id = :room_id,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return nil
}

// CreateWithTx inserts a block inside an existing transaction.
func (r *BlockRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, block *models.Block) error {
	prepareBlock(block)
	const query = `INSERT INTO blocks (id, date, start_time, end_time, status, provider_role, provider_id, patient_id, room_id, created_at, updated_at)
		VALUES (:id, :date, :start_time, :end_time, :status, :provider_role, :provider_id, :patient_id, :room_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, block); err != nil {
		return fmt.Errorf("create block in tx: %w", err)
	}
	return nil
}

// UpdateWithTx updates a block inside an existing transaction.
func (r *BlockRepository) UpdateWithTx(ctx context.Context, tx *sqlx.Tx, block *models.Block) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blocks SET date = :date, start_time = :start_time, end_time = :end_time, status = :status,
		provider_role = :provider_role, provider_id = :provider_id, patient_id = :patient_id, room_id = :room_id,
		updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, block); err != nil {
		return fmt.Errorf("update block in tx: %w", err)
	}
	return nil
}

// DeleteWithTx removes a block row inside a transaction. Used only by the
// interrupt split when the borrowed window starts exactly at the original
// block's start; ordinary cancellation is a status transition, not removal.
func (r *BlockRepository) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete block in tx: %w", err)
	}
	return nil
}

func prepareBlock(block *models.Block) {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now
}
