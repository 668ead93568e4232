package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

// AlertRepository persists one-shot utilization alert markers. A marker keyed
// by (role, provider, period, threshold) survives recomputation within the
// billing period; a new period key resets the slate.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new alert-marker repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// MarkSent records a threshold as alerted. The ON CONFLICT guard keeps the
// marker one-shot even under concurrent recomputation.
func (r *AlertRepository) MarkSent(ctx context.Context, role models.ProviderRole, providerID, period string, threshold int) (bool, error) {
	const query = `INSERT INTO utilization_alerts (provider_role, provider_id, period, threshold, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_role, provider_id, period, threshold) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, role, providerID, period, threshold, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return rows > 0, nil
}
