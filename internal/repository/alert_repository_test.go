package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

func TestAlertMarkerIsOneShot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	insert := regexp.QuoteMeta("INSERT INTO utilization_alerts")

	// First crossing inserts a row.
	mock.ExpectExec(insert).
		WithArgs(models.RoleRBT, "rbt-1", "2026-03", 80, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	fresh, err := repo.MarkSent(context.Background(), models.RoleRBT, "rbt-1", "2026-03", 80)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Replay hits the ON CONFLICT guard and affects nothing.
	mock.ExpectExec(insert).
		WithArgs(models.RoleRBT, "rbt-1", "2026-03", 80, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	fresh, err = repo.MarkSent(context.Background(), models.RoleRBT, "rbt-1", "2026-03", 80)
	require.NoError(t, err)
	assert.False(t, fresh)

	assert.NoError(t, mock.ExpectationsWereMet())
}
