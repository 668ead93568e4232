package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func blockRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "date", "start_time", "end_time", "status",
		"provider_role", "provider_id", "patient_id", "room_id",
		"created_at", "updated_at",
	}).AddRow("blk-1", "2026-03-02", "09:00", "10:00", "scheduled",
		"RBT", "rbt-1", "pat-1", "room-1", now, now)
}

func TestBlockRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM blocks WHERE date = $1 ORDER BY start_time ASC, id ASC")).
		WithArgs("2026-03-02").
		WillReturnRows(blockRows())

	blocks, err := repo.ListByDate(context.Background(), "2026-03-02")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "blk-1", blocks[0].ID)
	assert.Equal(t, models.RoleRBT, blocks[0].ProviderRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("date = $1 AND provider_role = $2 AND status = $3")).
		WithArgs("2026-03-02", models.RoleRBT, models.StatusScheduled).
		WillReturnRows(blockRows())

	blocks, err := repo.List(context.Background(), models.BlockFilter{
		Date:         "2026-03-02",
		ProviderRole: models.RoleRBT,
		Status:       models.StatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocks")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	block := models.Block{
		Date: "2026-03-02", Start: "09:00", End: "10:00",
		Status: models.StatusScheduled, ProviderRole: models.RoleRBT,
		ProviderID: "rbt-1", PatientID: "pat-1",
	}
	require.NoError(t, repo.Create(context.Background(), &block))
	assert.NotEmpty(t, block.ID)
	assert.False(t, block.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepositorySplitTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBlockRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE blocks SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocks WHERE id = $1")).
		WithArgs("blk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	shrunk := models.Block{ID: "blk-1", Date: "2026-03-02", Start: "09:00", End: "10:00",
		Status: models.StatusScheduled, ProviderRole: models.RoleRBT, ProviderID: "rbt-1", PatientID: "pat-1"}
	require.NoError(t, repo.UpdateWithTx(ctx, tx, &shrunk))

	inserted := models.Block{Date: "2026-03-02", Start: "10:00", End: "10:30",
		Status: models.StatusSpeech, ProviderRole: models.RoleSLP, ProviderID: "slp-1", PatientID: "pat-1"}
	require.NoError(t, repo.CreateWithTx(ctx, tx, &inserted))
	assert.NotEmpty(t, inserted.ID)

	require.NoError(t, repo.DeleteWithTx(ctx, tx, "blk-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
