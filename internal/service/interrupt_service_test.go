package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
)

type fakeInterruptRepo struct {
	byID     map[string]models.InterruptRequest
	statuses map[string]models.InterruptStatus

	// finds, when set, receives a signal after each FindByID so tests can
	// interleave a concurrent resolution deterministically.
	finds chan struct{}
}

func newFakeInterruptRepo(requests ...models.InterruptRequest) *fakeInterruptRepo {
	r := &fakeInterruptRepo{byID: map[string]models.InterruptRequest{}, statuses: map[string]models.InterruptStatus{}}
	for _, req := range requests {
		r.byID[req.ID] = req
	}
	return r
}

func (r *fakeInterruptRepo) List(_ context.Context, _ models.InterruptFilter) ([]models.InterruptRequest, error) {
	out := make([]models.InterruptRequest, 0, len(r.byID))
	for _, req := range r.byID {
		out = append(out, req)
	}
	return out, nil
}

func (r *fakeInterruptRepo) FindByID(_ context.Context, id string) (*models.InterruptRequest, error) {
	req, ok := r.byID[id]
	if r.finds != nil {
		r.finds <- struct{}{}
	}
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := req
	return &copied, nil
}

func (r *fakeInterruptRepo) Create(_ context.Context, request *models.InterruptRequest) error {
	request.ID = "req-new"
	r.byID[request.ID] = *request
	return nil
}

func (r *fakeInterruptRepo) UpdateStatus(_ context.Context, id string, status models.InterruptStatus) error {
	return r.resolve(id, status)
}

func (r *fakeInterruptRepo) UpdateStatusWithTx(_ context.Context, _ *sqlx.Tx, id string, status models.InterruptStatus) error {
	return r.resolve(id, status)
}

// resolve mirrors the guarded UPDATE: only a pending row flips.
func (r *fakeInterruptRepo) resolve(id string, status models.InterruptStatus) error {
	req, ok := r.byID[id]
	if !ok || req.Status != models.InterruptPending {
		return repository.ErrAlreadyResolved
	}
	req.Status = status
	r.byID[id] = req
	r.statuses[id] = status
	return nil
}

type fakeSplitRepo struct {
	day     []models.Block
	created []models.Block
	updated []models.Block
	deleted []string
}

func (r *fakeSplitRepo) ListByDate(_ context.Context, _ string) ([]models.Block, error) {
	return r.day, nil
}

func (r *fakeSplitRepo) CreateWithTx(_ context.Context, _ *sqlx.Tx, block *models.Block) error {
	r.created = append(r.created, *block)
	return nil
}

func (r *fakeSplitRepo) UpdateWithTx(_ context.Context, _ *sqlx.Tx, block *models.Block) error {
	r.updated = append(r.updated, *block)
	return nil
}

func (r *fakeSplitRepo) DeleteWithTx(_ context.Context, _ *sqlx.Tx, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeRecorder struct {
	calls []string
}

func (r *fakeRecorder) Recompute(_ context.Context, role models.ProviderRole, providerID, _ string) {
	r.calls = append(r.calls, string(role)+":"+providerID)
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func interruptFixture() models.InterruptRequest {
	return models.InterruptRequest{
		ID:              "req-1",
		PatientID:       "pat-1",
		PrimaryID:       "rbt-1",
		RequesterRole:   models.RoleSLP,
		RequesterID:     "slp-1",
		Date:            "2026-03-02",
		Start:           "10:00",
		DurationMinutes: 30,
		Status:          models.InterruptPending,
	}
}

func coveringBlock() models.Block {
	return models.Block{
		ID:           "blk-1",
		Date:         "2026-03-02",
		Start:        "09:00",
		End:          "11:00",
		Status:       models.StatusScheduled,
		ProviderRole: models.RoleRBT,
		ProviderID:   "rbt-1",
		PatientID:    "pat-1",
		RoomID:       "room-2",
	}
}

func newInterruptService(requests *fakeInterruptRepo, blocks *fakeSplitRepo, db *sqlx.DB, util *fakeRecorder) *InterruptService {
	return NewInterruptService(requests, blocks, db, NewDateLocks(), nil, util, nil, nil, config.SchedulingConfig{
		BaseRole:       "RBT",
		RequesterRoles: []string{"SLP", "OT", "PT"},
	}, nil, nil)
}

func TestApproveSplitsCoveringBlock(t *testing.T) {
	requests := newFakeInterruptRepo(interruptFixture())
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	util := &fakeRecorder{}
	svc := newInterruptService(requests, blocks, db, util)

	applied, err := svc.Approve(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterruptApplied, applied.Status)
	assert.Equal(t, models.InterruptApplied, requests.statuses["req-1"])

	// Leading remainder shrinks to the request start.
	require.Len(t, blocks.updated, 1)
	assert.Equal(t, "09:00", blocks.updated[0].Start)
	assert.Equal(t, "10:00", blocks.updated[0].End)
	assert.Empty(t, blocks.deleted)

	// Requester block plus trailing remainder.
	require.Len(t, blocks.created, 2)
	slot := blocks.created[0]
	assert.Equal(t, "10:00", slot.Start)
	assert.Equal(t, "10:30", slot.End)
	assert.Equal(t, models.StatusSpeech, slot.Status)
	assert.Equal(t, models.RoleSLP, slot.ProviderRole)

	after := blocks.created[1]
	assert.Equal(t, "10:30", after.Start)
	assert.Equal(t, "11:00", after.End)
	assert.Equal(t, models.StatusScheduled, after.Status)
	assert.Equal(t, models.RoleRBT, after.ProviderRole)
	assert.Equal(t, "room-2", after.RoomID)

	assert.ElementsMatch(t, []string{"RBT:rbt-1", "SLP:slp-1"}, util.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAtBlockStartRemovesOriginal(t *testing.T) {
	req := interruptFixture()
	req.Start = "09:00"
	requests := newFakeInterruptRepo(req)
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"blk-1"}, blocks.deleted)
	assert.Empty(t, blocks.updated)
	require.Len(t, blocks.created, 2)
	assert.Equal(t, "09:30", blocks.created[1].Start)
	assert.Equal(t, "11:00", blocks.created[1].End)
}

func TestApproveConsumingWholeBlock(t *testing.T) {
	req := interruptFixture()
	req.Start = "09:00"
	req.DurationMinutes = 120
	requests := newFakeInterruptRepo(req)
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"blk-1"}, blocks.deleted)
	require.Len(t, blocks.created, 1)
	assert.Equal(t, "09:00", blocks.created[0].Start)
	assert.Equal(t, "11:00", blocks.created[0].End)
}

func TestApproveWithoutCoveringBlock(t *testing.T) {
	req := interruptFixture()
	req.Start = "10:30"
	req.DurationMinutes = 60 // runs past 11:00
	requests := newFakeInterruptRepo(req)
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)

	// Request stays pending, schedule untouched.
	assert.Empty(t, requests.statuses)
	assert.Empty(t, blocks.created)
	assert.Empty(t, blocks.updated)
	assert.Empty(t, blocks.deleted)
}

func TestApproveIgnoresCanceledCoverage(t *testing.T) {
	canceled := coveringBlock()
	canceled.Status = models.StatusCanceled
	requests := newFakeInterruptRepo(interruptFixture())
	blocks := &fakeSplitRepo{day: []models.Block{canceled}}
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestResolveTwiceFails(t *testing.T) {
	req := interruptFixture()
	req.Status = models.InterruptDenied
	requests := newFakeInterruptRepo(req)
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, &fakeSplitRepo{}, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)

	_, err = svc.Deny(context.Background(), "req-1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestDenyLeavesScheduleAlone(t *testing.T) {
	requests := newFakeInterruptRepo(interruptFixture())
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	denied, err := svc.Deny(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterruptDenied, denied.Status)
	assert.Equal(t, models.InterruptDenied, requests.statuses["req-1"])
	assert.Empty(t, blocks.created)
}

func TestApproveFailsAfterConcurrentDeny(t *testing.T) {
	requests := newFakeInterruptRepo(interruptFixture())
	requests.finds = make(chan struct{}, 4)
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, _ := newTxDB(t)
	util := &fakeRecorder{}
	locks := NewDateLocks()
	svc := NewInterruptService(requests, blocks, db, locks, nil, util, nil, nil, config.SchedulingConfig{
		BaseRole:       "RBT",
		RequesterRoles: []string{"SLP", "OT", "PT"},
	}, nil, nil)

	// Hold the day's lock so the approval stalls after its first pending
	// check, then deny the request before releasing.
	unlock := locks.Lock("2026-03-02")
	approveErr := make(chan error, 1)
	go func() {
		_, err := svc.Approve(context.Background(), "req-1")
		approveErr <- err
	}()
	<-requests.finds

	_, err := svc.Deny(context.Background(), "req-1")
	require.NoError(t, err)
	unlock()

	err = <-approveErr
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)

	// The denial stands and the schedule was never touched.
	assert.Equal(t, models.InterruptDenied, requests.byID["req-1"].Status)
	assert.Empty(t, blocks.created)
	assert.Empty(t, blocks.updated)
	assert.Empty(t, blocks.deleted)
	assert.Empty(t, util.calls)
}

func TestDenyTwiceFails(t *testing.T) {
	requests := newFakeInterruptRepo(interruptFixture())
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, &fakeSplitRepo{}, db, &fakeRecorder{})

	_, err := svc.Deny(context.Background(), "req-1")
	require.NoError(t, err)

	_, err = svc.Deny(context.Background(), "req-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, models.InterruptDenied, requests.byID["req-1"].Status)
}

func TestCreateRejectsUnknownRequesterRole(t *testing.T) {
	requests := newFakeInterruptRepo()
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, &fakeSplitRepo{}, db, &fakeRecorder{})

	_, err := svc.Create(context.Background(), CreateInterruptRequest{
		PatientID:       "pat-1",
		PrimaryID:       "rbt-1",
		RequesterRole:   "RBT",
		RequesterID:     "rbt-2",
		Date:            "2026-03-02",
		Start:           "10:00",
		DurationMinutes: 30,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateRejectsWindowPastMidnight(t *testing.T) {
	requests := newFakeInterruptRepo()
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, &fakeSplitRepo{}, db, &fakeRecorder{})

	_, err := svc.Create(context.Background(), CreateInterruptRequest{
		PatientID:       "pat-1",
		PrimaryID:       "rbt-1",
		RequesterRole:   "SLP",
		RequesterID:     "slp-1",
		Date:            "2026-03-02",
		Start:           "23:30",
		DurationMinutes: 60,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, requests.byID)
}

func TestApproveRejectsStoredWindowPastMidnight(t *testing.T) {
	req := interruptFixture()
	req.Start = "23:30"
	req.DurationMinutes = 60
	requests := newFakeInterruptRepo(req)
	blocks := &fakeSplitRepo{day: []models.Block{coveringBlock()}}
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, blocks, db, &fakeRecorder{})

	_, err := svc.Approve(context.Background(), "req-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, blocks.created)
	assert.Empty(t, blocks.updated)
	assert.Empty(t, blocks.deleted)
}

func TestCreateStoresPendingRequest(t *testing.T) {
	requests := newFakeInterruptRepo()
	db, _ := newTxDB(t)
	svc := newInterruptService(requests, &fakeSplitRepo{}, db, &fakeRecorder{})

	created, err := svc.Create(context.Background(), CreateInterruptRequest{
		PatientID:       "pat-1",
		PrimaryID:       "rbt-1",
		RequesterRole:   "ot",
		RequesterID:     "ot-1",
		Date:            "2026-03-02",
		Start:           "13:00",
		DurationMinutes: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InterruptPending, created.Status)
	assert.Equal(t, models.RoleOT, created.RequesterRole)
	assert.NotEmpty(t, created.ID)
}
