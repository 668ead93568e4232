package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
)

func newPairingFixture(t *testing.T) (*PairingService, *fakeBlockRepo) {
	t.Helper()
	repo := newFakeBlockRepo()
	schedule := newScheduleService(repo, &fakeRecorder{}, &fakeProposalMetrics{})
	return NewPairingService(repository.NewMemoryPairingStore(), schedule, nil, nil), repo
}

func TestPairingHandshake(t *testing.T) {
	svc, repo := newPairingFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Nil(t, session.Armed)

	armed, err := svc.Arm(ctx, session.ID, ArmRequest{Role: "rbt", ProviderID: "rbt-1"})
	require.NoError(t, err)
	require.NotNil(t, armed.Armed)
	assert.Equal(t, models.RoleRBT, armed.Armed.Role)

	block, err := svc.Couple(ctx, session.ID, CoupleRequest{
		PatientID: "pat-1", Date: "2026-03-02", Start: "09:00", End: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "rbt-1", block.ProviderID)
	assert.Len(t, repo.blocks, 1)

	// Coupling disarms the session.
	state, err := svc.State(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, state.Armed)
}

func TestArmLastWins(t *testing.T) {
	svc, _ := newPairingFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.Arm(ctx, session.ID, ArmRequest{Role: "RBT", ProviderID: "rbt-1"})
	require.NoError(t, err)
	armed, err := svc.Arm(ctx, session.ID, ArmRequest{Role: "SLP", ProviderID: "slp-2"})
	require.NoError(t, err)
	assert.Equal(t, "slp-2", armed.Armed.ProviderID)
	assert.Equal(t, models.RoleSLP, armed.Armed.Role)
}

func TestCoupleRequiresArmedSession(t *testing.T) {
	svc, _ := newPairingFixture(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.Couple(ctx, session.ID, CoupleRequest{
		PatientID: "pat-1", Date: "2026-03-02", Start: "09:00", End: "10:00",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestCoupleRejectionKeepsSessionArmed(t *testing.T) {
	svc, repo := newPairingFixture(t)
	ctx := context.Background()

	// Occupy the provider's window so the coupling proposal conflicts.
	repo.blocks["blk-taken"] = models.Block{
		ID: "blk-taken", Date: "2026-03-02", Start: "09:00", End: "10:00",
		Status: models.StatusScheduled, ProviderRole: models.RoleRBT,
		ProviderID: "rbt-1", PatientID: "pat-9",
	}

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Arm(ctx, session.ID, ArmRequest{Role: "RBT", ProviderID: "rbt-1"})
	require.NoError(t, err)

	_, err = svc.Couple(ctx, session.ID, CoupleRequest{
		PatientID: "pat-1", Date: "2026-03-02", Start: "09:30", End: "10:30",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	state, err := svc.State(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, state.Armed)
	assert.Equal(t, "rbt-1", state.Armed.ProviderID)
}

func TestUnknownSession(t *testing.T) {
	svc, _ := newPairingFixture(t)

	_, err := svc.State(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
