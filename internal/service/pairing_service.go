package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
)

// PairingStore persists handshake sessions. Implementations live in the
// repository package; the Redis one expires idle sessions via TTL.
type PairingStore interface {
	Save(ctx context.Context, session *models.PairingSession) error
	Find(ctx context.Context, id string) (*models.PairingSession, error)
}

type blockCreator interface {
	Create(ctx context.Context, req CreateBlockRequest) (*models.Block, error)
}

// ArmRequest selects the provider half of the handshake.
type ArmRequest struct {
	Role       string `json:"role" validate:"required"`
	ProviderID string `json:"provider_id" validate:"required"`
}

// CoupleRequest completes the handshake: the armed provider plus this patient
// and window become a regular block proposal.
type CoupleRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
	RoomID    string `json:"room_id"`
}

// PairingService runs the two-step arm/couple handshake used by the tablet
// check-in flow. Sessions are ephemeral; the armed slot survives until a
// coupling commits or the session TTL lapses.
type PairingService struct {
	store    PairingStore
	schedule blockCreator
	hub      *events.Hub
	logger   *zap.Logger
}

// NewPairingService instantiates PairingService.
func NewPairingService(store PairingStore, schedule blockCreator, hub *events.Hub, logger *zap.Logger) *PairingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairingService{store: store, schedule: schedule, hub: hub, logger: logger}
}

// CreateSession opens a fresh unarmed session.
func (s *PairingService) CreateSession(ctx context.Context) (*models.PairingSession, error) {
	session := &models.PairingSession{ID: uuid.New().String()}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pairing session")
	}
	return session, nil
}

// State returns the session's current armed slot, if any.
func (s *PairingService) State(ctx context.Context, sessionID string) (*models.PairingSession, error) {
	return s.load(ctx, sessionID)
}

// Arm stages a provider on the session. Arming twice replaces the slot; the
// last arm wins.
func (s *PairingService) Arm(ctx context.Context, sessionID string, req ArmRequest) (*models.PairingSession, error) {
	if req.Role == "" || req.ProviderID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role and provider_id are required")
	}
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Armed = &models.ArmedSlot{
		Role:       models.ProviderRole(strings.ToUpper(req.Role)),
		ProviderID: req.ProviderID,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to arm pairing session")
	}

	s.publish(session.ID, "armed", session.Armed)
	return session, nil
}

// Couple turns the armed slot plus the request into a block proposal. The
// proposal goes through the same validation as any other block; a rejection
// propagates unchanged and the session stays armed so the tablet can retry.
func (s *PairingService) Couple(ctx context.Context, sessionID string, req CoupleRequest) (*models.Block, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Armed == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "pairing session is not armed")
	}

	block, err := s.schedule.Create(ctx, CreateBlockRequest{
		Date:         req.Date,
		Start:        req.Start,
		End:          req.End,
		ProviderRole: string(session.Armed.Role),
		ProviderID:   session.Armed.ProviderID,
		PatientID:    req.PatientID,
		RoomID:       req.RoomID,
	})
	if err != nil {
		return nil, err
	}

	session.Armed = nil
	if err := s.store.Save(ctx, session); err != nil {
		// The block is already committed; losing the disarm only risks a
		// duplicate proposal, which the conflict detector will reject.
		s.logger.Warn("failed to clear armed slot", zap.Error(err), zap.String("session_id", sessionID))
	}

	s.publish(sessionID, "coupled", block)
	return block, nil
}

func (s *PairingService) load(ctx context.Context, sessionID string) (*models.PairingSession, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pairing session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pairing session")
	}
	return session, nil
}

func (s *PairingService) publish(sessionID, action string, payload interface{}) {
	if s.hub != nil {
		s.hub.Publish(EventPairing, map[string]interface{}{
			"session_id": sessionID,
			"action":     action,
			"data":       payload,
		})
	}
}
