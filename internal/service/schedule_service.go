package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

// Event types published on the hub.
const (
	EventSchedule  = "schedule"
	EventInterrupt = "interrupt"
	EventPairing   = "pairing"
)

type blockRepository interface {
	ListByDate(ctx context.Context, date string) ([]models.Block, error)
	List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error)
	ListForProviderInRange(ctx context.Context, role models.ProviderRole, providerID, dateFrom, dateTo string) ([]models.Block, error)
	FindByID(ctx context.Context, id string) (*models.Block, error)
	Create(ctx context.Context, block *models.Block) error
	Update(ctx context.Context, block *models.Block) error
}

type utilizationRecorder interface {
	Recompute(ctx context.Context, role models.ProviderRole, providerID, date string)
}

type proposalMetrics interface {
	RecordProposal(outcome string)
}

// CreateBlockRequest describes payload for creating a schedule block.
type CreateBlockRequest struct {
	Date         string `json:"date" validate:"required"`
	Start        string `json:"start" validate:"required"`
	End          string `json:"end" validate:"required"`
	ProviderRole string `json:"provider_role" validate:"required"`
	ProviderID   string `json:"provider_id" validate:"required"`
	PatientID    string `json:"patient_id" validate:"required"`
	RoomID       string `json:"room_id"`
	Status       string `json:"status"`
}

// UpdateBlockRequest carries a partial field merge for an existing block.
// Nil fields keep their current value.
type UpdateBlockRequest struct {
	Date         *string `json:"date"`
	Start        *string `json:"start"`
	End          *string `json:"end"`
	ProviderRole *string `json:"provider_role"`
	ProviderID   *string `json:"provider_id"`
	PatientID    *string `json:"patient_id"`
	RoomID       *string `json:"room_id"`
	Status       *string `json:"status"`
}

// ScheduleService owns the block set. Every mutation is serialized per date,
// validated against the conflict detector and co-presence validator, and
// committed atomically: either the full candidate lands or nothing changes.
type ScheduleService struct {
	repo      blockRepository
	locks     *DateLocks
	hub       *events.Hub
	util      utilizationRecorder
	metrics   proposalMetrics
	validator *validator.Validate
	logger    *zap.Logger

	minSlotMinutes int
	buffers        models.ConflictBuffers
	rules          []models.CoPresenceRule
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo blockRepository, locks *DateLocks, hub *events.Hub, util utilizationRecorder, metrics proposalMetrics, cfg config.SchedulingConfig, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewDateLocks()
	}
	minSlot := cfg.MinSlotMinutes
	if minSlot <= 0 {
		minSlot = 15
	}
	return &ScheduleService{
		repo:           repo,
		locks:          locks,
		hub:            hub,
		util:           util,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
		minSlotMinutes: minSlot,
		buffers: models.ConflictBuffers{
			Provider: cfg.ProviderBufferMinutes,
			Patient:  cfg.PatientBufferMinutes,
			Room:     cfg.RoomBufferMinutes,
		},
		rules: coPresenceRules(cfg.CoPresenceRules),
	}
}

func coPresenceRules(raw []config.CoPresenceRuleConfig) []models.CoPresenceRule {
	rules := make([]models.CoPresenceRule, 0, len(raw))
	for _, r := range raw {
		rules = append(rules, models.CoPresenceRule{
			RequiredRole: models.ProviderRole(r.RequiredRole),
			PartnerRole:  models.ProviderRole(r.PartnerRole),
			MinMinutes:   r.MinMinutes,
		})
	}
	return rules
}

// ListByDate returns every block for a date, history included.
func (s *ScheduleService) ListByDate(ctx context.Context, date string) ([]models.Block, error) {
	if !timeslot.ValidDate(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	blocks, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	return blocks, nil
}

// Create validates and commits a new block.
func (s *ScheduleService) Create(ctx context.Context, req CreateBlockRequest) (*models.Block, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}

	status := models.BlockStatus(strings.ToLower(req.Status))
	if req.Status == "" {
		status = models.StatusScheduled
	}

	candidate := models.Block{
		Date:         req.Date,
		Start:        req.Start,
		End:          req.End,
		Status:       status,
		ProviderRole: models.ProviderRole(strings.ToUpper(req.ProviderRole)),
		ProviderID:   req.ProviderID,
		PatientID:    req.PatientID,
		RoomID:       req.RoomID,
	}
	if err := s.validateShape(candidate); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(candidate.Date)
	defer unlock()

	if err := s.ensureAccepted(ctx, candidate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create block")
	}

	s.committed(ctx, candidate.ProviderRole, candidate.ProviderID, candidate.Date)
	return &candidate, nil
}

// Update merges the requested fields onto the existing block, re-validates
// the full candidate excluding its own prior version, and commits.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateBlockRequest) (*models.Block, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	if existing.Status == models.StatusCanceled || existing.Status == models.StatusNoShow {
		return nil, appErrors.Clone(appErrors.ErrValidation, "block is terminal; create a new block instead")
	}

	candidate := mergeBlock(*existing, req)
	if err := s.validateShape(candidate); err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(candidate.Date, existing.Date)
	defer unlock()

	if err := s.ensureAccepted(ctx, candidate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update block")
	}

	s.committed(ctx, candidate.ProviderRole, candidate.ProviderID, candidate.Date)
	if existing.ProviderID != candidate.ProviderID || existing.ProviderRole != candidate.ProviderRole {
		s.committed(ctx, existing.ProviderRole, existing.ProviderID, existing.Date)
	} else if existing.Date != candidate.Date {
		s.publishSchedule(existing.Date)
	}
	return &candidate, nil
}

// Cancel marks a block canceled. The block stays queryable for history but
// stops participating in conflict checks and utilization.
func (s *ScheduleService) Cancel(ctx context.Context, id string) (*models.Block, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}

	unlock := s.locks.Lock(existing.Date)
	defer unlock()

	existing.Status = models.StatusCanceled
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel block")
	}

	s.committed(ctx, existing.ProviderRole, existing.ProviderID, existing.Date)
	return existing, nil
}

// validateShape enforces field well-formedness and the minimum slot length.
// These are validation errors, a distinct class from overlap conflicts.
func (s *ScheduleService) validateShape(candidate models.Block) error {
	if !timeslot.ValidDate(candidate.Date) {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	start, err := timeslot.Parse(candidate.Start)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := timeslot.Parse(candidate.End)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if end-start < s.minSlotMinutes {
		return appErrors.Clone(appErrors.ErrValidation, "block shorter than the minimum slot length")
	}
	switch candidate.Status {
	case models.StatusScheduled, models.StatusInSession, models.StatusCanceled,
		models.StatusNoShow, models.StatusNap, models.StatusSpeech:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown block status")
	}
	switch candidate.ProviderRole {
	case models.RoleRBT, models.RoleBCBA, models.RoleSLP, models.RoleOT, models.RolePT:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown provider role")
	}
	return nil
}

// ensureAccepted runs the conflict detector and co-presence validator against
// the candidate's day. Must be called with the date lock held.
func (s *ScheduleService) ensureAccepted(ctx context.Context, candidate models.Block) error {
	sameDay, err := s.repo.ListByDate(ctx, candidate.Date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day blocks")
	}

	conflicts := DetectConflicts(candidate, sameDay, s.buffers)
	violations := CheckCoPresence(candidate, sameDay, s.rules)
	if len(conflicts) == 0 && len(violations) == 0 {
		return nil
	}

	s.recordProposal("rejected")
	rejection := models.ProposalRejection{Conflicts: conflicts, CoPresence: violations}
	return appErrors.WithDetails(appErrors.ErrConflict, "block proposal rejected", rejection)
}

func (s *ScheduleService) committed(ctx context.Context, role models.ProviderRole, providerID, date string) {
	s.recordProposal("accepted")
	if s.util != nil {
		s.util.Recompute(ctx, role, providerID, date)
	}
	s.publishSchedule(date)
}

func (s *ScheduleService) publishSchedule(date string) {
	if s.hub != nil {
		s.hub.Publish(EventSchedule, map[string]string{"date": date})
	}
}

func (s *ScheduleService) recordProposal(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordProposal(outcome)
	}
}

func mergeBlock(existing models.Block, req UpdateBlockRequest) models.Block {
	candidate := existing
	if req.Date != nil {
		candidate.Date = *req.Date
	}
	if req.Start != nil {
		candidate.Start = *req.Start
	}
	if req.End != nil {
		candidate.End = *req.End
	}
	if req.ProviderRole != nil {
		candidate.ProviderRole = models.ProviderRole(strings.ToUpper(*req.ProviderRole))
	}
	if req.ProviderID != nil {
		candidate.ProviderID = *req.ProviderID
	}
	if req.PatientID != nil {
		candidate.PatientID = *req.PatientID
	}
	if req.RoomID != nil {
		candidate.RoomID = *req.RoomID
	}
	if req.Status != nil {
		candidate.Status = models.BlockStatus(strings.ToLower(*req.Status))
	}
	return candidate
}
