package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
	"github.com/brightsteps/clinic-scheduling-api/pkg/jobs"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

type interruptRepository interface {
	List(ctx context.Context, filter models.InterruptFilter) ([]models.InterruptRequest, error)
	FindByID(ctx context.Context, id string) (*models.InterruptRequest, error)
	Create(ctx context.Context, request *models.InterruptRequest) error
	UpdateStatus(ctx context.Context, id string, status models.InterruptStatus) error
	UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.InterruptStatus) error
}

type splitBlockRepository interface {
	ListByDate(ctx context.Context, date string) ([]models.Block, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, block *models.Block) error
	UpdateWithTx(ctx context.Context, tx *sqlx.Tx, block *models.Block) error
	DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type directoryNames interface {
	FindClinician(ctx context.Context, role models.ProviderRole, id string) (*models.Clinician, error)
	FindPatient(ctx context.Context, id string) (*models.Patient, error)
}

// CreateInterruptRequest describes payload for submitting an interrupt.
type CreateInterruptRequest struct {
	PatientID       string `json:"patient_id" validate:"required"`
	PrimaryID       string `json:"primary_provider_id" validate:"required"`
	RequesterRole   string `json:"requester_role" validate:"required"`
	RequesterID     string `json:"requester_id" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Start           string `json:"start" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=1"`
}

// InterruptService runs the borrow-a-slice workflow: a therapist asks for
// part of a base-role block's time; the owner approves or denies. Approval
// splits the covering block atomically under the day's schedule lock.
type InterruptService struct {
	requests  interruptRepository
	blocks    splitBlockRepository
	tx        txProvider
	locks     *DateLocks
	hub       *events.Hub
	util      utilizationRecorder
	directory directoryNames
	queue     notificationQueue
	validator *validator.Validate
	logger    *zap.Logger

	baseRole       models.ProviderRole
	requesterRoles map[models.ProviderRole]struct{}
}

// NewInterruptService instantiates InterruptService.
func NewInterruptService(requests interruptRepository, blocks splitBlockRepository, tx txProvider, locks *DateLocks, hub *events.Hub, util utilizationRecorder, directory directoryNames, queue notificationQueue, cfg config.SchedulingConfig, validate *validator.Validate, logger *zap.Logger) *InterruptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewDateLocks()
	}
	baseRole := models.ProviderRole(cfg.BaseRole)
	if baseRole == "" {
		baseRole = models.RoleRBT
	}
	allowed := make(map[models.ProviderRole]struct{}, len(cfg.RequesterRoles))
	for _, role := range cfg.RequesterRoles {
		allowed[models.ProviderRole(role)] = struct{}{}
	}
	if len(allowed) == 0 {
		allowed = map[models.ProviderRole]struct{}{models.RoleSLP: {}, models.RoleOT: {}, models.RolePT: {}}
	}
	return &InterruptService{
		requests:       requests,
		blocks:         blocks,
		tx:             tx,
		locks:          locks,
		hub:            hub,
		util:           util,
		directory:      directory,
		queue:          queue,
		validator:      validate,
		logger:         logger,
		baseRole:       baseRole,
		requesterRoles: allowed,
	}
}

// List returns interrupt requests, newest first.
func (s *InterruptService) List(ctx context.Context, filter models.InterruptFilter) ([]models.InterruptRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interrupt requests")
	}
	return requests, nil
}

// Create submits a pending request. Coverage is checked at approval time,
// not here; duplicate pending requests for the same window are allowed and
// resolved independently.
func (s *InterruptService) Create(ctx context.Context, req CreateInterruptRequest) (*models.InterruptRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interrupt payload")
	}
	role := models.ProviderRole(strings.ToUpper(req.RequesterRole))
	if _, ok := s.requesterRoles[role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester role cannot interrupt")
	}
	if !timeslot.ValidDate(req.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	start, err := timeslot.Parse(req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	if start+req.DurationMinutes > 24*60 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested window runs past midnight")
	}

	request := &models.InterruptRequest{
		PatientID:       req.PatientID,
		PrimaryID:       req.PrimaryID,
		RequesterRole:   role,
		RequesterID:     req.RequesterID,
		Date:            req.Date,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Status:          models.InterruptPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create interrupt request")
	}

	s.publishInterrupt("created", request)
	s.notify(fmt.Sprintf("Request: %s %s asks for %dm with %s at %s on %s.",
		role, s.clinicianName(ctx, role, request.RequesterID), request.DurationMinutes,
		s.patientName(ctx, request.PatientID), request.Start, request.Date))
	return request, nil
}

// Approve applies a pending request: under the day's lock it locates the one
// base-role block fully covering the requested window, splits it, writes the
// requester's block plus any trailing remainder, and marks the request
// applied — all in one transaction. With no covering block the request stays
// pending and the caller gets a precondition failure.
func (s *InterruptService) Approve(ctx context.Context, id string) (*models.InterruptRequest, error) {
	request, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cross-midnight windows are rejected at creation; a stored row that
	// still crosses cannot be covered by a same-day block.
	requestedEnd := timeslot.Add(request.Start, request.DurationMinutes)
	if _, err := timeslot.Parse(requestedEnd); err != nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "requested window runs past midnight")
	}

	unlock := s.locks.Lock(request.Date)
	defer unlock()

	// Re-check under the lock: a deny may have landed while we waited.
	request, err = s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	sameDay, err := s.blocks.ListByDate(ctx, request.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day blocks")
	}

	covering := s.findCovering(sameDay, request, requestedEnd)
	if covering == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no covering block for requested window")
	}

	if err := s.applySplit(ctx, request, covering, requestedEnd); err != nil {
		return nil, err
	}
	request.Status = models.InterruptApplied

	if s.util != nil {
		s.util.Recompute(ctx, s.baseRole, request.PrimaryID, request.Date)
		s.util.Recompute(ctx, request.RequesterRole, request.RequesterID, request.Date)
	}
	s.publishInterrupt("approved", request)
	s.publishSchedule(request.Date)
	s.notify(fmt.Sprintf("Approved: %s session for %s at %s (%dm); %s coverage resumes afterwards.",
		request.RequesterRole, s.patientName(ctx, request.PatientID), request.Start,
		request.DurationMinutes, s.baseRole))
	return request, nil
}

// Deny resolves a pending request without touching the schedule.
func (s *InterruptService) Deny(ctx context.Context, id string) (*models.InterruptRequest, error) {
	request, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requests.UpdateStatus(ctx, id, models.InterruptDenied); err != nil {
		if errors.Is(err, repository.ErrAlreadyResolved) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "interrupt request is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deny interrupt request")
	}
	request.Status = models.InterruptDenied

	s.publishInterrupt("denied", request)
	s.notify(fmt.Sprintf("Denied: %s request for %s at %s.",
		request.RequesterRole, s.patientName(ctx, request.PatientID), request.Start))
	return request, nil
}

func (s *InterruptService) loadPending(ctx context.Context, id string) (*models.InterruptRequest, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "interrupt request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interrupt request")
	}
	if request.Status != models.InterruptPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "interrupt request is not pending")
	}
	return request, nil
}

func (s *InterruptService) findCovering(sameDay []models.Block, request *models.InterruptRequest, requestedEnd string) *models.Block {
	reqStart := timeslot.MustParse(request.Start)
	reqEnd := timeslot.MustParse(requestedEnd)
	for i := range sameDay {
		b := &sameDay[i]
		if b.Status == models.StatusCanceled {
			continue
		}
		if b.ProviderRole != s.baseRole || b.ProviderID != request.PrimaryID || b.PatientID != request.PatientID {
			continue
		}
		if timeslot.MustParse(b.Start) <= reqStart && timeslot.MustParse(b.End) >= reqEnd {
			return b
		}
	}
	return nil
}

func (s *InterruptService) applySplit(ctx context.Context, request *models.InterruptRequest, covering *models.Block, requestedEnd string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin approval transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	originalEnd := covering.End

	if timeslot.MustParse(request.Start) > timeslot.MustParse(covering.Start) {
		// Keep the leading remainder.
		before := *covering
		before.End = request.Start
		if err = s.blocks.UpdateWithTx(ctx, tx, &before); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to shrink covering block")
		}
	} else {
		if err = s.blocks.DeleteWithTx(ctx, tx, covering.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove covering block")
		}
	}

	requesterStatus := models.StatusScheduled
	if request.RequesterRole == models.RoleSLP {
		requesterStatus = models.StatusSpeech
	}
	requesterBlock := &models.Block{
		Date:         request.Date,
		Start:        request.Start,
		End:          requestedEnd,
		Status:       requesterStatus,
		ProviderRole: request.RequesterRole,
		ProviderID:   request.RequesterID,
		PatientID:    request.PatientID,
	}
	if err = s.blocks.CreateWithTx(ctx, tx, requesterBlock); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create requester block")
	}

	if timeslot.MustParse(originalEnd) > timeslot.MustParse(requestedEnd) {
		after := &models.Block{
			Date:         request.Date,
			Start:        requestedEnd,
			End:          originalEnd,
			Status:       models.StatusScheduled,
			ProviderRole: s.baseRole,
			ProviderID:   request.PrimaryID,
			PatientID:    request.PatientID,
			RoomID:       covering.RoomID,
		}
		if err = s.blocks.CreateWithTx(ctx, tx, after); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trailing block")
		}
	}

	if err = s.requests.UpdateStatusWithTx(ctx, tx, request.ID, models.InterruptApplied); err != nil {
		if errors.Is(err, repository.ErrAlreadyResolved) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "interrupt request is not pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark request applied")
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit approval")
	}
	return nil
}

func (s *InterruptService) publishInterrupt(action string, request *models.InterruptRequest) {
	if s.hub != nil {
		s.hub.Publish(EventInterrupt, map[string]interface{}{"action": action, "request": request})
	}
}

func (s *InterruptService) publishSchedule(date string) {
	if s.hub != nil {
		s.hub.Publish(EventSchedule, map[string]string{"date": date})
	}
}

func (s *InterruptService) notify(text string) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue(jobs.Job{Type: "interrupt_notice", Payload: text})
}

func (s *InterruptService) clinicianName(ctx context.Context, role models.ProviderRole, id string) string {
	if s.directory == nil {
		return id
	}
	clinician, err := s.directory.FindClinician(ctx, role, id)
	if err != nil {
		return id
	}
	return clinician.Name
}

func (s *InterruptService) patientName(ctx context.Context, id string) string {
	if s.directory == nil {
		return id
	}
	patient, err := s.directory.FindPatient(ctx, id)
	if err != nil {
		return id
	}
	return patient.Name
}
