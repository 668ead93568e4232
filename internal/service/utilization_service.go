package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/jobs"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

type clinicianDirectory interface {
	FindClinician(ctx context.Context, role models.ProviderRole, id string) (*models.Clinician, error)
	ListClinicians(ctx context.Context, role models.ProviderRole) ([]models.Clinician, error)
}

type providerBlockLister interface {
	ListForProviderInRange(ctx context.Context, role models.ProviderRole, providerID, dateFrom, dateTo string) ([]models.Block, error)
}

type alertMarker interface {
	MarkSent(ctx context.Context, role models.ProviderRole, providerID, period string, threshold int) (bool, error)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) bool
}

// UtilizationService computes booked minutes against authorized-hours caps
// and fires each configured threshold at most once per billing period.
type UtilizationService struct {
	blocks     providerBlockLister
	directory  clinicianDirectory
	alerts     alertMarker
	queue      notificationQueue
	thresholds []int
	logger     *zap.Logger
}

// NewUtilizationService instantiates UtilizationService. Thresholds are
// ascending utilization percentages, e.g. 80, 90, 95.
func NewUtilizationService(blocks providerBlockLister, directory clinicianDirectory, alerts alertMarker, queue notificationQueue, thresholds []int, logger *zap.Logger) *UtilizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]int(nil), thresholds...)
	sort.Ints(sorted)
	return &UtilizationService{
		blocks:     blocks,
		directory:  directory,
		alerts:     alerts,
		queue:      queue,
		thresholds: sorted,
		logger:     logger,
	}
}

// UsedMinutes sums the durations of a provider's non-canceled blocks between
// two dates inclusive.
func (s *UtilizationService) UsedMinutes(ctx context.Context, role models.ProviderRole, providerID, dateFrom, dateTo string) (int, error) {
	blocks, err := s.blocks.ListForProviderInRange(ctx, role, providerID, dateFrom, dateTo)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider blocks")
	}
	total := 0
	for _, b := range blocks {
		if !b.Status.CountsForUtilization() {
			continue
		}
		if d := timeslot.Diff(b.Start, b.End); d > 0 {
			total += d
		}
	}
	return total, nil
}

// Percent converts used hours against a cap; a zero cap reads as 0%.
func Percent(usedHours, authorizedHours float64) float64 {
	if authorizedHours <= 0 {
		return 0
	}
	return usedHours / authorizedHours * 100
}

// UsageForWindow decorates each clinician with booked hours and utilization
// percent over the window, for the directory listing.
func (s *UtilizationService) UsageForWindow(ctx context.Context, role models.ProviderRole, dateFrom, dateTo string) ([]models.ClinicianUsage, error) {
	clinicians, err := s.directory.ListClinicians(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clinicians")
	}

	usages := make([]models.ClinicianUsage, 0, len(clinicians))
	for _, c := range clinicians {
		minutes, err := s.UsedMinutes(ctx, c.Role, c.ID, dateFrom, dateTo)
		if err != nil {
			return nil, err
		}
		usedHours := round2(float64(minutes) / 60)
		usages = append(usages, models.ClinicianUsage{
			Clinician:          c,
			UsedHours:          usedHours,
			UtilizationPercent: round1(Percent(usedHours, c.AuthorizedHours)),
			Window:             models.UtilizationWindow{DateFrom: dateFrom, DateTo: dateTo},
		})
	}
	return usages, nil
}

// Recompute re-derives a provider's utilization for the month containing
// date and emits one-shot threshold alerts. Called after every committed
// mutation touching the provider; failures are logged, never propagated,
// since alerting is a side channel of the mutation.
func (s *UtilizationService) Recompute(ctx context.Context, role models.ProviderRole, providerID, date string) {
	clinician, err := s.directory.FindClinician(ctx, role, providerID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("utilization recompute failed", zap.Error(err))
		}
		return
	}
	if clinician.AuthorizedHours <= 0 {
		return
	}

	dateFrom, dateTo := timeslot.MonthWindow(date)
	minutes, err := s.UsedMinutes(ctx, role, providerID, dateFrom, dateTo)
	if err != nil {
		s.logger.Warn("utilization recompute failed", zap.Error(err))
		return
	}
	pct := Percent(float64(minutes)/60, clinician.AuthorizedHours)
	period := timeslot.PeriodKey(date)

	for _, threshold := range s.thresholds {
		if pct < float64(threshold) {
			break
		}
		fresh, err := s.alerts.MarkSent(ctx, role, providerID, period, threshold)
		if err != nil {
			s.logger.Warn("failed to record utilization alert marker", zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}
		s.dispatchAlert(clinician, pct, threshold, period)
	}
}

func (s *UtilizationService) dispatchAlert(clinician *models.Clinician, pct float64, threshold int, period string) {
	text := fmt.Sprintf("Utilization alert: %s %s is at %d%% of authorized hours for %s (threshold %d%%).",
		clinician.Role, clinician.Name, int(math.Round(pct)), period, threshold)
	if s.queue != nil {
		s.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("util-%s-%s-%s-%d", clinician.Role, clinician.ID, period, threshold),
			Type:    "utilization_alert",
			Payload: text,
		})
	}
	s.logger.Info("utilization threshold crossed",
		zap.String("role", string(clinician.Role)),
		zap.String("provider_id", clinician.ID),
		zap.Int("threshold", threshold),
		zap.Float64("percent", pct))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
