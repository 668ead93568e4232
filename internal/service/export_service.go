package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/export"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type dayLister interface {
	ListByDate(ctx context.Context, date string) ([]models.Block, error)
}

// ExportFile is a rendered day schedule ready to stream.
type ExportFile struct {
	Bytes       []byte
	ContentType string
	Filename    string
}

// ExportService renders a day's schedule as CSV or PDF for front-desk
// printouts.
type ExportService struct {
	blocks dayLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(blocks dayLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{blocks: blocks, csv: csv, pdf: pdf, logger: logger}
}

var dayScheduleHeaders = []string{"Start", "End", "Status", "Role", "Provider", "Patient", "Room"}

// DaySchedule renders every block for the date, ordered by start time.
// Format is "csv" or "pdf".
func (s *ExportService) DaySchedule(ctx context.Context, date, format string) (*ExportFile, error) {
	if !timeslot.ValidDate(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	blocks, err := s.blocks.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day blocks")
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Start != blocks[j].Start {
			return blocks[i].Start < blocks[j].Start
		}
		return blocks[i].ProviderID < blocks[j].ProviderID
	})

	dataset := export.Dataset{Headers: dayScheduleHeaders}
	for _, b := range blocks {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Start":    b.Start,
			"End":      b.End,
			"Status":   string(b.Status),
			"Role":     string(b.ProviderRole),
			"Provider": b.ProviderID,
			"Patient":  b.PatientID,
			"Room":     b.RoomID,
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Bytes:       data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedule-%s.csv", date),
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule %s", date))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Bytes:       data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedule-%s.pdf", date),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
