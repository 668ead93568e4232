package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/response"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

// DirectoryHandler serves the read-only patient and clinician directory.
type DirectoryHandler struct {
	directory   *repository.DirectoryRepository
	utilization *service.UtilizationService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *repository.DirectoryRepository, utilization *service.UtilizationService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, utilization: utilization}
}

// ListPatients godoc
// @Summary List patients
// @Tags Directory
// @Produce json
// @Param search query string false "Name substring filter"
// @Success 200 {object} response.Envelope
// @Router /patients [get]
func (h *DirectoryHandler) ListPatients(c *gin.Context) {
	patients, err := h.directory.ListPatients(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list patients"))
		return
	}
	response.JSON(c, http.StatusOK, patients, nil)
}

// ListClinicians godoc
// @Summary List clinicians with booked-hours usage
// @Tags Directory
// @Produce json
// @Param role query string false "Filter by role"
// @Param dateFrom query string false "Usage window start, defaults to the current month"
// @Param dateTo query string false "Usage window end"
// @Success 200 {object} response.Envelope
// @Router /clinicians [get]
func (h *DirectoryHandler) ListClinicians(c *gin.Context) {
	role := models.ProviderRole(strings.ToUpper(c.Query("role")))
	dateFrom := c.Query("dateFrom")
	dateTo := c.Query("dateTo")
	if dateFrom == "" || dateTo == "" {
		dateFrom, dateTo = timeslot.MonthWindow(timeslot.Today())
	}
	if !timeslot.ValidDate(dateFrom) || !timeslot.ValidDate(dateTo) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dates must be YYYY-MM-DD"))
		return
	}

	usages, err := h.utilization.UsageForWindow(c.Request.Context(), role, dateFrom, dateTo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usages, nil)
}
