package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/response"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

// ScheduleHandler manages schedule block endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
	export  *service.ExportService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService, export *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, export: export}
}

// ListByDate godoc
// @Summary List blocks for a date
// @Tags Schedule
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) ListByDate(c *gin.Context) {
	date := c.DefaultQuery("date", timeslot.Today())
	blocks, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil, map[string]interface{}{"date": date})
}

// Create godoc
// @Summary Propose a new block
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.CreateBlockRequest true "Block"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/blocks [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Update godoc
// @Summary Move, resize, or restatus a block
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body service.UpdateBlockRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/blocks/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Cancel godoc
// @Summary Cancel a block
// @Tags Schedule
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/blocks/{id} [delete]
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	block, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Export godoc
// @Summary Export a day's schedule
// @Tags Schedule
// @Produce text/csv
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	date := c.DefaultQuery("date", timeslot.Today())
	file, err := h.export.DaySchedule(c.Request.Context(), date, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Bytes)
}
