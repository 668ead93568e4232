package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/response"
)

// InterruptHandler manages interrupt-request endpoints.
type InterruptHandler struct {
	service *service.InterruptService
}

// NewInterruptHandler constructs handler.
func NewInterruptHandler(svc *service.InterruptService) *InterruptHandler {
	return &InterruptHandler{service: svc}
}

// List godoc
// @Summary List interrupt requests
// @Tags Interrupts
// @Produce json
// @Param primaryId query string false "Filter by primary provider"
// @Param date query string false "Filter by date"
// @Param status query string false "pending, applied, or denied"
// @Success 200 {object} response.Envelope
// @Router /interrupts [get]
func (h *InterruptHandler) List(c *gin.Context) {
	filter := models.InterruptFilter{
		PrimaryID: c.Query("primaryId"),
		Date:      c.Query("date"),
		Status:    models.InterruptStatus(c.Query("status")),
	}
	requests, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Create godoc
// @Summary Submit an interrupt request
// @Tags Interrupts
// @Accept json
// @Produce json
// @Param payload body service.CreateInterruptRequest true "Request"
// @Success 201 {object} response.Envelope
// @Router /interrupts [post]
func (h *InterruptHandler) Create(c *gin.Context) {
	var req service.CreateInterruptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Approve godoc
// @Summary Approve an interrupt request and split the covering block
// @Tags Interrupts
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /interrupts/{id}/approve [post]
func (h *InterruptHandler) Approve(c *gin.Context) {
	request, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Deny godoc
// @Summary Deny an interrupt request
// @Tags Interrupts
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /interrupts/{id}/deny [post]
func (h *InterruptHandler) Deny(c *gin.Context) {
	request, err := h.service.Deny(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
