package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	appErrors "github.com/brightsteps/clinic-scheduling-api/pkg/errors"
	"github.com/brightsteps/clinic-scheduling-api/pkg/response"
)

// PairingHandler manages the arm/couple handshake endpoints.
type PairingHandler struct {
	service *service.PairingService
}

// NewPairingHandler constructs handler.
func NewPairingHandler(svc *service.PairingService) *PairingHandler {
	return &PairingHandler{service: svc}
}

// CreateSession godoc
// @Summary Open a pairing session
// @Tags Pairing
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /pairing/session [post]
func (h *PairingHandler) CreateSession(c *gin.Context) {
	session, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// State godoc
// @Summary Read a pairing session's armed slot
// @Tags Pairing
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /pairing/{id}/state [get]
func (h *PairingHandler) State(c *gin.Context) {
	session, err := h.service.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Arm godoc
// @Summary Stage a provider on the session
// @Tags Pairing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.ArmRequest true "Provider"
// @Success 200 {object} response.Envelope
// @Router /pairing/{id}/arm [post]
func (h *PairingHandler) Arm(c *gin.Context) {
	var req service.ArmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.Arm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Couple godoc
// @Summary Couple the armed provider with a patient into a block
// @Tags Pairing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.CoupleRequest true "Patient and window"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /pairing/{id}/couple [post]
func (h *PairingHandler) Couple(c *gin.Context) {
	var req service.CoupleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Couple(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}
