package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, eventID string, req models.MarkAttendanceRequest, actor *models.JWTClaims) (*models.MarkAttendanceResult, error)
	Roster(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.AttendanceRosterEntry, error)
	Mine(ctx context.Context, actor *models.JWTClaims) ([]models.MyAttendanceEntry, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance
// @Description Unregistered students in the batch are skipped
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body models.MarkAttendanceRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.Mark(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Roster godoc
// @Summary Attendance roster
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/attendance [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	rows, err := h.service.Roster(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Mine godoc
// @Summary The caller's attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /my-attendance [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	rows, err := h.service.Mine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
