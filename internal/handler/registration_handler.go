package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.Registration, error)
	Unregister(ctx context.Context, eventID string, actor *models.JWTClaims) error
	Status(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.RegistrationStatus, error)
	Mine(ctx context.Context, actor *models.JWTClaims) ([]models.RegistrationWithEvent, error)
	EventRegistrations(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.EventRegistrant, error)
}

// RegistrationHandler exposes sign up endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register for event
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	reg, err := h.service.Register(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.RegistrationResponse{Message: "Successfully registered for event", Registration: *reg})
}

// Unregister godoc
// @Summary Cancel registration
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/unregister [delete]
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Unregister(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Successfully unregistered from event"}, nil)
}

// Status godoc
// @Summary Registration status for the caller
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/registration-status [get]
func (h *RegistrationHandler) Status(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Mine godoc
// @Summary List the caller's registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /registrations/my [get]
func (h *RegistrationHandler) Mine(c *gin.Context) {
	rows, err := h.service.Mine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// EventRegistrations godoc
// @Summary List registrants of an event
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/registrations [get]
func (h *RegistrationHandler) EventRegistrations(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	rows, err := h.service.EventRegistrations(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
