package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type eventService interface {
	Create(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.Event, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error)
	List(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error)
	ListMine(ctx context.Context, query dto.EventListQuery, actor *models.JWTClaims) ([]models.Event, *models.Pagination, error)
	ListPending(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error)
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error)
	Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error)
	Update(ctx context.Context, id string, req dto.UpdateEventRequest, actor *models.JWTClaims) (*models.Event, error)
}

// EventHandler exposes event CRUD and moderation endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List public events
// @Tags Events
// @Produce json
// @Param status query string false "Upcoming, Ongoing or Completed"
// @Param category query string false "Category"
// @Param department query string false "Department"
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var query dto.EventListQuery
	if !bindQuery(c, &query) {
		return
	}
	events, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Mine godoc
// @Summary List events created by the caller
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /events/my [get]
func (h *EventHandler) Mine(c *gin.Context) {
	var query dto.EventListQuery
	if !bindQuery(c, &query) {
		return
	}
	events, pagination, err := h.service.ListMine(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Pending godoc
// @Summary List events awaiting approval
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /events/pending [get]
func (h *EventHandler) Pending(c *gin.Context) {
	var query dto.EventListQuery
	if !bindQuery(c, &query) {
		return
	}
	events, pagination, err := h.service.ListPending(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Description Students submit events for approval; staff events are published immediately
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.Update(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Approve godoc
// @Summary Approve pending event
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{id}/approve [put]
func (h *EventHandler) Approve(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.Approve(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Reject godoc
// @Summary Reject pending event
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{id}/reject [put]
func (h *EventHandler) Reject(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.Reject(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}
