package dto

import "github.com/noah-isme/campus-events-api/internal/models"

// CreateEventRequest is the POST /events payload.
type CreateEventRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Category        string `json:"category" validate:"max=100"`
	Department      string `json:"department" validate:"max=100"`
	Venue           string `json:"venue" validate:"max=200"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime         string `json:"endTime" validate:"omitempty,datetime=15:04"`
	MaxParticipants *int   `json:"maxParticipants" validate:"omitempty,min=1"`
}

// UpdateEventRequest carries the editable event fields. Nil fields are left unchanged.
type UpdateEventRequest struct {
	Title           *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string             `json:"description" validate:"omitempty,max=5000"`
	Category        *string             `json:"category" validate:"omitempty,max=100"`
	Department      *string             `json:"department" validate:"omitempty,max=100"`
	Venue           *string             `json:"venue" validate:"omitempty,max=200"`
	Date            *string             `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string             `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime         *string             `json:"endTime" validate:"omitempty,datetime=15:04"`
	MaxParticipants *int                `json:"maxParticipants" validate:"omitempty,min=1"`
	Status          *models.EventStatus `json:"status"`
}

// EventListQuery captures listing query parameters.
type EventListQuery struct {
	Status     string `form:"status"`
	Category   string `form:"category"`
	Department string `form:"department"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// RegistrationResponse is returned after a successful sign up.
type RegistrationResponse struct {
	Message      string              `json:"message"`
	Registration models.Registration `json:"registration"`
}

// ReportExportQuery captures GET /reports/export parameters.
type ReportExportQuery struct {
	Type   string `form:"type"`
	Format string `form:"format"`
}
