package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type reportService interface {
	Participation(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipationRow, bool, error)
	Attendance(ctx context.Context, actor *models.JWTClaims) ([]models.AttendanceRow, bool, error)
	Department(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentRow, bool, error)
}

type exportService interface {
	Export(ctx context.Context, reportType, format string, actor *models.JWTClaims) (*models.ExportFile, error)
}

// ReportHandler serves aggregate summaries and their downloads.
type ReportHandler struct {
	reports reportService
	exports exportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reports reportService, exports exportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// EventSummary godoc
// @Summary Registrations per event
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/event-summary [get]
func (h *ReportHandler) EventSummary(c *gin.Context) {
	rows, hit, err := h.reports.Participation(c.Request.Context(), claimsFromContext(c))
	respondSummary(c, rows, hit, err)
}

// AttendanceSummary godoc
// @Summary Attendance rate per event
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/attendance-summary [get]
func (h *ReportHandler) AttendanceSummary(c *gin.Context) {
	rows, hit, err := h.reports.Attendance(c.Request.Context(), claimsFromContext(c))
	respondSummary(c, rows, hit, err)
}

// DepartmentSummary godoc
// @Summary Registrations per student department
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/department-summary [get]
func (h *ReportHandler) DepartmentSummary(c *gin.Context) {
	rows, hit, err := h.reports.Department(c.Request.Context(), claimsFromContext(c))
	respondSummary(c, rows, hit, err)
}

// Export godoc
// @Summary Export a report
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param type query string true "participation, attendance or department"
// @Param format query string true "pdf, excel or csv"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var query dto.ReportExportQuery
	if !bindQuery(c, &query) {
		return
	}
	file, err := h.exports.Export(c.Request.Context(), query.Type, query.Format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Title, file.Extension, file.Payload)
}

func respondSummary(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
