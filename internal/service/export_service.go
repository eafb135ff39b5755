package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/export"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type reportSource interface {
	Participation(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipationRow, bool, error)
	Attendance(ctx context.Context, actor *models.JWTClaims) ([]models.AttendanceRow, bool, error)
	Department(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentRow, bool, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportServiceParams groups ExportService dependencies. Nil renderers use the defaults.
type ExportServiceParams struct {
	Reports reportSource
	CSV     tableRenderer
	XLSX    tableRenderer
	PDF     pdfRenderer
	Metrics *MetricsService
	Logger  *zap.Logger
}

// ExportService renders report summaries as downloadable files.
type ExportService struct {
	reports reportSource
	csv     tableRenderer
	xlsx    tableRenderer
	pdf     pdfRenderer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.CSV == nil {
		params.CSV = export.NewCSVExporter()
	}
	if params.XLSX == nil {
		params.XLSX = export.NewXLSXExporter()
	}
	if params.PDF == nil {
		params.PDF = export.NewPDFExporter()
	}
	return &ExportService{
		reports: params.Reports,
		csv:     params.CSV,
		xlsx:    params.XLSX,
		pdf:     params.PDF,
		metrics: params.Metrics,
		logger:  params.Logger,
	}
}

// Export renders the requested report. The report type is checked before the format.
func (s *ExportService) Export(ctx context.Context, reportType, format string, actor *models.JWTClaims) (*models.ExportFile, error) {
	kind := models.ReportType(reportType)
	switch kind {
	case models.ReportTypeParticipation, models.ReportTypeAttendance, models.ReportTypeDepartment:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid report type")
	}
	encoding := models.ExportFormat(format)
	switch encoding {
	case models.ExportFormatPDF, models.ExportFormatExcel, models.ExportFormatCSV:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid export format")
	}

	title, data, err := s.dataset(ctx, kind, actor)
	if err != nil {
		return nil, err
	}

	file := &models.ExportFile{Title: title}
	switch encoding {
	case models.ExportFormatPDF:
		file.Extension, file.ContentType = "pdf", "application/pdf"
		file.Payload, err = s.pdf.Render(data, title)
	case models.ExportFormatExcel:
		file.Extension, file.ContentType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Payload, err = s.xlsx.Render(data)
	case models.ExportFormatCSV:
		file.Extension, file.ContentType = "csv", "text/csv"
		file.Payload, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.metrics.RecordExport(string(kind), string(encoding))
	s.logger.Debug("report exported", zap.String("type", string(kind)), zap.String("format", string(encoding)), zap.Int("bytes", len(file.Payload)))
	return file, nil
}

func (s *ExportService) dataset(ctx context.Context, kind models.ReportType, actor *models.JWTClaims) (string, export.Dataset, error) {
	switch kind {
	case models.ReportTypeParticipation:
		rows, _, err := s.reports.Participation(ctx, actor)
		if err != nil {
			return "", export.Dataset{}, err
		}
		data := export.Dataset{Headers: []string{"Event Name", "Registrations"}}
		for _, r := range rows {
			data.Rows = append(data.Rows, map[string]string{"Event Name": r.Label, "Registrations": strconv.Itoa(r.Value)})
		}
		return "Event Participation Report", data, nil
	case models.ReportTypeAttendance:
		rows, _, err := s.reports.Attendance(ctx, actor)
		if err != nil {
			return "", export.Dataset{}, err
		}
		data := export.Dataset{Headers: []string{"Event Name", "Registered", "Present", "Percentage (%)"}}
		for _, r := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"Event Name":     r.Label,
				"Registered":     strconv.Itoa(r.Registered),
				"Present":        strconv.Itoa(r.Present),
				"Percentage (%)": strconv.Itoa(r.Percentage) + "%",
			})
		}
		return "Event Attendance Report", data, nil
	default:
		rows, _, err := s.reports.Department(ctx, actor)
		if err != nil {
			return "", export.Dataset{}, err
		}
		data := export.Dataset{Headers: []string{"Department", "Students"}}
		for _, r := range rows {
			data.Rows = append(data.Rows, map[string]string{"Department": r.Label, "Students": strconv.Itoa(r.Value)})
		}
		return "Department Participation Report", data, nil
	}
}
