package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func attendanceDataset() Dataset {
	return Dataset{
		Headers: []string{"Event Name", "Registered", "Present", "Percentage (%)"},
		Rows: []map[string]string{
			{"Event Name": "Hackathon", "Registered": "4", "Present": "2", "Percentage (%)": "50%"},
			{"Event Name": "Seminar", "Registered": "0", "Present": "0", "Percentage (%)": "0%"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(attendanceDataset())
	require.NoError(t, err)
	assert.Equal(t, "Event Name,Registered,Present,Percentage (%)\nHackathon,4,2,50%\nSeminar,0,0,0%\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exp := NewPDFExporter()
	exp.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	out, err := exp.Render(attendanceDataset(), "Event Attendance Report")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestLayoutRowsBreaksPages(t *testing.T) {
	positions := layoutRows(680, 4)
	require.Len(t, positions, 4)
	assert.Equal(t, rowPosition{Page: 1, Y: 680}, positions[0])
	assert.Equal(t, rowPosition{Page: 1, Y: 700}, positions[1])
	assert.Equal(t, rowPosition{Page: 2, Y: 50}, positions[2])
	assert.Equal(t, rowPosition{Page: 2, Y: 70}, positions[3])
	assert.Empty(t, layoutRows(100, 0))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(attendanceDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{"Report"}, f.GetSheetList())
	header, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Event Name", header)
	pct, err := f.GetCellValue("Report", "D2")
	require.NoError(t, err)
	assert.Equal(t, "50%", pct)
	registered, err := f.GetCellValue("Report", "B2")
	require.NoError(t, err)
	assert.Equal(t, "4", registered)
	width, err := f.GetColWidth("Report", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(30), width)
}

func TestCertificateRenderer(t *testing.T) {
	r := NewCertificateRenderer()
	out, err := r.Render(CertificateData{
		StudentName:      "Ada Lovelace",
		EventTitle:       "Intro to Compilers",
		EventDate:        "2024-03-01",
		Venue:            "Hall A",
		IssuedOn:         "2024-03-02",
		Issuer:           "Campus Events Office",
		VerificationCode: "abc.def",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = r.Render(CertificateData{EventTitle: "x"})
	assert.Error(t, err)
}

func TestPDFTextIsEncodedForCoreFonts(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	assert.Equal(t, "Jos\xe9 M\xfcller", tr("José Müller"))

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	long := tr("Séminaire d'été sur les systèmes répartis et la tolérance aux pannes")
	fitted := fitText(pdf, long, 40)
	assert.True(t, strings.HasSuffix(fitted, "..."))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(fitted, "...")))
	assert.LessOrEqual(t, pdf.GetStringWidth(fitted), float64(40))
}

func TestPDFRendersAccentedText(t *testing.T) {
	data := Dataset{
		Headers: []string{"Nome", "Evento"},
		Rows:    []map[string]string{{"Nome": "José Müller", "Evento": "Café com Ciência"}},
	}
	out, err := NewPDFExporter().Render(data, "Relatório de Presença")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	out, err = NewCertificateRenderer().Render(CertificateData{
		StudentName: "François Ñúñez",
		EventTitle:  "Semana de Ingeniería",
		EventDate:   "2024-03-01",
		Venue:       "Auditório São Paulo",
		IssuedOn:    "2024-03-02",
		Issuer:      "Oficina de Eventos Estudiantiles",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
