package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Table geometry in points on a Letter page.
const (
	tableX        = 50.0
	columnStep    = 150.0
	columnWidth   = 140.0
	ruleEndX      = 550.0
	rowHeight     = 20.0
	pageBreakY    = 700.0
	pageTopY      = 50.0
	headerPadding = 10.0
)

type rowPosition struct {
	Page int
	Y    float64
}

// layoutRows places n body rows starting at startY, breaking to a new page
// whenever the cursor passes pageBreakY.
func layoutRows(startY float64, n int) []rowPosition {
	positions := make([]rowPosition, 0, n)
	page, y := 1, startY
	for i := 0; i < n; i++ {
		positions = append(positions, rowPosition{Page: page, Y: y})
		y += rowHeight
		if y > pageBreakY {
			page++
			y = pageTopY
		}
	}
	return positions
}

// PDFExporter renders datasets into a paginated tabular PDF.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates a PDF document with a centred title, a generated-on line and
// the table body. Columns sit at fixed offsets; the first column is truncated
// to its cell width.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(tableX, pageTopY, tableX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 28, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 16, fmt.Sprintf("Generated on: %s", e.now().Format("01/02/2006")), "", 1, "C", false, 0, "")
	pdf.Ln(24)

	y := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 12)
	for i, header := range data.Headers {
		pdf.SetXY(tableX+float64(i)*columnStep, y)
		pdf.CellFormat(columnWidth, 14, tr(header), "", 0, "L", false, 0, "")
	}
	y += rowHeight
	pdf.SetLineWidth(1)
	pdf.Line(tableX, y, ruleEndX, y)
	y += headerPadding

	pdf.SetFont("Helvetica", "", 12)
	page := 1
	for idx, pos := range layoutRows(y, len(data.Rows)) {
		if pos.Page != page {
			pdf.AddPage()
			page = pos.Page
		}
		for i, value := range data.record(data.Rows[idx]) {
			pdf.SetXY(tableX+float64(i)*columnStep, pos.Y)
			pdf.CellFormat(columnWidth, 14, fitText(pdf, tr(value), columnWidth), "", 0, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText truncates an already translated cp1252 string, one byte per glyph.
func fitText(pdf *gofpdf.Fpdf, value string, width float64) string {
	if pdf.GetStringWidth(value) <= width {
		return value
	}
	cut := len(value)
	for cut > 0 && pdf.GetStringWidth(value[:cut]+"...") > width {
		cut--
	}
	return value[:cut] + "..."
}
