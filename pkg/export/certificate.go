package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData is the content printed on a participation certificate.
type CertificateData struct {
	StudentName      string
	EventTitle       string
	EventDate        string
	Venue            string
	IssuedOn         string
	Issuer           string
	VerificationCode string
}

// CertificateRenderer draws landscape participation certificates.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces a one page PDF certificate.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.StudentName == "" || data.EventTitle == "" {
		return nil, fmt.Errorf("certificate requires student name and event title")
	}
	pdf := gofpdf.New("L", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w, h := pdf.GetPageSize()
	pdf.SetDrawColor(40, 70, 120)
	pdf.SetLineWidth(4)
	pdf.Rect(30, 30, w-60, h-60, "D")
	pdf.SetLineWidth(1)
	pdf.Rect(42, 42, w-84, h-84, "D")

	pdf.SetY(110)
	pdf.SetFont("Times", "B", 36)
	pdf.CellFormat(0, 44, "Certificate of Participation", "", 1, "C", false, 0, "")
	pdf.Ln(16)

	pdf.SetFont("Times", "", 16)
	pdf.CellFormat(0, 22, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Times", "B", 28)
	pdf.CellFormat(0, 36, tr(data.StudentName), "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Times", "", 16)
	pdf.CellFormat(0, 22, "has successfully participated in", "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Times", "B", 22)
	pdf.CellFormat(0, 30, tr(data.EventTitle), "", 1, "C", false, 0, "")

	details := data.EventDate
	if data.Venue != "" {
		details = fmt.Sprintf("held on %s at %s", data.EventDate, data.Venue)
	} else if details != "" {
		details = fmt.Sprintf("held on %s", data.EventDate)
	}
	if details != "" {
		pdf.SetFont("Times", "I", 14)
		pdf.CellFormat(0, 22, tr(details), "", 1, "C", false, 0, "")
	}

	pdf.SetXY(80, h-150)
	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(250, 16, tr(fmt.Sprintf("Issued on %s", data.IssuedOn)), "", 2, "L", false, 0, "")
	if data.Issuer != "" {
		pdf.CellFormat(250, 16, tr(data.Issuer), "", 0, "L", false, 0, "")
	}

	if data.VerificationCode != "" {
		pdf.SetXY(60, h-80)
		pdf.SetFont("Courier", "", 8)
		pdf.CellFormat(w-120, 12, "Verification code: "+data.VerificationCode, "", 0, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
