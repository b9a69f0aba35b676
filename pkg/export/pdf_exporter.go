package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ConvocationJuryRow is one jury line of a convocation.
type ConvocationJuryRow struct {
	FullName    string
	Institution string
	Role        string
}

// ConvocationData holds the content of a defense convocation document.
type ConvocationData struct {
	CandidateName string
	ThesisSubject string
	Date          string
	Venue         string
	Jury          []ConvocationJuryRow
}

// PDFExporter renders defense convocations.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderConvocation produces the printable convocation for a scheduled
// defense: a summary block followed by the jury table.
func (e *PDFExporter) RenderConvocation(data ConvocationData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "THESIS DEFENSE CONVOCATION", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	summary := [][2]string{
		{"Candidate", data.CandidateName},
		{"Thesis subject", data.ThesisSubject},
		{"Date", data.Date},
		{"Venue", data.Venue},
	}
	for _, line := range summary {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, line[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, line[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Jury", "", 1, "", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{75, 65, 40}
	headers := []string{"Name", "Institution", "Role"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, member := range data.Jury {
		pdf.CellFormat(widths[0], 7, member.FullName, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, member.Institution, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 7, member.Role, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render convocation pdf: %w", err)
	}
	return buf.Bytes(), nil
}
