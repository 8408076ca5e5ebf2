package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a report as a portrait A4 document, one heading
// per KPI section.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter { return &PDFExporter{} }

func (p *PDFExporter) FileExtension() string { return ".pdf" }

func (p *PDFExporter) Export(r *Report, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, r.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", r.CreatedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(10)

	if r.OverallSummary != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Overall Summary")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, r.OverallSummary, "", "", false)
		pdf.Ln(6)
	}

	for _, sec := range r.Sections {
		if pdf.GetY() > 240 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, sec.KPIName)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, sec.Summary, "", "", false)
		pdf.Ln(4)

		if len(sec.StatsHeaders) > 0 {
			p.writeStatsTable(pdf, sec)
			pdf.Ln(6)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (p *PDFExporter) writeStatsTable(pdf *gofpdf.Fpdf, sec Section) {
	pageWidth, _ := pdf.GetPageSize()
	leftMargin, _, rightMargin, _ := pdf.GetMargins()
	colWidth := (pageWidth - leftMargin - rightMargin) / float64(len(sec.StatsHeaders))

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for _, h := range sec.StatsHeaders {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 8)
	for _, row := range sec.StatsRows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		for _, v := range row {
			var cell string
			switch val := v.(type) {
			case float64:
				cell = fmt.Sprintf("%.4g", val)
			default:
				cell = fmt.Sprintf("%v", val)
			}
			pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
