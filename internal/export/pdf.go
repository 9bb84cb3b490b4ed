package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Simplici0/auditdays/internal/store"
)

// Brand colors as RGB triples.
var (
	colorNavy   = [3]int{30, 58, 95}
	colorText   = [3]int{33, 37, 41}
	colorMuted  = [3]int{108, 117, 125}
	colorBorder = [3]int{222, 226, 230}
	colorFill   = [3]int{241, 243, 245}
)

// PDFGenerator renders a one-page calculation report on A4 paper.
type PDFGenerator struct {
	pageWidth    float64
	margin       float64
	contentWidth float64
	labelWidth   float64
}

// NewPDFGenerator creates a generator with default page settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
		labelWidth:   70,
	}
}

// Generate writes the report for c to w and returns the number of bytes written.
func (g *PDFGenerator) Generate(c store.Calculation, w io.Writer) (int64, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Audit man-day calculation #%d", c.ID), true)
	pdf.SetCreator("auditdays", true)
	if c.CreatedBy != "" {
		pdf.SetAuthor(c.CreatedBy, true)
	}
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() { g.addFooter(pdf, c) })

	pdf.AddPage()
	g.addHeader(pdf, c)
	g.addTable(pdf, "Audit data", inputRows(c))
	g.addTable(pdf, "Breakdown", breakdownRows(c.Result))
	g.addTable(pdf, "Schedule", scheduleRows(c.Result))

	if notes := strings.TrimSpace(c.Notes); notes != "" {
		g.addSectionHeader(pdf, "Notes")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5, g.text(pdf, notes), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, c store.Calculation) {
	setFill(pdf, colorNavy)
	pdf.Rect(0, 0, g.pageWidth, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(g.margin, 12)
	pdf.Cell(0, 10, "Audit Man-Day Calculation")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 25)
	pdf.Cell(0, 7, g.text(pdf, orDash(c.Organization)))

	setText(pdf, colorText)
	pdf.SetXY(g.margin, 50)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.Cell(0, 12, fmt.Sprintf("%d man-days", c.Result.TotalManDays))
	pdf.Ln(14)

	if c.Result.Clamped() {
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 5, "Raw total was below one day; the minimum of 1 applies.")
		pdf.Ln(7)
		setText(pdf, colorText)
	}
	pdf.Ln(4)
}

func (g *PDFGenerator) addTable(pdf *fpdf.Fpdf, title string, rows []row) {
	g.addSectionHeader(pdf, title)

	setDraw(pdf, colorBorder)
	setFill(pdf, colorFill)
	for i, r := range rows {
		fill := i%2 == 0
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(g.labelWidth, 7, r.Label, "1", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(g.contentWidth-g.labelWidth, 7, g.text(pdf, r.Value), "1", 1, "L", fill, 0, "")
	}
	pdf.Ln(6)
}

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	setText(pdf, colorNavy)
	setDraw(pdf, colorNavy)
	pdf.SetLineWidth(0.5)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.SetLineWidth(0.2)
	pdf.Ln(3)
	setText(pdf, colorText)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, c store.Calculation) {
	pdf.SetY(-15)
	setDraw(pdf, colorBorder)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	setText(pdf, colorMuted)
	pdf.SetFont("Helvetica", "", 8)
	footer := fmt.Sprintf("Calculation #%d | %s | configuration v%d", c.ID, formatDate(c.CreatedAt), c.ConfigVersion)
	pdf.CellFormat(g.contentWidth/2, 5, footer, "", 0, "L", false, 0, "")
	pdf.CellFormat(g.contentWidth/2, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// text converts UTF-8 input to the code page of the core fonts.
func (g *PDFGenerator) text(pdf *fpdf.Fpdf, s string) string {
	return pdf.UnicodeTranslatorFromDescriptor("")(s)
}

func setFill(pdf *fpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *fpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *fpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
