package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFColor represents an RGB color
type PDFColor struct {
	R int
	G int
	B int
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	Title         string
	Subtitle      string
	DateFormat    string
	HeaderColor   PDFColor
	AlternateRows bool
	FontFamily    string
	FontSize      float64
	TitleFontSize float64
}

// DefaultPDFOptions returns the house style for report downloads
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Title:         "Platform Report",
		DateFormat:    "2006-01-02",
		HeaderColor:   PDFColor{R: 68, G: 114, B: 196},
		AlternateRows: true,
		FontFamily:    "Arial",
		FontSize:      10,
		TitleFontSize: 16,
	}
}

// PDFGenerator generates report PDFs
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g := &PDFGenerator{pdf: pdf, options: options}
	g.addTitle()
	return g
}

func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.options.Title, "", 1, "C", false, 0, "")

	if g.options.Subtitle != "" {
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
		g.pdf.SetTextColor(100, 100, 100)
		g.pdf.CellFormat(0, 8, g.options.Subtitle, "", 1, "C", false, 0, "")
	}

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	dateStr := fmt.Sprintf("Generated: %s", time.Now().Format(g.options.DateFormat))
	g.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
	g.pdf.Ln(4)
}

// AddKeyValueSection renders a titled list of label/value pairs
func (g *PDFGenerator) AddKeyValueSection(title string, pairs [][2]string) {
	g.pdf.Ln(6)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	g.pdf.Ln(1)

	for _, pair := range pairs {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(60, 6, pair[0]+":", "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, pair[1], "", 1, "L", false, 0, "")
	}
}

// AddTable renders a compact two-or-more-column table with a styled
// header row.
func (g *PDFGenerator) AddTable(title string, headers []string, rows [][]string) {
	g.pdf.Ln(6)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	g.pdf.Ln(1)

	pageWidth, _ := g.pdf.GetPageSize()
	colWidth := (pageWidth - 30) / float64(len(headers))

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+1)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)
	for _, h := range headers {
		g.pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)
	for i, row := range rows {
		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(242, 242, 242)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}
		for _, cell := range row {
			g.pdf.CellFormat(colWidth, 7, cell, "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

// WriteTo writes the finished PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// Bytes returns the finished PDF
func (g *PDFGenerator) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
