package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelOptions configures workbook export
type ExcelOptions struct {
	SheetName    string
	FreezeHeader bool
	HeaderFill   string
	HeaderFont   string
}

// DefaultExcelOptions returns the house style for report downloads
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:    "Report",
		FreezeHeader: true,
		HeaderFill:   "4472C4",
		HeaderFont:   "FFFFFF",
	}
}

// ExcelExporter writes report sections into a workbook, one section
// after another on a single sheet.
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
	nextRow int
}

// NewExcelExporter creates a new workbook exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", options.SheetName)
	return &ExcelExporter{file: file, options: options, nextRow: 1}
}

// AddKeyValueSection writes a titled block of label/value rows
func (e *ExcelExporter) AddKeyValueSection(title string, pairs [][2]string) error {
	if err := e.writeSectionTitle(title); err != nil {
		return err
	}
	for _, pair := range pairs {
		labelCell, _ := excelize.CoordinatesToCellName(1, e.nextRow)
		valueCell, _ := excelize.CoordinatesToCellName(2, e.nextRow)
		if err := e.file.SetCellValue(e.options.SheetName, labelCell, pair[0]); err != nil {
			return err
		}
		if err := e.file.SetCellValue(e.options.SheetName, valueCell, pair[1]); err != nil {
			return err
		}
		e.nextRow++
	}
	e.nextRow++
	return nil
}

// AddTable writes a titled table with a styled header row
func (e *ExcelExporter) AddTable(title string, headers []string, rows [][]string) error {
	if err := e.writeSectionTitle(title); err != nil {
		return err
	}

	headerStyle, err := e.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: e.options.HeaderFont},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.options.HeaderFill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, e.nextRow)
		if err := e.file.SetCellValue(e.options.SheetName, cell, h); err != nil {
			return err
		}
		if err := e.file.SetCellStyle(e.options.SheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	e.nextRow++

	for _, row := range rows {
		for i, val := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, e.nextRow)
			if err := e.file.SetCellValue(e.options.SheetName, cell, val); err != nil {
				return err
			}
		}
		e.nextRow++
	}
	e.nextRow++
	return nil
}

func (e *ExcelExporter) writeSectionTitle(title string) error {
	cell, _ := excelize.CoordinatesToCellName(1, e.nextRow)
	style, err := e.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}
	if err := e.file.SetCellValue(e.options.SheetName, cell, title); err != nil {
		return err
	}
	if err := e.file.SetCellStyle(e.options.SheetName, cell, cell, style); err != nil {
		return err
	}
	e.nextRow++
	return nil
}

// WriteTo writes the finished workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Bytes returns the finished workbook
func (e *ExcelExporter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
