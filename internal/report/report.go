// Package report renders the collections report as an Excel workbook.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/cable-billing/internal/model"
)

const (
	collectionsSheet = "Collections"
	summarySheet     = "Summary"
	headerIndex      = 2
)

// CollectionRow is one payment line of the workbook.
type CollectionRow struct {
	PaymentDate     model.Date
	CustomerName    string
	SetTopBoxNumber string
	Period          string
	Method          string
	Reference       string
	ReceivedBy      string
	Amount          float64
}

// Totals are the per-method and grand totals of a collections report.
type Totals struct {
	Cash   float64
	Online float64
	Grand  float64
}

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{file: excelize.NewFile()}
}

// CollectionsWorkbook renders the payments dated within [start, end] and
// their totals.  An empty range still yields a workbook with headers and
// zero totals.
func CollectionsWorkbook(start, end model.Date, rows []CollectionRow, totals Totals) (*bytes.Buffer, error) {
	gen := NewGenerator()
	defer gen.file.Close()

	// The default sheet becomes the payment list.
	if err := gen.file.SetSheetName("Sheet1", collectionsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if err := gen.setupSheet(collectionsSheet, len(rows)); err != nil {
		return nil, fmt.Errorf("failed to setup sheet '%s': %w", collectionsSheet, err)
	}
	for i, row := range rows {
		if err := gen.addRow(collectionsSheet, i+headerIndex, row); err != nil {
			return nil, fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
		}
	}
	if err := gen.addSummary(start, end, len(rows), totals); err != nil {
		return nil, fmt.Errorf("failed to add summary: %w", err)
	}

	gen.file.SetActiveSheet(0)

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buffer, nil
}

func (g *Generator) headerStyle() (int, error) {
	return g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
}

// setupSheet writes the styled header row, column widths and, when there
// are rows, a table over the data range.
func (g *Generator) setupSheet(sheetName string, rowCount int) error {
	style, err := g.headerStyle()
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	headers := []string{"Payment Date", "Customer", "Set-Top Box", "Billing Period", "Method", "Reference", "Received By", "Amount"}
	if err = g.file.SetRowHeight(sheetName, 1, 20); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "H1", style); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	widths := map[string]float64{
		"A": 14, "B": 30, "C": 18, "D": 16, "E": 10, "F": 24, "G": 16, "H": 12,
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if rowCount == 0 {
		return nil
	}
	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:H%d", rowCount+1),
		Name:      "table_collections",
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}
	return nil
}

func (g *Generator) addRow(sheetName string, rowNum int, row CollectionRow) error {
	rowData := []any{
		row.PaymentDate.String(),
		row.CustomerName,
		row.SetTopBoxNumber,
		row.Period,
		row.Method,
		row.Reference,
		row.ReceivedBy,
		row.Amount,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)
	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}
	return nil
}

func (g *Generator) addSummary(start, end model.Date, count int, totals Totals) error {
	if _, err := g.file.NewSheet(summarySheet); err != nil {
		return err
	}
	style, err := g.headerStyle()
	if err != nil {
		return err
	}
	lines := [][]any{
		{"Start Date", start.String()},
		{"End Date", end.String()},
		{"Payments", count},
		{"Cash", totals.Cash},
		{"Online", totals.Online},
		{"Total", totals.Grand},
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := g.file.SetSheetRow(summarySheet, cell, &line); err != nil {
			return err
		}
	}
	if err := g.file.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(lines)), style); err != nil {
		return err
	}
	return g.file.SetColWidth(summarySheet, "A", "B", 16)
}
