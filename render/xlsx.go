package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/logging"
)

// ============================================================================
// XLSX: one workbook, one sheet per report
// ============================================================================

const summarySheet = "Summary"

// WriteWorkbook saves reports to an .xlsx file: a summary sheet plus one sheet
// per report holding its tables, commentary and, when r draws PNG, the chart.
func WriteWorkbook(path string, reports []*analysis.Report, r Renderer) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	for i, h := range []string{"Analysis", "Title", "Summary"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, h)
	}
	f.SetCellStyle(summarySheet, "A1", "C1", bold)
	f.SetColWidth(summarySheet, "A", "A", 14)
	f.SetColWidth(summarySheet, "B", "C", 60)

	for i, rep := range reports {
		row := i + 2
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), rep.Key)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), rep.Title)
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), rep.Summary)

		sheet := sheetName(rep.Key)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		f.SetColWidth(sheet, "A", "A", 28)
		f.SetColWidth(sheet, "B", "D", 14)
		f.SetCellValue(sheet, "A1", rep.Title)
		f.SetCellStyle(sheet, "A1", "A1", titleStyle)

		next := 3
		if rep.Description != "" {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", next), rep.Description)
			next += 2
		}
		if rep.Before != nil {
			next = writeTable(f, sheet, next, rep.Before, bold) + 1
		}
		if rep.Table != nil {
			next = writeTable(f, sheet, next, rep.Table, bold) + 1
		}
		if rep.Summary != "" {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", next), rep.Summary)
			next++
		}
		for _, o := range rep.Observations {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", next), o)
			next++
		}

		if rep.Chart != nil && r != nil {
			if err := addChart(f, sheet, rep.Chart, r); err != nil {
				logging.Warnf("⚠️ %s: chart not embedded: %v", rep.Key, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	logging.Infof("📈 workbook written: %s (%d reports)", path, len(reports))
	return nil
}

func addChart(f *excelize.File, sheet string, cfg *engine.ChartConfig, r Renderer) error {
	if r.Ext() != "png" {
		return fmt.Errorf("renderer produces %s, workbooks embed png", r.Ext())
	}
	data, err := Bytes(r, cfg)
	if err != nil {
		return err
	}
	return f.AddPictureFromBytes(sheet, "F3", &excelize.Picture{
		Extension: ".png",
		File:      data,
		Format:    &excelize.GraphicOptions{ScaleX: 0.75, ScaleY: 0.75},
	})
}

// writeTable writes t starting at row and returns the row after the table.
func writeTable(f *excelize.File, sheet string, row int, t *engine.TableData, bold int) int {
	if t.Title != "" {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), t.Title)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
		row++
	}
	for i, h := range t.Headers() {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, bold)
	}
	row++
	for _, r := range t.Rows {
		for i, v := range r {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, cellValue(v))
		}
		row++
	}
	if t.Summary != nil {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), t.Summary.Label)
		for i, col := range t.Columns[1:] {
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			f.SetCellValue(sheet, cell, cellValue(t.Summary.Values[col.Key]))
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
		row++
	}
	return row
}

// cellValue stores formatted counts ("1,234") as numbers.
func cellValue(s string) interface{} {
	plain := strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(plain); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(plain, 64); err == nil && !strings.HasSuffix(s, "%") {
		return f
	}
	return s
}

// sheetName keeps a sheet name within Excel's 31-character limit.
func sheetName(key string) string {
	if len(key) > 31 {
		return key[:31]
	}
	return key
}
