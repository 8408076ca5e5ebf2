package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders a report as a workbook: an overview sheet plus
// one sheet per KPI section.
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter { return &ExcelExporter{} }

func (e *ExcelExporter) FileExtension() string { return ".xlsx" }

func (e *ExcelExporter) Export(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	const overview = "Overview"
	f.SetSheetName("Sheet1", overview)
	f.SetCellValue(overview, "A1", r.Title)
	f.SetCellStyle(overview, "A1", "A1", titleStyle)
	f.SetCellValue(overview, "A2", fmt.Sprintf("Generated: %s", r.CreatedAt.Format("2006-01-02 15:04:05")))
	row := 4
	if r.OverallSummary != "" {
		f.SetCellValue(overview, fmt.Sprintf("A%d", row), "Overall Summary")
		f.SetCellStyle(overview, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), titleStyle)
		row++
		for _, line := range strings.Split(r.OverallSummary, "\n") {
			f.SetCellValue(overview, fmt.Sprintf("A%d", row), line)
			row++
		}
	}

	used := map[string]int{overview: 1}
	for _, sec := range r.Sections {
		sheet := sheetName(sec.KPIName, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		f.SetCellValue(sheet, "A1", sec.KPIName)
		f.SetCellStyle(sheet, "A1", "A1", titleStyle)
		f.SetCellValue(sheet, "A2", sec.Summary)

		if len(sec.StatsHeaders) > 0 {
			headerRow := 4
			for col, h := range sec.StatsHeaders {
				cell := columnName(col+1) + strconv.Itoa(headerRow)
				f.SetCellValue(sheet, cell, h)
				f.SetCellStyle(sheet, cell, cell, headerStyle)
			}
			for i, statsRow := range sec.StatsRows {
				for col, v := range statsRow {
					f.SetCellValue(sheet, columnName(col+1)+strconv.Itoa(headerRow+1+i), v)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetName fits a KPI name into Excel's 31-char sheet limit and
// deduplicates collisions.
func sheetName(kpiName string, used map[string]int) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, kpiName)
	if name == "" {
		name = "KPI"
	}
	if len(name) > 28 {
		name = name[:28]
	}
	used[name]++
	if used[name] > 1 {
		name = fmt.Sprintf("%s_%d", name, used[name])
	}
	return name
}

// columnName converts a 1-based column number to its Excel name.
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}
