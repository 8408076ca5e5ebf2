package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func loadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	// GetRows trims trailing empty cells per row, so pad to header width.
	width := len(records[0])
	for i, rec := range records {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			records[i] = padded
		}
	}

	return fromRawRecords(records)
}
