package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Load reads a tabular file into a Table. The file extension dictates the
// loader: .csv goes through encoding/csv, .xls/.xlsx through excelize.
// Any other extension fails fast before further processing.
//
// excelize only parses zip-based workbooks, so a legacy OLE .xls is
// accepted by extension but fails with its format error on open.
func Load(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadCSV(path)
	case ".xls", ".xlsx":
		return loadExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// TableName derives the logical dataset name from the file path.
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRawRecords(records)
}

func fromRawRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}
	header := records[0]
	ncol := len(header)
	columns := make([]string, ncol)
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	raw := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, ncol)
		copy(row, rec)
		raw = append(raw, row)
	}

	rows := make([][]interface{}, len(raw))
	for i := range rows {
		rows[i] = make([]interface{}, ncol)
	}
	for j := 0; j < ncol; j++ {
		typeColumn(raw, rows, j)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// typeColumn converts one raw string column into typed cells. Numeric is
// tried first, then datetime; anything else stays a string. A blank cell
// is a missing value.
func typeColumn(raw [][]string, rows [][]interface{}, j int) {
	numeric := true
	datetime := true
	seen := 0
	for _, rec := range raw {
		v := strings.TrimSpace(rec[j])
		if v == "" {
			continue
		}
		seen++
		if numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		if datetime {
			if _, ok := parseTime(v); !ok {
				datetime = false
			}
		}
	}

	for i, rec := range raw {
		v := strings.TrimSpace(rec[j])
		if v == "" {
			rows[i][j] = nil
			continue
		}
		switch {
		case seen > 0 && numeric:
			f, _ := strconv.ParseFloat(v, 64)
			rows[i][j] = f
		case seen > 0 && datetime:
			ts, _ := parseTime(v)
			rows[i][j] = ts
		default:
			rows[i][j] = v
		}
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
