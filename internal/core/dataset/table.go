package dataset

import (
	"fmt"
	"time"
)

// Kind is the inferred value kind of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumeric
	KindDatetime
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "float64"
	case KindDatetime:
		return "datetime"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Table is a row-and-column dataset. Cells hold float64, time.Time,
// string, or nil for a missing value. Each pipeline stage produces a new
// Table and never mutates one it did not create.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool {
	return t.NumRows() == 0
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ColumnKind inspects the non-missing values of a column. Numeric wins
// first, then datetime, then string; a mixed or all-missing column is
// unknown.
func (t *Table) ColumnKind(name string) Kind {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return KindUnknown
	}
	var numeric, datetime, str, seen int
	for _, row := range t.Rows {
		v := row[idx]
		if v == nil {
			continue
		}
		seen++
		switch v.(type) {
		case float64, int64, int:
			numeric++
		case time.Time:
			datetime++
		case string:
			str++
		}
	}
	switch {
	case seen == 0:
		return KindUnknown
	case numeric == seen:
		return KindNumeric
	case datetime == seen:
		return KindDatetime
	case str == seen:
		return KindString
	default:
		return KindUnknown
	}
}

// NumericColumns returns the names of all numeric columns in order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if t.ColumnKind(c) == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// StringColumns returns the names of all string-typed columns in order.
func (t *Table) StringColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if t.ColumnKind(c) == KindString {
			out = append(out, c)
		}
	}
	return out
}

// NumericColumn returns the non-missing values of a numeric column along
// with their original row indices.
func (t *Table) NumericColumn(name string) (values []float64, rowIdx []int) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, nil
	}
	for i, row := range t.Rows {
		if f, ok := CellFloat(row[idx]); ok {
			values = append(values, f)
			rowIdx = append(rowIdx, i)
		}
	}
	return values, rowIdx
}

// Head returns a table with at most n leading rows (shared backing rows).
func (t *Table) Head(n int) *Table {
	if n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Records converts rows into column-keyed maps, the shape used for data
// listings in prompts and for chart dataset binding.
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = normalizeCell(row[i])
		}
		records = append(records, rec)
	}
	return records
}

// CellFloat converts a numeric cell to float64.
func CellFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// CellString renders any cell for display.
func CellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// normalizeCell makes a cell JSON-friendly (time.Time to a date string).
func normalizeCell(v interface{}) interface{} {
	if ts, ok := v.(time.Time); ok {
		return ts.Format("2006-01-02")
	}
	return v
}
