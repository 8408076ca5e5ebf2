package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load("dataset.parquet"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestTableName(t *testing.T) {
	if got := TableName("/data/sales_2024.csv"); got != "sales_2024" {
		t.Errorf("TableName = %q, want %q", got, "sales_2024")
	}
}

func TestLoadCSVTyping(t *testing.T) {
	path := writeTempCSV(t, "order_id,amount,date,region\n"+
		"1,10.5,2024-01-01,north\n"+
		"2,,2024-01-02,south\n"+
		"3,7.25,2024-01-03,north\n")

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", table.NumRows())
	}

	kinds := map[string]Kind{
		"order_id": KindNumeric,
		"amount":   KindNumeric,
		"date":     KindDatetime,
		"region":   KindString,
	}
	for col, want := range kinds {
		if got := table.ColumnKind(col); got != want {
			t.Errorf("ColumnKind(%q) = %v, want %v", col, got, want)
		}
	}

	// Blank cell is a missing value, not a zero.
	if table.Rows[1][table.ColumnIndex("amount")] != nil {
		t.Error("blank amount should be nil")
	}

	ts, ok := table.Rows[0][table.ColumnIndex("date")].(time.Time)
	if !ok || ts.Year() != 2024 {
		t.Errorf("date cell = %v, want 2024 time.Time", table.Rows[0][table.ColumnIndex("date")])
	}
}

func TestLoadCSVMixedColumnStaysString(t *testing.T) {
	// A column holding both a number and a date parses as neither.
	path := writeTempCSV(t, "code\n123\n2024-01-01\n")

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := table.ColumnKind("code"); got != KindString {
		t.Errorf("ColumnKind = %v, want KindString", got)
	}
}

func TestLoadCSVNoHeader(t *testing.T) {
	path := writeTempCSV(t, "")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestNumericColumnSkipsMissing(t *testing.T) {
	table := &Table{
		Columns: []string{"v"},
		Rows:    [][]interface{}{{1.0}, {nil}, {3.0}},
	}
	vals, idx := table.NumericColumn("v")
	if len(vals) != 2 || vals[0] != 1.0 || vals[1] != 3.0 {
		t.Errorf("values = %v", vals)
	}
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Errorf("row indices = %v", idx)
	}
}

func TestRecordsFormatsDates(t *testing.T) {
	table := &Table{
		Columns: []string{"date", "v"},
		Rows: [][]interface{}{
			{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 5.0},
		},
	}
	recs := table.Records()
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0]["date"] != "2024-03-01" {
		t.Errorf("date = %v, want 2024-03-01", recs[0]["date"])
	}
}
