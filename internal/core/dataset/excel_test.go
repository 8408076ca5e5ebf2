package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTempXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeTempXLSX(t, [][]interface{}{
		{"region", "amount", "note"},
		{"north", 10.5, "ok"},
		// Trailing cell omitted: GetRows trims it, the loader must pad.
		{"south", 20},
	})

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", table.NumRows())
	}

	kinds := map[string]Kind{
		"region": KindString,
		"amount": KindNumeric,
		"note":   KindString,
	}
	for col, want := range kinds {
		if got := table.ColumnKind(col); got != want {
			t.Errorf("ColumnKind(%q) = %v, want %v", col, got, want)
		}
	}

	// The trimmed trailing cell loads as a missing value.
	if got := table.Rows[1][table.ColumnIndex("note")]; got != nil {
		t.Errorf("padded cell = %v, want nil", got)
	}
	if amount, ok := CellFloat(table.Rows[1][table.ColumnIndex("amount")]); !ok || amount != 20 {
		t.Errorf("amount = %v, want 20", table.Rows[1][table.ColumnIndex("amount")])
	}
}

func TestLoadXLSXHeaderOnly(t *testing.T) {
	path := writeTempXLSX(t, [][]interface{}{{"a", "b"}})

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 0 || len(table.Columns) != 2 {
		t.Errorf("columns = %v, rows = %d", table.Columns, table.NumRows())
	}
}

func TestLoadLegacyXLSFails(t *testing.T) {
	// Pre-2007 OLE compound-file magic; excelize reads only zip-based
	// workbooks, so this must surface an error rather than garbage rows.
	path := filepath.Join(t.TempDir(), "data.xls")
	magic := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	if err := os.WriteFile(path, magic, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for legacy OLE workbook")
	}
}
