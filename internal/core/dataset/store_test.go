package dataset

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadMainTableRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &Table{
		Columns: []string{"region", "amount", "date"},
		Rows: [][]interface{}{
			{"north", 10.5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{"south", 20.0, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			{"north", nil, nil},
		},
	}
	if err := store.LoadMainTable(ctx, src); err != nil {
		t.Fatal(err)
	}

	got, err := store.Query(ctx, "SELECT region, amount, date FROM main_table ORDER BY region, amount")
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}
	if got.ColumnKind("amount") != KindNumeric {
		t.Errorf("amount kind = %v, want numeric", got.ColumnKind("amount"))
	}
	// Datetime strings stored in SQLite come back as time values.
	if got.ColumnKind("date") != KindDatetime {
		t.Errorf("date kind = %v, want datetime", got.ColumnKind("date"))
	}
}

func TestLoadMainTableReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &Table{Columns: []string{"v"}, Rows: [][]interface{}{{1.0}, {2.0}}}
	if err := store.LoadMainTable(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &Table{Columns: []string{"v"}, Rows: [][]interface{}{{9.0}}}
	if err := store.LoadMainTable(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Query(ctx, "SELECT v FROM main_table")
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 1 {
		t.Errorf("rows after reload = %d, want 1", got.NumRows())
	}
}

func TestLoadMainTableNoColumns(t *testing.T) {
	store := newTestStore(t)
	if err := store.LoadMainTable(context.Background(), &Table{}); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestQueryBadSQL(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Query(context.Background(), "SELEC nonsense"); err == nil {
		t.Fatal("expected error for malformed SQL")
	}
}

func TestQueryAggregate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &Table{
		Columns: []string{"region", "amount"},
		Rows: [][]interface{}{
			{"north", 10.0},
			{"north", 20.0},
			{"south", 5.0},
		},
	}
	if err := store.LoadMainTable(ctx, src); err != nil {
		t.Fatal(err)
	}

	got, err := store.Query(ctx, "SELECT region, SUM(amount) AS total FROM main_table GROUP BY region ORDER BY region")
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", got.NumRows())
	}
	total, ok := CellFloat(got.Rows[0][got.ColumnIndex("total")])
	if !ok || total != 30.0 {
		t.Errorf("north total = %v, want 30", got.Rows[0][got.ColumnIndex("total")])
	}
}
