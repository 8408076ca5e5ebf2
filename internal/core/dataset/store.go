package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MainTableName is the single table every generated query runs against.
const MainTableName = "main_table"

// SessionStore is the per-run relational engine: an in-memory SQLite
// database populated once from the input dataset, then queried with
// model-generated SQL. Nothing survives the process.
//
// SQLite has no dedicated datetime type, so datetime cells are stored as
// RFC3339 strings and re-typed when results are read back.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(ctx context.Context) (*SessionStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	// The :memory: database vanishes when its only connection closes.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error { return s.db.Close() }

// LoadMainTable (re)creates main_table from the dataset and bulk-inserts
// every row. Called once per run, and again on a scheduled refresh.
func (s *SessionStore) LoadMainTable(ctx context.Context, t *Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", MainTableName)); err != nil {
		return fmt.Errorf("drop %s: %w", MainTableName, err)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		affinity := "TEXT"
		if t.ColumnKind(c) == KindNumeric {
			affinity = "REAL"
		}
		defs[i] = fmt.Sprintf("%q %s", c, affinity)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", MainTableName, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create %s: %w", MainTableName, err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", MainTableName, placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		args := make([]interface{}, len(row))
		for i, v := range row {
			if ts, ok := v.(time.Time); ok {
				args[i] = ts.Format(time.RFC3339)
			} else {
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return tx.Commit()
}

// Query executes arbitrary SQL text and returns the result as a Table.
// String columns that round-trip cleanly as datetimes are re-typed so
// trend detection sees time values again.
func (s *SessionStore) Query(ctx context.Context, query string) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	result := &Table{Columns: columns}
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		for i, v := range cells {
			if b, ok := v.([]byte); ok {
				cells[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	retypeDatetimes(result)
	return result, nil
}

// retypeDatetimes converts string columns whose every non-missing value
// parses as a datetime back into time.Time cells.
func retypeDatetimes(t *Table) {
	for j, col := range t.Columns {
		if t.ColumnKind(col) != KindString {
			continue
		}
		parsed := make([]time.Time, 0, len(t.Rows))
		convertible := true
		for _, row := range t.Rows {
			v := row[j]
			if v == nil {
				continue
			}
			ts, ok := parseTime(v.(string))
			if !ok {
				convertible = false
				break
			}
			parsed = append(parsed, ts)
		}
		if !convertible || len(parsed) == 0 {
			continue
		}
		k := 0
		for _, row := range t.Rows {
			if row[j] != nil {
				row[j] = parsed[k]
				k++
			}
		}
	}
}
