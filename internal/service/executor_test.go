package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"aihouse/internal/model"
)

// manyRowsDriver serves a fixed single-column result set regardless of the
// statement, so the row cap can be exercised without a database.
type manyRowsDriver struct{}

func (manyRowsDriver) Open(name string) (driver.Conn, error) { return manyRowsConn{}, nil }

type manyRowsConn struct{}

func (manyRowsConn) Prepare(query string) (driver.Stmt, error) { return manyRowsStmt{}, nil }
func (manyRowsConn) Close() error                              { return nil }
func (manyRowsConn) Begin() (driver.Tx, error)                 { return nil, errors.New("not supported") }

type manyRowsStmt struct{}

func (manyRowsStmt) Close() error  { return nil }
func (manyRowsStmt) NumInput() int { return -1 }
func (manyRowsStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, errors.New("not supported")
}
func (manyRowsStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &manyRows{total: 25}, nil
}

type manyRows struct {
	total  int
	served int
}

func (r *manyRows) Columns() []string { return []string{"id"} }
func (r *manyRows) Close() error      { return nil }
func (r *manyRows) Next(dest []driver.Value) error {
	if r.served >= r.total {
		return io.EOF
	}
	dest[0] = int64(r.served)
	r.served++
	return nil
}

func init() {
	sql.Register("manyrows", manyRowsDriver{})
}

func TestExecuteRejectsNonSelect(t *testing.T) {
	exec := NewQueryExecutor(nil)

	tests := []struct {
		name  string
		query *model.GeneratedQuery
	}{
		{"nil query", nil},
		{"delete", &model.GeneratedQuery{SQL: "DELETE FROM properties"}},
		{"empty", &model.GeneratedQuery{SQL: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := exec.Execute(context.Background(), tt.query); err == nil {
				t.Error("Execute() error = nil, want rejection")
			}
		})
	}
}

func TestExecuteCapsRowCount(t *testing.T) {
	sqlDB, err := sql.Open("manyrows", "")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer sqlDB.Close()
	exec := NewQueryExecutor(sqlx.NewDb(sqlDB, "manyrows"))

	rows, err := exec.Execute(context.Background(), &model.GeneratedQuery{
		SQL:    "SELECT id FROM properties",
		Params: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// the driver serves 25 rows, the executor must stop at the cap
	if len(rows) != maxQueryRows {
		t.Fatalf("rows = %d, want %d", len(rows), maxQueryRows)
	}
	if rows[0]["id"] != int64(0) {
		t.Errorf("rows[0][id] = %v, want 0", rows[0]["id"])
	}
	if rows[maxQueryRows-1]["id"] != int64(maxQueryRows-1) {
		t.Errorf("last row id = %v, want %d", rows[maxQueryRows-1]["id"], maxQueryRows-1)
	}
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2025, 6, 1, 8, 30, 0, 0, time.FixedZone("CST", 8*3600))

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"time to RFC3339 UTC", ts, "2025-06-01T00:30:00Z"},
		{"numeric bytes to float", []byte("3500.50"), 3500.50},
		{"integer bytes to float", []byte("42"), float64(42)},
		{"text bytes to string", []byte("金华园小区"), "金华园小区"},
		{"int64 passthrough", int64(7), int64(7)},
		{"string passthrough", "2室1厅", "2室1厅"},
		{"nil passthrough", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.input); got != tt.want {
				t.Errorf("normalizeValue(%v) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNormalizeRow(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	row := normalizeRow(map[string]any{
		"id":         int64(1),
		"price":      []byte("3000.00"),
		"created_at": created,
	})

	if row["price"] != float64(3000) {
		t.Errorf("price = %v, want 3000", row["price"])
	}
	if row["created_at"] != "2025-01-02T03:04:05Z" {
		t.Errorf("created_at = %v, want RFC3339", row["created_at"])
	}
	if row["id"] != int64(1) {
		t.Errorf("id = %v, want 1", row["id"])
	}
}
