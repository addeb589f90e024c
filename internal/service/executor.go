package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"aihouse/internal/model"
)

// maxQueryRows caps how many rows a generated query may return to the
// caller, independent of any LIMIT the statement carries.
const maxQueryRows = 20

// QueryExecutor runs generated SELECT statements with named binds and
// normalizes rows into JSON-friendly values.
type QueryExecutor struct {
	db *sqlx.DB
}

func NewQueryExecutor(db *sqlx.DB) *QueryExecutor {
	return &QueryExecutor{db: db}
}

// Execute runs the query and returns at most maxQueryRows normalized rows.
// The statement is re-checked here so the executor stays safe even if
// handed a query that skipped generation.
func (e *QueryExecutor) Execute(ctx context.Context, query *model.GeneratedQuery) ([]model.QueryResultRow, error) {
	if query == nil || !isSelectStatement(query.SQL) {
		return nil, fmt.Errorf("refusing to execute non-SELECT statement")
	}

	params := query.Params
	if params == nil {
		params = map[string]any{}
	}

	rows, err := e.db.NamedQueryContext(ctx, query.SQL, params)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	results := make([]model.QueryResultRow, 0, maxQueryRows)
	for rows.Next() {
		if len(results) >= maxQueryRows {
			break
		}
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		results = append(results, normalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return results, nil
}

func normalizeRow(row map[string]any) model.QueryResultRow {
	out := make(model.QueryResultRow, len(row))
	for k, v := range row {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue maps driver types onto plain JSON values: timestamps to
// RFC3339 strings, numeric byte slices to float64, other byte slices to
// strings.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		s := string(val)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	default:
		return v
	}
}
