// File: sqlds.go
// Title: SQL Datasource Adapter
// Description: Executes SQL query payloads through database/sql. SELECT
//              statements produce row records; other statements report the
//              number of affected rows. Parameters bind by name.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial SQL adapter

package sqlds

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/datasource"
)

// KindSQL is the backend kind string this adapter serves
const KindSQL = "sql"

// Options configures an Adapter
type Options struct {
	// Path is the SQLite database path (":memory:" for in-memory)
	Path string

	// DB is an already-open database; takes precedence over Path
	DB *sql.DB

	// Logger for adapter diagnostics (optional)
	Logger *log.Logger
}

// Adapter executes SQL queries against one database
type Adapter struct {
	db     *sql.DB
	logger *log.Logger
}

// New creates a SQL adapter, opening the database when one is not supplied
func New(opts Options) (*Adapter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	db := opts.DB
	if db == nil {
		if opts.Path == "" {
			return nil, formaerror.New("sql adapter requires a database path or handle").
				WithCode(formaerror.CodeMissingConfig).
				WithOperation("sqlds.New")
		}
		opened, err := sql.Open("sqlite3", opts.Path)
		if err != nil {
			return nil, formaerror.Wrap(err, "failed to open database").
				WithCode(formaerror.CodeDatabaseError).
				WithOperation("sqlds.New").
				WithDetail("path", opts.Path)
		}
		db = opened
	}

	return &Adapter{
		db:     db,
		logger: logger.WithName("datasource.sql"),
	}, nil
}

// Kind implements datasource.Adapter
func (a *Adapter) Kind() string {
	return KindSQL
}

// Close releases the underlying database handle
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Execute runs the SQL payload. Named parameters in the statement
// (e.g. :user_id) bind from the descriptor parameters.
func (a *Adapter) Execute(ctx context.Context, desc *datasource.QueryDescriptor) (*datasource.QueryResult, error) {
	statement := strings.TrimSpace(desc.Payload)
	if statement == "" {
		return nil, formaerror.New("sql payload is empty").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("sqlds.Execute")
	}

	args := make([]interface{}, 0, len(desc.Params))
	for name, value := range desc.Params {
		args = append(args, sql.Named(name, value))
	}

	if isRowQuery(statement) {
		return a.query(ctx, statement, args, desc.Options.MaxResults)
	}
	return a.exec(ctx, statement, args)
}

// query runs a row-producing statement
func (a *Adapter) query(ctx context.Context, statement string, args []interface{}, limit int) (*datasource.QueryResult, error) {
	rows, err := a.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, formaerror.Wrap(err, "query failed").
			WithCode(formaerror.CodeDatabaseError).
			WithOperation("sqlds.Execute")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to read columns").
			WithCode(formaerror.CodeDatabaseError).
			WithOperation("sqlds.Execute")
	}

	records := make([]map[string]interface{}, 0)
	for rows.Next() {
		if limit > 0 && len(records) >= limit {
			break
		}

		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, formaerror.Wrap(err, "row scan failed").
				WithCode(formaerror.CodeDatabaseError).
				WithOperation("sqlds.Execute")
		}

		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, formaerror.Wrap(err, "row iteration failed").
			WithCode(formaerror.CodeDatabaseError).
			WithOperation("sqlds.Execute")
	}

	a.logger.Debug("sql query returned rows", log.Fields{
		"rows": len(records),
	})
	return &datasource.QueryResult{Success: true, Records: records}, nil
}

// exec runs a statement without a result set
func (a *Adapter) exec(ctx context.Context, statement string, args []interface{}) (*datasource.QueryResult, error) {
	result, err := a.db.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, formaerror.Wrap(err, "statement failed").
			WithCode(formaerror.CodeDatabaseError).
			WithOperation("sqlds.Execute")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &datasource.QueryResult{Success: true, Data: float64(affected)}, nil
}

// isRowQuery reports whether a statement produces rows
func isRowQuery(statement string) bool {
	head := strings.ToUpper(statement)
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

// normalizeValue converts driver values into the interpreter's value model:
// numbers widen to float64, byte slices become strings
func normalizeValue(v interface{}) interface{} {
	switch value := v.(type) {
	case int64:
		return float64(value)
	case []byte:
		return string(value)
	default:
		return value
	}
}
