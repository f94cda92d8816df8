// Package sqlsource runs queries through database/sql and converts result
// sets into tables. PostgreSQL goes through pgx's stdlib driver and MySQL
// through go-sql-driver/mysql.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"go.uber.org/zap"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/logger"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// Rows is the subset of *sql.Rows that FromRows reads
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// DBExecutor opens a connection per query, runs it and closes it
type DBExecutor struct {
	cfg    config.SQLConfig
	logger *zap.Logger
}

// NewDBExecutor creates an executor. cfg.Connection is used when a query
// is run without a connection string; cfg.Driver overrides detection.
func NewDBExecutor(cfg config.SQLConfig, l *zap.Logger) *DBExecutor {
	return &DBExecutor{cfg: cfg, logger: logger.Component(l, "sqlsource")}
}

// Query runs query against connection and returns the result set
func (e *DBExecutor) Query(ctx context.Context, query, connection string) (*table.Table, error) {
	if connection == "" {
		connection = e.cfg.Connection
	}
	conn, err := ParseConnection(connection)
	if err != nil {
		return nil, err
	}
	if e.cfg.Driver != "" {
		if conn.Driver, err = NormalizeDriver(e.cfg.Driver); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(conn.Driver, conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conn.Driver, err)
	}
	defer db.Close()
	if e.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(e.cfg.MaxOpenConns)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	t, err := FromRows(rows)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query complete",
		zap.String("driver", conn.Driver),
		zap.Int("rows", t.NumRows()),
		zap.Duration("duration", time.Since(start)))
	return t, nil
}

// FromRows drains rows into a table. Columns whose cells all arrive as raw
// bytes (text protocols) are inferred like text files; other columns are
// inferred from the scanned Go values.
func FromRows(rows Rows) (*table.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	cells := make([][]interface{}, len(names))
	dest := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		for i := range dest {
			dest[i] = nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range dest {
			cells[i] = append(cells[i], scanned(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	names = table.UniqueNames(names)
	columns := make([]*table.Column, len(names))
	for i, name := range names {
		columns[i] = columnFrom(name, cells[i])
	}
	return table.New(columns...)
}

// scanned copies driver-owned bytes and renders times as ISO-8601 text.
func scanned(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return rawText(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}

// rawText marks a cell that arrived as bytes
type rawText string

func columnFrom(name string, values []interface{}) *table.Column {
	allText := true
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := v.(rawText); !ok {
			allText = false
			break
		}
	}

	if allText {
		text := make([]*string, len(values))
		for i, v := range values {
			if v != nil {
				s := string(v.(rawText))
				text[i] = &s
			}
		}
		return table.FromText(name, text)
	}

	for i, v := range values {
		if s, ok := v.(rawText); ok {
			values[i] = string(s)
		}
	}
	return table.FromValues(name, values)
}
