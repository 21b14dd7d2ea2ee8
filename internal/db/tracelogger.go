package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// traceConnector opens the sqlite3 driver and wraps every connection so each
// statement is logged at debug level before it runs. Use sql.OpenDB with it;
// opening through the bare driver is not supported.
type traceConnector struct {
	dsn    string
	logger *slog.Logger
}

// NewTraceConnector returns a driver.Connector that logs every statement and
// its arguments. If logger is nil, slog.Default() is used.
func NewTraceConnector(dsn string, logger *slog.Logger) driver.Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &traceConnector{dsn: dsn, logger: logger}
}

func (c *traceConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &traceConn{conn: conn, logger: c.logger}, nil
}

func (c *traceConnector) Driver() driver.Driver { return traceDriver{} }

type traceDriver struct{}

func (traceDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("sqlite trace: use sql.OpenDB(NewTraceConnector(...))")
}

type traceConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

func (c *traceConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &traceStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *traceConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if prep, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err := prep.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &traceStmt{stmt: stmt, query: query, logger: c.logger}, nil
	}
	return c.Prepare(query)
}

func (c *traceConn) Close() error { return c.conn.Close() }

func (c *traceConn) Begin() (driver.Tx, error) {
	//nolint:staticcheck // SA1019 – needed when the conn lacks ConnBeginTx
	return c.conn.Begin()
}

func (c *traceConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 – fallback when the conn lacks ConnBeginTx
	return c.conn.Begin()
}

type traceStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

func (s *traceStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.log("exec", args)
	//nolint:staticcheck // SA1019 – needed when the stmt lacks StmtExecContext
	return s.stmt.Exec(args)
}

func (s *traceStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.log("exec", args)
	if execCtx, ok := s.stmt.(driver.StmtExecContext); ok {
		return execCtx.ExecContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 – fallback when the stmt lacks StmtExecContext
	return s.stmt.Exec(namedToValues(args))
}

func (s *traceStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.log("query", args)
	//nolint:staticcheck // SA1019 – needed when the stmt lacks StmtQueryContext
	return s.stmt.Query(args)
}

func (s *traceStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.log("query", args)
	if queryCtx, ok := s.stmt.(driver.StmtQueryContext); ok {
		return queryCtx.QueryContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 – fallback when the stmt lacks StmtQueryContext
	return s.stmt.Query(namedToValues(args))
}

func (s *traceStmt) Close() error { return s.stmt.Close() }

func (s *traceStmt) NumInput() int {
	if n, ok := s.stmt.(interface{ NumInput() int }); ok {
		return n.NumInput()
	}
	return -1
}

func (s *traceStmt) log(op string, args any) {
	s.logger.Debug("sql", "op", op, "sql", s.query, "args", fmt.Sprint(args))
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}
