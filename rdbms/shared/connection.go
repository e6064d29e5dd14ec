package shared

import (
	"context"
	"database/sql"
)

// SqlConnection wraps a native sql.DB with the DmlGenerator used by components that
// output records to a database.
type SqlConnection struct {
	DbSql  *sql.DB
	Dml    DmlGenerator
	DbType string
}

// Connector:

func (c *SqlConnection) Begin() (Transacter, error) {
	tx, err := c.DbSql.Begin()
	return &SqlTx{tx: tx}, err
}

func (c *SqlConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *SqlConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *SqlConnection) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.DbSql.QueryContext(context.Background(), query, args...)
}

func (c *SqlConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DbSql.QueryContext(ctx, query, args...)
}

func (c *SqlConnection) Close() {
	_ = c.DbSql.Close()
}

func (c *SqlConnection) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *SqlConnection) GetType() string {
	return c.DbType
}

// Transacter:

type SqlTx struct {
	tx *sql.Tx
}

func (t *SqlTx) Prepare(query string) (Statement, error) {
	return t.PrepareContext(context.Background(), query)
}

func (t *SqlTx) PrepareContext(ctx context.Context, query string) (Statement, error) {
	s, err := t.tx.PrepareContext(ctx, query)
	return &SqlStmt{stmt: s}, err
}

func (t *SqlTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *SqlTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *SqlTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.Query(query, args...)
}

func (t *SqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *SqlTx) Rollback() error {
	return t.tx.Rollback()
}

// Statement:

type SqlStmt struct {
	stmt *sql.Stmt
}

func (s *SqlStmt) Close() error {
	return s.stmt.Close()
}

func (s *SqlStmt) Exec(args ...interface{}) (Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *SqlStmt) ExecContext(ctx context.Context, args ...interface{}) (Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}
