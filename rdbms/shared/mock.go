package shared

import (
	"context"
	"database/sql"

	"github.com/lakepipe/lakepipe/logger"
)

// NewMockConnectionWithMockTx returns a Connector whose executed SQL statements are sent
// to the returned channel so tests can assert on generated DML. Queries return nil row
// sets, which readers treat as zero rows.
func NewMockConnectionWithMockTx(log logger.Logger, dbType string) (Connector, chan string) {
	resultChan := make(chan string, 100)
	return &MockConnectionWithMockTx{log: log, dbType: dbType, resultChan: resultChan}, resultChan
}

type MockConnectionWithMockTx struct {
	log        logger.Logger
	dbType     string
	resultChan chan string
	// DbHasBeenClosed allows tests to assert that a component closed the connection.
	DbHasBeenClosed bool
}

func (c *MockConnectionWithMockTx) Begin() (Transacter, error) {
	c.log.Debug("mock connection Begin()")
	return &MockTx{log: c.log, resultChan: c.resultChan}, nil
}

func (c *MockConnectionWithMockTx) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *MockConnectionWithMockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.log.Debug("mock connection Exec: ", query)
	c.resultChan <- query
	return MockResult{}, nil
}

func (c *MockConnectionWithMockTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *MockConnectionWithMockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.log.Debug("mock connection Query: ", query)
	c.resultChan <- query
	return nil, nil // callers treat nil rows as an empty result set.
}

func (c *MockConnectionWithMockTx) Close() {
	c.DbHasBeenClosed = true
	close(c.resultChan)
}

func (c *MockConnectionWithMockTx) GetType() string {
	return c.dbType
}

func (c *MockConnectionWithMockTx) GetDmlGenerator() DmlGenerator {
	return &DmlGeneratorTxtBatch{}
}

type MockTx struct {
	log        logger.Logger
	resultChan chan string
}

func (t *MockTx) Prepare(query string) (Statement, error) {
	return t.PrepareContext(context.Background(), query)
}

func (t *MockTx) PrepareContext(ctx context.Context, query string) (Statement, error) {
	return &MockStmt{log: t.log, query: query, resultChan: t.resultChan}, nil
}

func (t *MockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *MockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	t.log.Debug("mock tx Exec: ", query)
	t.resultChan <- query
	return MockResult{}, nil
}

func (t *MockTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	t.resultChan <- query
	return nil, nil
}

func (t *MockTx) Commit() error {
	t.log.Debug("mock tx Commit()")
	return nil
}

func (t *MockTx) Rollback() error {
	t.log.Debug("mock tx Rollback()")
	return nil
}

type MockStmt struct {
	log        logger.Logger
	query      string
	resultChan chan string
}

func (s *MockStmt) Close() error {
	return nil
}

func (s *MockStmt) Exec(args ...interface{}) (Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *MockStmt) ExecContext(ctx context.Context, args ...interface{}) (Result, error) {
	s.log.Debug("mock stmt Exec: ", s.query)
	s.resultChan <- s.query
	return MockResult{}, nil
}

type MockResult struct{}

func (MockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (MockResult) RowsAffected() (int64, error) {
	return 0, nil
}
