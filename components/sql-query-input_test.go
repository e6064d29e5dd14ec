package components

import (
	"testing"
	"time"

	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
)

// TestNewSqlQueryWithArgsUsesMockConnection confirms the component sends its SQL to the
// connection and closes the output channel when the (empty) result set is drained.
func TestNewSqlQueryWithArgsUsesMockConnection(t *testing.T) {
	log := logger.NewLogger("sql query input test", "error", true)
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "sqlserver")
	sqltext := "select product_code, price from dbo.products"
	outputChan, _ := NewSqlQueryWithArgs(&SqlQueryWithArgsConfig{
		Log:     log,
		Name:    "test sql query input",
		Db:      db,
		Sqltext: sqltext,
	})
	// The mock returns nil rows so the component should produce nothing and close cleanly.
	rowCount := 0
	timeout := time.After(3 * time.Second)
	for {
		exit := false
		select {
		case _, ok := <-outputChan:
			if !ok { // if the channel was closed...
				exit = true
			} else {
				rowCount++
			}
		case <-timeout:
			t.Fatal("timed out waiting for the output channel to close")
		}
		if exit {
			break
		}
	}
	if rowCount != 0 {
		t.Fatalf("expected 0 rows from the mock connection, got %v", rowCount)
	}
	// Assert the executed SQL was captured by the mock.
	select {
	case got := <-resultChan:
		if got != sqltext {
			t.Fatalf("expected SQL %q to be executed, got %q", sqltext, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the executed SQL")
	}
}
