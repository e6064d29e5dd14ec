package rdbms

import (
	"database/sql"
	"fmt"

	_ "github.com/IBM/nzgo/v12"
	_ "github.com/denisenkom/go-mssqldb"
	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	"github.com/xo/dburl"
)

// supportedDsnConnectionTypes is a map where keys are the supported connections based on values in module constants.
// Snowflake and Netezza connections are handled explicitly so do not need to be here.
var supportedDsnConnectionTypes = map[string]struct{}{
	constants.ConnectionTypeSqlServer: {},
}

// isSupportedConnection returns true if it can look up the supplied connection type t in map of supported
// connections supportedDsnConnectionTypes.
func isSupportedConnection(connectionType string) bool {
	_, ok := supportedDsnConnectionTypes[connectionType]
	return ok
}

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
func OpenDbConnection(log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details in c.Data!
	switch c.Type {
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeNetezza:
		db, err = newNetezzaConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeMock:
		db, _ = shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeMock)
	default:
		if isSupportedConnection(c.Type) { // if the connection type supports generic DSN handling...
			db, err = newConnectionWithDsn(log, shared.GetDsnConnectionDetails(&c))
		} else { // else we have an unsupported database...
			err = fmt.Errorf("unsupported database type, %q", c.Type)
		}
	}
	return
}

func newConnectionWithDsn(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening database connection: ", d)
	u, err := dburl.Parse(d.Dsn)
	if err != nil { // if the DSN could not be parsed...
		return nil, fmt.Errorf("error parsing DSN %q: %w", d.Dsn, err)
	}
	// Create the new Connector.
	conn := &shared.SqlConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: u.OriginalScheme,
	}
	// Open the connection.
	conn.DbSql, err = sql.Open(u.Driver, u.DSN)
	if err != nil {
		return nil, err
	}
	// Test the connection.
	err = conn.DbSql.Ping()
	if err != nil {
		return nil, err
	}
	log.Info("Successful connection to: ", d)
	return conn, nil
}

// newNetezzaConnection opens the Netezza database connection specified in d.
func newNetezzaConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	conn := &shared.SqlConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: constants.ConnectionTypeNetezza,
	}
	var err error
	var dsn string
	n := shared.NetezzaConnectionDetails{Dsn: d.Dsn}
	if dsn, err = n.GetNzgoConnectionString(); err != nil {
		return nil, err
	}
	if conn.DbSql, err = sql.Open("nzgo", dsn); err != nil {
		return nil, err
	}
	err = conn.DbSql.Ping()
	if err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to Netezza.")
	return conn, nil
}
