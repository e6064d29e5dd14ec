package actions

import (
	"fmt"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms"
	tabledefinition "github.com/lakepipe/lakepipe/table-definition"
)

// Table types that RunCreateTable can generate DDL for.
const (
	TableTypeDimension = "dimension"
	TableTypeWatermark = "watermark"
)

// CreateTableConfig is the config for the create-table action.
type CreateTableConfig struct {
	Connections      ConnectionLoader `errorTxt:"connections config" mandatory:"yes"`
	TargetString     ConnectionObject // <connection>.[<schema>.]<table>; the table is optional for watermark tables.
	TableType        string           `errorTxt:"table type (dimension or watermark)" mandatory:"yes"`
	AttrCols         string           // CSV of tracked attribute columns; dimension tables only.
	ExecuteDDL       bool             // execute the DDL against the connection instead of printing it.
	LogLevel         string           `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
}

// RunCreateTable generates the DDL for a dimension or watermark table in the dialect of the
// target connection, then prints it or executes it against the connection.
func RunCreateTable(cfg interface{}) error {
	c, ok := cfg.(*CreateTableConfig)
	if !ok {
		return fmt.Errorf("expected *CreateTableConfig in call to RunCreateTable")
	}
	log := logger.NewLogger("lakepipe", c.LogLevel, c.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return err
	}
	connectionName := c.TargetString.GetConnectionName()
	conn, err := c.Connections.LoadConnection(connectionName)
	if err != nil {
		return fmt.Errorf("unable to load connection %q: %v", connectionName, err)
	}
	if conn.Type == "" {
		return fmt.Errorf("connection %q is not configured: use 'config' command to create it", connectionName)
	}
	st := rdbms.SchemaTable{SchemaTable: c.TargetString.GetObject()}
	var ddl string
	switch c.TableType {
	case TableTypeDimension:
		if st.SchemaTable == "" {
			return fmt.Errorf("please supply a table name for the dimension table")
		}
		ddl, err = tabledefinition.GenerateDimensionTableDDL(conn.Type, st, helper.CsvToStringSliceTrimSpaces(c.AttrCols))
	case TableTypeWatermark:
		if st.SchemaTable == "" { // if no name was given, use the standard watermark table...
			st = rdbms.SchemaTable{SchemaTable: constants.WatermarkTableDefault}
		}
		ddl, err = tabledefinition.GenerateWatermarkTableDDL(conn.Type, st)
	default:
		return fmt.Errorf("unsupported table type %q: use %v or %v", c.TableType, TableTypeDimension, TableTypeWatermark)
	}
	if err != nil {
		return err
	}
	printLogFn := getPrintLogFunc(log, true)
	if !c.ExecuteDDL { // if we should print the DDL only...
		printLogFn(ddl)
		return nil
	}
	db, err := rdbms.OpenDbConnection(log, conn)
	if err != nil {
		return fmt.Errorf("unable to open connection %q: %v", connectionName, err)
	}
	defer db.Close()
	mustExecFn(log, printLogFn, func() error {
		_, err := db.Exec(ddl)
		return err
	})
	return nil
}
