package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/rdbms"
)

// ddlTypesT holds the concrete column types a target database uses for the fixed
// dimension and watermark table columns.
type ddlTypesT struct {
	timestampType string
	booleanType   string
	varcharType   string
}

// ddlTypes is keyed by connection type, matching shared.ConnectionDetails -> Type.
var ddlTypes = map[string]ddlTypesT{
	constants.ConnectionTypeSnowflake: {
		timestampType: "timestamp_tz",
		booleanType:   "number(1)",
		varcharType:   "varchar",
	},
	constants.ConnectionTypeSqlServer: {
		timestampType: "datetime2",
		booleanType:   "bit",
		varcharType:   "varchar(255)",
	},
	constants.ConnectionTypeNetezza: {
		timestampType: "timestamp",
		booleanType:   "byteint",
		varcharType:   "varchar(255)",
	},
	constants.ConnectionTypeMock: {
		timestampType: "timestamp",
		booleanType:   "number(1)",
		varcharType:   "varchar",
	},
}

func getDdlTypes(databaseType string) (ddlTypesT, error) {
	t, ok := ddlTypes[databaseType]
	if !ok { // if we do not support the database type...
		return ddlTypesT{}, fmt.Errorf("unable to generate DDL for unsupported database type: %q", databaseType)
	}
	return t, nil
}

// GenerateDimensionTableDDL returns a CREATE TABLE statement for a dimension table
// holding versioned rows: the fixed columns surrogate_key, natural_key, valid_from,
// valid_to and is_active followed by the supplied attribute columns.
// Attribute columns take the target's varchar variant.
func GenerateDimensionTableDDL(databaseType string, schemaTable rdbms.SchemaTable, attrCols []string) (string, error) {
	t, err := getDdlTypes(databaseType)
	if err != nil {
		return "", err
	}
	if schemaTable.SchemaTable == "" {
		return "", fmt.Errorf("unable to generate dimension table DDL for an empty table name")
	}
	fields := []string{
		fmt.Sprintf("%v %v not null", constants.SurrogateKeyColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.NaturalKeyColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.ValidFromColumn, t.timestampType),
		fmt.Sprintf("%v %v not null", constants.ValidToColumn, t.timestampType),
		fmt.Sprintf("%v %v not null", constants.IsActiveColumn, t.booleanType),
	}
	for _, col := range attrCols { // for each attribute column...
		fields = append(fields, fmt.Sprintf("%v %v", col, t.varcharType))
	}
	fields = append(fields, fmt.Sprintf("primary key (%v)", constants.SurrogateKeyColumn))
	return fmt.Sprintf("CREATE TABLE %v ( %v )", schemaTable.SchemaTable, strings.Join(fields, ", ")), nil
}

// GenerateWatermarkTableDDL returns a CREATE TABLE statement for the watermark table.
// One row exists per (source_system, entity) holding the committed position in its
// string form and the position type tag.
func GenerateWatermarkTableDDL(databaseType string, schemaTable rdbms.SchemaTable) (string, error) {
	t, err := getDdlTypes(databaseType)
	if err != nil {
		return "", err
	}
	if schemaTable.SchemaTable == "" {
		schemaTable.SchemaTable = constants.WatermarkTableDefault
	}
	fields := []string{
		fmt.Sprintf("%v %v not null", constants.WatermarkSourceColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.WatermarkEntityColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.WatermarkPositionColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.WatermarkTypeColumn, t.varcharType),
		fmt.Sprintf("%v %v not null", constants.WatermarkUpdatedAtColumn, t.timestampType),
		fmt.Sprintf("primary key (%v, %v)", constants.WatermarkSourceColumn, constants.WatermarkEntityColumn),
	}
	return fmt.Sprintf("CREATE TABLE %v ( %v )", schemaTable.SchemaTable, strings.Join(fields, ", ")), nil
}
