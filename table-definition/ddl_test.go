package tabledefinition

import (
	"testing"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/rdbms"
)

func TestGenerateDimensionTableDDL(t *testing.T) {
	st := rdbms.SchemaTable{SchemaTable: "silver.dim_product"}

	// Test 1 - Snowflake DDL with attribute columns.
	got, err := GenerateDimensionTableDDL(constants.ConnectionTypeSnowflake, st, []string{"price", "name"})
	if err != nil {
		t.Fatal("test 1 - unexpected error generating dimension DDL: ", err)
	}
	expected := "CREATE TABLE silver.dim_product ( " +
		"surrogate_key varchar not null, " +
		"natural_key varchar not null, " +
		"valid_from timestamp_tz not null, " +
		"valid_to timestamp_tz not null, " +
		"is_active number(1) not null, " +
		"price varchar, " +
		"name varchar, " +
		"primary key (surrogate_key) )"
	if got != expected {
		t.Fatalf("test 1 - expected DDL: '%v'; got: '%v'", expected, got)
	}

	// Test 2 - SQL Server types differ.
	got, err = GenerateDimensionTableDDL(constants.ConnectionTypeSqlServer, st, nil)
	if err != nil {
		t.Fatal("test 2 - unexpected error generating dimension DDL: ", err)
	}
	expected = "CREATE TABLE silver.dim_product ( " +
		"surrogate_key varchar(255) not null, " +
		"natural_key varchar(255) not null, " +
		"valid_from datetime2 not null, " +
		"valid_to datetime2 not null, " +
		"is_active bit not null, " +
		"primary key (surrogate_key) )"
	if got != expected {
		t.Fatalf("test 2 - expected DDL: '%v'; got: '%v'", expected, got)
	}

	// Test 3 - an empty table name is an error.
	_, err = GenerateDimensionTableDDL(constants.ConnectionTypeSnowflake, rdbms.SchemaTable{}, nil)
	if err == nil {
		t.Fatal("test 3 - expected an error for an empty table name but got none")
	}

	// Test 4 - an unsupported database type is an error.
	_, err = GenerateDimensionTableDDL("unregisteredDatabaseType123", st, nil)
	if err == nil {
		t.Fatal("test 4 - expected an error for an unsupported database type but got none")
	}
}

func TestGenerateWatermarkTableDDL(t *testing.T) {
	// Test 1 - Netezza DDL with the default table name.
	got, err := GenerateWatermarkTableDDL(constants.ConnectionTypeNetezza, rdbms.SchemaTable{})
	if err != nil {
		t.Fatal("test 1 - unexpected error generating watermark DDL: ", err)
	}
	expected := "CREATE TABLE lp_watermarks ( " +
		"source_system varchar(255) not null, " +
		"entity varchar(255) not null, " +
		"position varchar(255) not null, " +
		"position_type varchar(255) not null, " +
		"updated_at timestamp not null, " +
		"primary key (source_system, entity) )"
	if got != expected {
		t.Fatalf("test 1 - expected DDL: '%v'; got: '%v'", expected, got)
	}

	// Test 2 - a supplied table name overrides the default.
	got, err = GenerateWatermarkTableDDL(constants.ConnectionTypeSnowflake, rdbms.SchemaTable{SchemaTable: "meta.watermarks"})
	if err != nil {
		t.Fatal("test 2 - unexpected error generating watermark DDL: ", err)
	}
	if got[:28] != "CREATE TABLE meta.watermarks" {
		t.Fatalf("test 2 - expected DDL for meta.watermarks; got: '%v'", got)
	}

	// Test 3 - an unsupported database type is an error.
	_, err = GenerateWatermarkTableDDL("unregisteredDatabaseType123", rdbms.SchemaTable{})
	if err == nil {
		t.Fatal("test 3 - expected an error for an unsupported database type but got none")
	}
}
