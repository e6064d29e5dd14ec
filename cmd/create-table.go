package cmd

import (
	"fmt"

	"github.com/lakepipe/lakepipe/actions"
	"github.com/spf13/cobra"
)

var createTableCfg = actions.CreateTableConfig{}

var createTableCmd = &cobra.Command{
	Use:   "table <target-connection>.[<schema>.]<table>",
	Short: "Generate DDL for a dimension or watermark table in the target database dialect",
	Long: `Generate CREATE TABLE DDL for a dimension or watermark table, using the SQL dialect
of the target connection:

- Dimension tables carry the surrogate key, natural key, validity interval and active flag
- Watermark tables carry one saved position per source-system and entity
- Print the DDL by default or execute it directly against the target connection
`,
	Args: getConnectionArgsFunc(&createTableCfg.TargetString, "requires target <connection>.[<schema>.]<table>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateTable()
	},
}

func runCreateTable() error {
	createTableCfg.Connections = getConnectionLoader()
	createTableCfg.StackDumpOnPanic = stackDumpOnPanic
	return actions.RunCreateTable(&createTableCfg)
}

func init() {
	createCmd.AddCommand(createTableCmd)
	createTableCmd.Flags().SortFlags = false
	switches.addFlag(createTableCmd, &createTableCfg.TableType, "table-type", fmt.Sprintf("%v", actions.TableTypeDimension), false, "")
	switches.addFlag(createTableCmd, &createTableCfg.AttrCols, "attr-cols", "", false, "")
	switches.addFlag(createTableCmd, &createTableCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(createTableCmd, &createTableCfg.LogLevel, "log-level", "error", false, "")
}
