package cmd

import (
	"github.com/lakepipe/lakepipe/actions"
	"github.com/spf13/cobra"
)

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Inspect saved ingest watermarks",
	Long: `Inspect the watermark positions saved per source-system and entity, which drive the
incremental extracts of the ingest actions.`,
}

var watermarkListCfg = actions.WatermarkListConfig{}

var watermarkListCmd = &cobra.Command{
	Use:   "list <target-connection>[.<schema>.<table>]",
	Short: "Print the saved watermark for every source-system and entity",
	Long: `Print all saved watermark positions found in the watermark table on the given
connection. Supply the optional schema and table name to read a non-default
watermark table.`,
	Args: getConnectionArgsFunc(&watermarkListCfg.TargetString, "requires target <connection>[.<schema>.<table>]"),
	RunE: func(cmd *cobra.Command, args []string) error {
		watermarkListCfg.Connections = getConnectionLoader()
		watermarkListCfg.StackDumpOnPanic = stackDumpOnPanic
		cmd.SilenceUsage = true
		return actions.RunWatermarkList(&watermarkListCfg)
	},
}

func init() {
	rootCmd.AddCommand(watermarkCmd)
	watermarkCmd.AddCommand(watermarkListCmd)
	watermarkListCmd.Flags().SortFlags = false
	switches.addFlag(watermarkListCmd, &watermarkListCfg.LogLevel, "log-level", "error", false, "")
}
