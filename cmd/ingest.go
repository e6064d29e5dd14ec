package cmd

import (
	"fmt"

	"github.com/lakepipe/lakepipe/actions"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: `Run watermark-tracked ingest batches described in YAML or JSON spec files`,
	Long: `Run one watermark-tracked ingest batch from a source table into a warehouse target:

- Extract only the rows changed since the saved watermark
- Merge dimension changes as versioned history rows with validity intervals
- Load fact rows with surrogate keys resolved point-in-time against their dimensions
- The watermark only advances after the target transaction commits
- Optionally refresh data without a scheduler, loop with a timer
`,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	initIngestDim()
	initIngestFact()
}

func initIngestDim() {
	ingestCmd.AddCommand(ingestDimCmd)
	ingestDimCmd.Flags().SortFlags = false
	addFlagsIngestCore(ingestDimCmd, &ingestDimCfg)
}

func initIngestFact() {
	ingestCmd.AddCommand(ingestFactCmd)
	ingestFactCmd.Flags().SortFlags = false
	addFlagsIngestCore(ingestFactCmd, &ingestFactCfg)
}

// DIMENSION SETUP

var ingestDimCfg = actions.IngestConfig{}
var ingestDimCmd = &cobra.Command{
	Use:   "dim",
	Short: "Merge source changes into a dimension table with versioned history",
	Long: fmt.Sprintf(`Extract rows changed since the saved watermark and merge them into a target
dimension table as versioned history rows:

- Each natural key has exactly one active version at any time
- Changed records close the active version and open a new one
- Records that cannot be merged are quarantined, never fatal to the batch
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedDimIngestConnectionTypes()),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngestDim()
	},
}

func runIngestDim() error {
	ingestDimCfg.Connections = getConnectionLoader()
	ingestDimCfg.StackDumpOnPanic = stackDumpOnPanic
	// Get connection types.
	sourceType, targetType, err := actions.GetIngestConnectionTypes(&ingestDimCfg)
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&ingestDimCfg, actions.GetIngestDimAction, sourceType, targetType)
}

// FACT SETUP

var ingestFactCfg = actions.IngestConfig{}
var ingestFactCmd = &cobra.Command{
	Use:   "fact",
	Short: "Append source rows to a fact table with point-in-time surrogate keys",
	Long: fmt.Sprintf(`Extract rows changed since the saved watermark and append them to a target
fact table:

- Natural keys are swapped for the surrogate key of the dimension version that was
  active at each record's effective time
- Unresolvable keys fall back to the dimension's unknown member
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedFactIngestConnectionTypes()),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngestFact()
	},
}

func runIngestFact() error {
	ingestFactCfg.Connections = getConnectionLoader()
	ingestFactCfg.StackDumpOnPanic = stackDumpOnPanic
	// Get connection types.
	sourceType, targetType, err := actions.GetIngestConnectionTypes(&ingestFactCfg)
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&ingestFactCfg, actions.GetIngestFactAction, sourceType, targetType)
}

// ALL INGEST FLAGS

func addFlagsIngestCore(c *cobra.Command, cfg *actions.IngestConfig) {
	switches.addFlag(c, &cfg.SpecFile, "file", "", true, "")
	_ = c.MarkFlagFilename("file", "json", "yaml")
	switches.addFlag(c, &cfg.LogLevel, "log-level", "warn", false, "")
	switches.addFlag(c, &cfg.ExportSpecType, "output", "", false, "")
	switches.addFlag(c, &cfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
}
