package cmd

import (
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate helpful metadata",
	Long: `Generate DDL for the following:

- Dimension tables with versioned history columns
- Watermark tables that track ingest positions
`,
}

func init() {
	rootCmd.AddCommand(createCmd)
}
