package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2020-01-02T03:04+0500"
	osArch           = "darwin"
	stackDumpOnPanic bool
	silenceUsage     bool
)

var rootCmd = &cobra.Command{
	Use: "lp",
	Long: `
.____          __            __________.__
|    |   _____ |  | __ ____  \______   \__|_____   ____
|    |   \__  \|  |/ // __ \  |     ___/  \____ \_/ __ \
|    |___ / __ \    <\  ___/  |    |   |  |  |_> >  ___/
|_______ (____  /__|_ \\___  > |____|   |__|   __/ \___  >
        \/    \/     \/    \/              |__|        \/

Lakepipe is a DataOps utility for incremental warehouse loading. Describe an ingest in
YAML or JSON and it extracts only the rows changed since the saved watermark, merges
dimension history as versioned rows and loads facts with point-in-time surrogate keys.
Start an HTTP server to expose functionality via a RESTful API.
Lakepipe is not yet cluster-aware but it scales out. Start multiple instances of this
tool and off you go. Happy munging! 😄`,
}

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(func() error { return execute12FactorMode(twelveFactorActions) })
		} else {
			if err := execute12FactorMode(twelveFactorActions); err != nil {
				// execute12FactorMode prints the error.
				os.Exit(1)
			}
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
