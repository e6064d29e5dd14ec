package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/lakepipe/lakepipe/actions"
	"github.com/lakepipe/lakepipe/aws/s3"
	"github.com/lakepipe/lakepipe/config"
	c "github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	"github.com/xo/dburl"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can do the job of processing all environment variables that would contain equivalent of the CLI flag
// structures used by Lakepipe's actions.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		if strings.ToLower(mode) == "lambda" {
			lambdaMode = true
		}
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
	}
}

const (
	envVarTwelveFactorMode      = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand               = c.EnvVarPrefix + "_" + "COMMAND"
	envVarSubcommand            = c.EnvVarPrefix + "_" + "SUBCOMMAND"
	envVarSpecJson              = c.EnvVarPrefix + "_" + "SPEC_JSON"   // inline ingest spec JSON, used instead of a spec file.
	envVarSourceType            = c.EnvVarPrefix + "_" + "SOURCE_TYPE" // sqlserver|snowflake|etc
	envVarSourceS3Region        = c.EnvVarPrefix + "_" + "SOURCE_S3_REGION"
	envVarTargetType            = c.EnvVarPrefix + "_" + "TARGET_TYPE" // sqlserver|snowflake|etc
	envVarTargetS3Region        = c.EnvVarPrefix + "_" + "TARGET_S3_REGION"
	envVarLogLevel              = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump             = c.EnvVarPrefix + "_" + "STACK_DUMP"
	defaultConnectionNameSource = "SOURCE"
	defaultConnectionNameTarget = "TARGET"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if os env var envVarTwelveFactorMode is set to "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:    "",
		envVarSubcommand: "",
		envVarSpecJson:   "",
		// Source
		envVarSourceType: "",
		helper.GetDsnEnvVarName(defaultConnectionNameSource): "",
		envVarSourceS3Region: "",
		// Target
		envVarTargetType: "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
		envVarTargetS3Region: "",
		// Misc
		envVarLogLevel:  "",
		envVarStackDump: "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName(defaultConnectionNameSource): "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(specJson string)
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"ingest-dim": {
		setupFunc: func(specJson string) {
			ingestDimCfg.SpecJson = specJson
		},
		runnerFunc: runIngestDim,
	},
	"ingest-fact": {
		setupFunc: func(specJson string) {
			ingestFactCfg.SpecJson = specJson
		},
		runnerFunc: runIngestFact,
	},
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	} else {
		return config.Connections
	}
}

func getConnectionGetterSetter() actions.ConnectionGetterSetter {
	if twelveFactorMode {
		fmt.Printf("Error: connections cannot be configured when %v is set (supply them using %v and %v instead)",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName("<source-connection-name>"),
			helper.GetDsnEnvVarName("<target-connection-name>"))
		os.Exit(1)
	}
	return config.Connections
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn") // fetch logLevel from env as this is not a persistent flag, given that we wanted different logging defaults per cobra action.
	log := logger.NewLogger("lakepipe", logLevel, stackDumpOnPanic)
	log.Info("Lakepipe is running in 12 Factor mode...")
	// Save values for the required variables.
	// TODO: add validation of supplied env variables - perhaps using a map[string]MyStructWithValidationData.
	for k := range twelveFactorVars { // for each env variable that we need...
		// Save it and log it.
		twelveFactorVars[k] = os.Getenv(k)
		_, sensitive := twelveFactorVarsSensitive[k]
		if !sensitive { // if the env variable does not contain sensitive values...
			// Log the value.
			log.Debug(k, "=", twelveFactorVars[k])
		} else { // else output obfuscated value...
			log.Debug(k, "=", "<obfuscated>")
		}
	}
	// Use command and subcommand to fetch the appropriate action.
	action := fmt.Sprintf("%v-%v", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
	a, ok := acts[action]
	if !ok {
		err = fmt.Errorf("invalid combination of command (%v) and subcommand (%v)", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
		log.Error(err.Error())
		return
	}
	// Setup the inline spec JSON, as Cobra would have set the spec file flag from CLI args.
	a.setupFunc(twelveFactorVars[envVarSpecJson])
	// Run the action.
	err = a.runnerFunc()
	if err != nil {
		log.Error("Error: ", err)
	}
	return err
}

type TwelveFactorConnections struct{} // implements interfaces in module, actions.

// GetConnectionType is for use when running in twelveFactorMode.
// It returns the value of envVarSourceType or envVarTargetType based on the supplied connectionName,
//  where connectionName is expected to be either defaultConnectionNameSource or defaultConnectionNameTarget.
// It reads the environment directly so that an action can run before execute12FactorMode has
// populated the global map twelveFactorVars[].
func (t *TwelveFactorConnections) GetConnectionType(connectionName string) (connectionType string, err error) {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	if n == defaultConnectionNameSource {
		if err = helper.ReadValueFromEnv(envVarSourceType, &connectionType); err != nil {
			err = fmt.Errorf("missing value for %v", envVarSourceType)
		}
	} else if n == defaultConnectionNameTarget {
		if err = helper.ReadValueFromEnv(envVarTargetType, &connectionType); err != nil {
			err = fmt.Errorf("missing value for %v", envVarTargetType)
		}
	} else {
		err = fmt.Errorf("unexpected connectionName %v while running in twelveFactorMode", connectionName)
	}
	connectionType = strings.TrimSpace(strings.ToLower(connectionType)) // sanitise the type.
	return
}

// LoadConnection loads a connection DSN from the environment, parses it based on the type set in
// the environment and returns the shared.ConnectionDetails.
// This mimics functionality whereby connection details are loaded from JSON config file, but reads
// info from the environment instead.
// This is used by the ingest actions since the spec file names connections without their details.
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	var kDsn, vDsn, vType string
	connectionDetails := shared.ConnectionDetails{
		LogicalName: connectionName,
		Data:        make(map[string]string),
	}
	// Fetch connection info from the environment based on the connection name.
	kDsn = helper.GetDsnEnvVarName(connectionName)
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil { // if we cannot find the DSN in the environment...
		return shared.ConnectionDetails{}, fmt.Errorf("unable to find value for %v in the environment: %w", kDsn, err)
	}
	// Fetch connection type from the environment based on the connection name.
	vType, err := t.GetConnectionType(connectionName)
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	connectionDetails.Type = vType
	// Parse the connection based on the type.
	switch vType { // switch on the connection type...
	case c.ConnectionTypeSnowflake: // if the user wants Snowflake connection details...
		_, err := rdbms.SnowflakeParseDSN(vDsn)
		if err != nil { // if the DSN was invalid...
			return shared.ConnectionDetails{}, err
		}
		connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
	case c.ConnectionTypeS3: // if the user wants S3 bucket details...
		// Fetch bucket region from the environment.
		var vRegion string
		kRegion := helper.GetRegionEnvVarName(connectionName)
		if err := helper.ReadValueFromEnv(kRegion, &vRegion); err != nil { // if we cannot find the bucket region in the environment...
			// TODO: log this correctly instead of fmt.
			fmt.Printf("bucket region not found in environment variable %v\n", kRegion)
		}
		cn, err := s3.ParseDSN(vDsn, vRegion)
		if err != nil { // if the DSN was invalid...
			return shared.ConnectionDetails{}, err
		}
		connectionDetails.Data = s3.AwsBucketToMap(connectionDetails.Data, cn)
	default: // fallback to the DSN connection type.
		if actions.IsSupportedConnectionType(vType) { // if the original scheme is supported...
			_, err := dburl.Parse(vDsn)
			if err != nil { // if the DSN was invalid...
				return shared.ConnectionDetails{}, err
			}
			// Save the connection data.
			connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
		} else {
			return shared.ConnectionDetails{}, fmt.Errorf("unsupported connection type %q for DSN %q", vType, vDsn)
		}
	}
	return connectionDetails, nil
}
