package actions

import (
	"fmt"
	"reflect"

	"github.com/lakepipe/lakepipe/constants"
)

type Action struct {
	FnAction   func(actionCfg interface{}) error                         // the function to execute the action
	ActionCfg  interface{}                                               // the config struct to pass to the FnAction
	FnSetupCfg func(genericCfg interface{}, actionCfg interface{}) error // the function to convert generic cfg to action-specific config for the FnAction
}

// ActionLauncher will:
// 1) call the function fnActionGetter to find the Action{} based on the sourceType and targetType strings supplied.
// 2) Once it has the Action{}, it calls setup function Action.FnSetupCfg() to populate Action.ActionCfg{}.
// 3) Then it can start the action by calling Action.FnAction().
// TODO: consider moving use of fnActionGetter out to the caller such that the caller supplies a fn(void) to call all
//  preconfigured ready to go.
func ActionLauncher(
	cfg interface{},
	fnActionGetter func(sourceType string, targetType string) (Action, error),
	sourceType string,
	targetType string) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to config in variable cfg to be supplied to ActionLauncher")
	}
	// Fetch the action.
	a, err := fnActionGetter(sourceType, targetType)
	if err != nil {
		return err
	}
	// Populate the action's config struct using the generic.
	if err = a.FnSetupCfg(cfg, a.ActionCfg); err != nil {
		return err
	}
	// Run the action.
	return a.FnAction(a.ActionCfg)
}

// ActionFuncs is a register of all supported actions.
// Note that keys in the final map[string]Action are used to validate DSN-type database connections before
// they are added. See RunConnectionAdd().
var ActionFuncs = map[string]map[string]map[string]Action{
	constants.ActionFuncsCommandIngest: { // command...
		constants.ActionFuncsSubCommandDimension: { // subcommand...
			// Dimension merges need watermark arithmetic against the source delta column so the
			// source must be a real database; the target holds the dimension and watermark tables.
			"sqlserver-sqlserver": Action{FnAction: RunDimensionIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"sqlserver-snowflake": Action{FnAction: RunDimensionIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"netezza-snowflake":   Action{FnAction: RunDimensionIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"snowflake-snowflake": Action{FnAction: RunDimensionIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"mock-mock":           Action{FnAction: RunDimensionIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
		},
		constants.ActionFuncsSubCommandFact: {
			// Fact loads resolve surrogate keys against dimension tables that live next to the
			// fact table, so the dimension targets match the dim subcommand above.
			"sqlserver-sqlserver": Action{FnAction: RunFactIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"sqlserver-snowflake": Action{FnAction: RunFactIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"netezza-snowflake":   Action{FnAction: RunFactIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"snowflake-snowflake": Action{FnAction: RunFactIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
			"mock-mock":           Action{FnAction: RunFactIngest, ActionCfg: &IngestConfig{}, FnSetupCfg: SetupIngest},
		},
	},
}

// GetIngestDimAction returns the "ingest dim" Action based on sourceType and targetTypes supplied.
func GetIngestDimAction(sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandIngest][constants.ActionFuncsSubCommandDimension][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported ingest dim action for source type %q and target type %q", sourceType, targetType)
	}
	return retval, nil
}

// GetIngestFactAction returns the "ingest fact" Action based on sourceType and targetTypes supplied.
func GetIngestFactAction(sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandIngest][constants.ActionFuncsSubCommandFact][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported ingest fact action for source type %q and target type %q", sourceType, targetType)
	}
	return retval, nil
}
