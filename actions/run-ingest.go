package actions

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/dimension"
	"github.com/lakepipe/lakepipe/extract"
	"github.com/lakepipe/lakepipe/fact"
	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/pipeline"
	"github.com/lakepipe/lakepipe/rdbms"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	tabledefinition "github.com/lakepipe/lakepipe/table-definition"
	"github.com/lakepipe/lakepipe/watermark"
)

// IngestConfig is the generic config supplied by the CLI for ingest actions.
type IngestConfig struct {
	Connections               ConnectionLoader `errorTxt:"connections config" mandatory:"yes"`
	SpecFile                  string           // path to a YAML or JSON ingest spec file.
	SpecJson                  string           // inline JSON ingest spec; takes precedence over SpecFile.
	LogLevel                  string           `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	ExportSpecType            string // yaml or json: print the parsed spec to stdout and exit.
}

// SetupIngest copies the generic CLI config into the action config.
func SetupIngest(genericCfg interface{}, actionCfg interface{}) error {
	src, ok := genericCfg.(*IngestConfig)
	if !ok {
		return fmt.Errorf("expected *IngestConfig in call to SetupIngest")
	}
	tgt, ok := actionCfg.(*IngestConfig)
	if !ok {
		return fmt.Errorf("expected action config of type *IngestConfig in call to SetupIngest")
	}
	*tgt = *src
	return nil
}

// RunDimensionIngest runs one dimension ingest batch to completion: extract changes from
// the source since the saved watermark, merge them as versioned rows into the target
// dimension table and advance the watermark.
func RunDimensionIngest(cfg interface{}) error {
	c, ok := cfg.(*IngestConfig)
	if !ok {
		return fmt.Errorf("expected *IngestConfig in call to RunDimensionIngest")
	}
	return runIngest(c, false)
}

// RunFactIngest runs one fact ingest batch to completion: extract fact rows, resolve each
// configured dimension foreign key point-in-time and append the rows to the fact table.
func RunFactIngest(cfg interface{}) error {
	c, ok := cfg.(*IngestConfig)
	if !ok {
		return fmt.Errorf("expected *IngestConfig in call to RunFactIngest")
	}
	return runIngest(c, true)
}

// GetIngestConnectionTypes loads the spec named by cfg and returns the connection types of
// its source and target. The CLI uses these to look up the ingest action in the register.
func GetIngestConnectionTypes(cfg *IngestConfig) (sourceType string, targetType string, err error) {
	spec, err := loadIngestSpec(cfg)
	if err != nil {
		return "", "", err
	}
	src, err := cfg.Connections.LoadConnection(spec.Source.Connection)
	if err != nil {
		return "", "", errors.Wrapf(err, "unable to load connection %q", spec.Source.Connection)
	}
	tgt, err := cfg.Connections.LoadConnection(spec.Target.Connection)
	if err != nil {
		return "", "", errors.Wrapf(err, "unable to load connection %q", spec.Target.Connection)
	}
	return src.Type, tgt.Type, nil
}

func runIngest(cfg *IngestConfig, wantFact bool) error {
	log := logger.NewLogger("lakepipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	spec, err := loadIngestSpec(cfg)
	if err != nil {
		return err
	}
	if wantFact && spec.Fact == nil {
		return fmt.Errorf("ingest spec for %v.%v has no fact section", spec.Ingest.SourceSystem, spec.Ingest.Entity)
	}
	if !wantFact {
		if spec.Fact != nil {
			return fmt.Errorf("ingest spec for %v.%v has a fact section: use the fact subcommand", spec.Ingest.SourceSystem, spec.Ingest.Entity)
		}
		if spec.Target.DimensionTable == "" {
			return fmt.Errorf("ingest spec for %v.%v is missing target.dimensionTable", spec.Ingest.SourceSystem, spec.Ingest.Entity)
		}
	}
	if cfg.ExportSpecType != "" { // if we should print the parsed spec instead of running it...
		return outputIngestSpec(log, spec, cfg.ExportSpecType)
	}
	rt, cleanup, err := buildRuntime(log, cfg.Connections, spec)
	if err != nil {
		return err
	}
	defer cleanup()
	bi := pipeline.NewSafeMapBatchInfo()
	guid, err := pipeline.LaunchIngestDefinition(log, bi, &spec.Ingest, rt, true, cfg.StatsDumpFrequencySeconds)
	if err != nil {
		return err
	}
	if info, ok := bi.Load(guid); ok && info.Status.Status == pipeline.StatusCompleteWithError {
		return fmt.Errorf("ingest batch %v failed: %v", guid, info.Status.Error)
	}
	return nil
}

// buildRuntime opens the spec's connections and wires the pipeline runtime.
// The returned cleanup func closes the opened database connections.
func buildRuntime(log logger.Logger, connections ConnectionLoader, spec *IngestSpec) (*pipeline.Runtime, func(), error) {
	var opened []shared.Connector
	cleanup := func() {
		for _, db := range opened {
			db.Close()
		}
	}
	fail := func(err error) (*pipeline.Runtime, func(), error) {
		cleanup()
		return nil, func() {}, err
	}
	// Source connection and extractor.
	srcConn, err := connections.LoadConnection(spec.Source.Connection)
	if err != nil {
		return fail(errors.Wrapf(err, "unable to load connection %q", spec.Source.Connection))
	}
	if err := checkDeltaColumn(log, &srcConn, spec); err != nil {
		return fail(err)
	}
	srcDb, err := openConnection(log, connections, spec.Source.Connection)
	if err != nil {
		return fail(err)
	}
	opened = append(opened, srcDb)
	extractor, err := extract.NewSqlExtractor(&extract.SqlExtractorConfig{
		Log:          log,
		Db:           srcDb,
		DbType:       srcConn.Type,
		SchemaTable:  spec.Source.SchemaTable,
		Columns:      spec.Source.Columns,
		DeltaColumn:  spec.Source.DeltaColumn,
		PositionType: watermark.PositionType(spec.Source.PositionType),
		MaxRows:      spec.Source.MaxRows,
	})
	if err != nil {
		return fail(errors.Wrap(err, "unable to create the source extractor"))
	}
	// Target connection, watermark store and dimension or fact stores.
	tgtDb, err := openConnection(log, connections, spec.Target.Connection)
	if err != nil {
		return fail(err)
	}
	opened = append(opened, tgtDb)
	rt := &pipeline.Runtime{
		Extractor:  extractor,
		Watermarks: watermark.NewSqlStore(log, tgtDb, spec.Target.WatermarkTable),
	}
	if spec.Fact != nil { // if this spec loads a fact table...
		loader, err := buildFactLoader(log, tgtDb, spec)
		if err != nil {
			return fail(err)
		}
		rt.Fact = loader
	} else { // else this spec merges a dimension...
		attrCols := helper.CsvToStringSliceTrimSpaces(spec.Ingest.TrackedCols)
		dim, err := dimension.NewSqlStore(log, tgtDb, spec.Ingest.Entity, spec.Target.DimensionTable, attrCols)
		if err != nil {
			return fail(errors.Wrapf(err, "unable to open dimension table %v", spec.Target.DimensionTable))
		}
		rt.Dimension = dim
	}
	if spec.Quarantine != nil { // if quarantined records should be persisted...
		if err := helper.ValidateStructIsPopulated(spec.Quarantine); err != nil {
			return fail(err)
		}
		rt.Quarantine = NewCsvQuarantineWriter(log, *spec.Quarantine)
	}
	return rt, cleanup, nil
}

// buildFactLoader wires the fact loader's dimension refs and SQL sink.
func buildFactLoader(log logger.Logger, tgtDb shared.Connector, spec *IngestSpec) (*fact.Loader, error) {
	if err := helper.ValidateStructIsPopulated(spec.Fact); err != nil {
		return nil, err
	}
	refs := make([]fact.Ref, 0, len(spec.Fact.Refs))
	for _, r := range spec.Fact.Refs { // for each dimension foreign key...
		if err := helper.ValidateStructIsPopulated(&r); err != nil {
			return nil, err
		}
		dim, err := dimension.NewSqlStore(log, tgtDb, r.Entity, r.DimensionTable, helper.CsvToStringSliceTrimSpaces(r.AttrCols))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open dimension table %v for fact ref %v", r.DimensionTable, r.FKField)
		}
		refs = append(refs, fact.Ref{
			Store:     dim,
			KeyFields: helper.StringSliceToOrderedMap(helper.CsvToStringSliceTrimSpaces(r.KeyFields)),
			FKField:   r.FKField,
		})
	}
	sink, err := fact.NewSqlSink(&fact.SqlSinkConfig{
		Log:           log,
		Db:            tgtDb,
		OutputSchema:  spec.Fact.OutputSchema,
		OutputTable:   spec.Fact.OutputTable,
		TargetKeyCols: helper.TokensToOrderedMap(spec.Fact.KeyCols),
		TargetColumns: helper.TokensToOrderedMap(spec.Fact.OtherCols),
		ExecBatchSize: spec.Fact.ExecBatchSize,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create the fact sink for table %v", spec.Fact.OutputTable)
	}
	return fact.NewLoader(log, &fact.Config{
		Entity:             spec.Ingest.Entity,
		EffectiveTimeField: spec.Ingest.EffectiveTimeField,
		Refs:               refs,
	}, sink)
}

// checkDeltaColumn validates that the source delta column exists and that its data type
// agrees with the spec's watermark position type before any batch work starts.
// Token positions are opaque and never match a column data type, so they are not checked.
func checkDeltaColumn(log logger.Logger, conn *shared.ConnectionDetails, spec *IngestSpec) error {
	pt := watermark.PositionType(spec.Source.PositionType)
	if pt != watermark.PositionTypeTime && pt != watermark.PositionTypeNumber {
		return nil
	}
	if conn.Type == constants.ConnectionTypeMock { // mock connections have no column metadata.
		return nil
	}
	st := rdbms.SchemaTable{SchemaTable: spec.Source.SchemaTable}
	dataType, err := tabledefinition.ColumnIsNumberOrDate(log, tabledefinition.GetColumnsFunc(conn), tabledefinition.MustGetMapper(conn), &st, spec.Source.DeltaColumn)
	if err != nil {
		return errors.Wrapf(err, "unable to check the delta column for %v", spec.Source.SchemaTable)
	}
	if pt == watermark.PositionTypeNumber && dataType != 0 { // if the column cannot drive a number watermark...
		return fmt.Errorf("delta column %q in %v is not a number column as required by positionType %q",
			spec.Source.DeltaColumn, spec.Source.SchemaTable, spec.Source.PositionType)
	}
	if pt == watermark.PositionTypeTime && dataType != 1 { // if the column cannot drive a time watermark...
		return fmt.Errorf("delta column %q in %v is not a date or timestamp column as required by positionType %q",
			spec.Source.DeltaColumn, spec.Source.SchemaTable, spec.Source.PositionType)
	}
	return nil
}

func openConnection(log logger.Logger, connections ConnectionLoader, connectionName string) (shared.Connector, error) {
	conn, err := connections.LoadConnection(connectionName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load connection %q", connectionName)
	}
	if conn.Type == "" {
		return nil, fmt.Errorf("connection %q is not configured: use 'config' command to create it", connectionName)
	}
	db, err := rdbms.OpenDbConnection(log, conn)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open connection %q", connectionName)
	}
	return db, nil
}
