package constants

// Merge engine

const (
	MergeActionInsert            = "I" // no active version exists for the natural key so a new one is inserted.
	MergeActionChange            = "C" // tracked attributes differ so the active version is expired and a new one inserted.
	MergeActionNone              = "X" // tracked attributes match the active version - idempotent no-op.
	MergeActionQuarantine        = "Q" // the record failed validation or ordering rules and is set aside.
	MergeActionFieldName         = "#mergeAction"
	QuarantineReasonFieldName    = "#quarantineReason"
	BatchTokenFieldName          = "#batchToken"
	ExtractSequenceFieldName     = "#extractSequence"
	EffectiveTimeFieldName       = "#effectiveTime"
	NaturalKeyFieldName          = "#naturalKey"
	ChanSize                     = 20000
	StatsCaptureFrequencySeconds = 5
)

// Dimension table

const (
	UnknownNaturalKey  = "UNKNOWN" // reserved natural key of the pre-seeded sentinel version row per dimension.
	UnknownMemberName  = "Unknown" // display value written to attribute columns of the sentinel row.
	SurrogateKeyColumn = "surrogate_key"
	NaturalKeyColumn   = "natural_key"
	ValidFromColumn    = "valid_from"
	ValidToColumn      = "valid_to"
	IsActiveColumn     = "is_active"
	ValidToMaxYear     = 9999 // valid_to of the open version row is midnight 1st Jan of this year UTC.
)

// Watermark store

const (
	WatermarkTableDefault    = "lp_watermarks"
	WatermarkSourceColumn    = "source_system"
	WatermarkEntityColumn    = "entity"
	WatermarkPositionColumn  = "position"
	WatermarkTypeColumn      = "position_type"
	WatermarkUpdatedAtColumn = "updated_at"
)

// Time formats

const (
	TimeFormatYearSeconds      = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ    = "20060102T150405-0700" // includes the time zone and is accepted by Snowflake, SQL Server and Netezza.
)

// CLI / environment

const (
	EnvVarPrefix                   = "LP" // prefix for environment variables in twelveFactorMode
	EmojiBang                      = "\U0001F4A5"
	ActionFuncsCommandIngest       = "ingest"
	ActionFuncsSubCommandDimension = "dim"
	ActionFuncsSubCommandFact      = "fact"
	DimBatchSizeDefault            = 1000
	DimBatchTxtNumRowsDefault      = 10
	QuarantineFileColumnName       = "FileName"
)

// Connection types

const (
	ConnectionTypeStdout    = "stdout"
	ConnectionTypeMemory    = "memory" // in-process stores, used by tests and the local demo pipeline.
	ConnectionTypeSnowflake = "snowflake"
	ConnectionTypeNetezza   = "netezza"
	ConnectionTypeSqlServer = "sqlserver"
	ConnectionTypeS3        = "s3"
	ConnectionTypeMock      = "mock" // test connection that records executed SQL.
)
