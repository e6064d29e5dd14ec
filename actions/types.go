package actions

import (
	"github.com/lakepipe/lakepipe/pipeline"
)

// SourceSpec names the source connection and the table changes are extracted from.
type SourceSpec struct {
	Connection   string   `json:"connection" errorTxt:"source connection name" mandatory:"yes"`
	SchemaTable  string   `json:"schemaTable" errorTxt:"source [<schema>.]<table>" mandatory:"yes"`
	Columns      []string `json:"columns"` // optional projection; empty means select *.
	DeltaColumn  string   `json:"deltaColumn" errorTxt:"delta column" mandatory:"yes"`
	PositionType string   `json:"positionType" errorTxt:"watermark position type" mandatory:"yes"` // time, number or token.
	MaxRows      int      `json:"maxRows"`
}

// TargetSpec names the target connection and the tables a batch writes to.
type TargetSpec struct {
	Connection     string `json:"connection" errorTxt:"target connection name" mandatory:"yes"`
	DimensionTable string `json:"dimensionTable"` // required for dimension ingests.
	WatermarkTable string `json:"watermarkTable"` // empty uses the default watermark table.
}

// FactRefSpec binds one foreign key on the fact to a dimension table.
type FactRefSpec struct {
	Entity         string `json:"entity" errorTxt:"dimension entity name" mandatory:"yes"`
	DimensionTable string `json:"dimensionTable" errorTxt:"dimension [<schema>.]<table>" mandatory:"yes"`
	AttrCols       string `json:"attrCols"`                                                // CSV of the dimension's attribute columns.
	KeyFields      string `json:"keyFields" errorTxt:"natural key field CSV" mandatory:"yes"` // fact record fields forming the dimension's natural key.
	FKField        string `json:"fkField" errorTxt:"foreign key field" mandatory:"yes"`
}

// FactSpec switches a definition from a dimension merge to a fact load.
type FactSpec struct {
	OutputSchema  string        `json:"outputSchema"`
	OutputTable   string        `json:"outputTable" errorTxt:"fact output table" mandatory:"yes"`
	KeyCols       string        `json:"keyCols" errorTxt:"surrogate key field:column tokens" mandatory:"yes"` // tokens of the form field:column for resolved surrogate keys.
	OtherCols     string        `json:"otherCols"`                                                            // tokens of the form field:column for measures and degenerate attributes.
	ExecBatchSize int           `json:"execBatchSize"`
	Refs          []FactRefSpec `json:"refs"`
}

// QuarantineSpec configures where a batch's quarantined records are written.
type QuarantineSpec struct {
	Dir            string `json:"dir" errorTxt:"quarantine output directory" mandatory:"yes"`
	FileNamePrefix string `json:"fileNamePrefix"`
	BucketName     string `json:"bucketName"` // optional: completed CSV files are copied to this S3 bucket.
	BucketPrefix   string `json:"bucketPrefix"`
	Region         string `json:"region"`
}

// IngestSpec is the on-disk definition of one ingest pipeline. The Ingest section is the
// declarative merge config handed to the pipeline; the rest wires it to real connections.
type IngestSpec struct {
	Ingest     pipeline.IngestDefinition `json:"ingest"`
	Source     SourceSpec                `json:"source"`
	Target     TargetSpec                `json:"target"`
	Fact       *FactSpec                 `json:"fact,omitempty"`
	Quarantine *QuarantineSpec           `json:"quarantine,omitempty"`
}
