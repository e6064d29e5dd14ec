package pipeline

import (
	"github.com/lakepipe/lakepipe/components"
	"github.com/lakepipe/lakepipe/scd2"
)

const (
	IngestOnce      = "once"
	IngestRepeating = "repeating"
)

// RepeatMetadata holds config for ingest definitions of type repeating.
type RepeatMetadata struct {
	SleepSeconds int `json:"sleepSeconds"`
}

// FilterSpec configures one pre-merge row filter step.
// Type must match a filter registered in the components package e.g. "JsonLogic".
type FilterSpec struct {
	Type     string `json:"type" errorTxt:"filter type" mandatory:"yes"`
	Metadata string `json:"metadata"`
}

// IngestDefinition is the declarative half of one ingest pipeline: which entity to load,
// how to resolve its natural key, which columns trigger new versions and how often to repeat.
// The runtime half (extractor, stores, optional fact loader) is wired separately so the same
// definition can run against real databases or in-memory stores.
type IngestDefinition struct {
	SchemaVersion      int                        `json:"schemaVersion"`
	Description        string                     `json:"description"`
	Type               string                     `json:"type"` // once (the default) or repeating.
	RepeatMeta         RepeatMetadata             `json:"repeatMetadata"`
	SourceSystem       string                     `json:"sourceSystem" errorTxt:"source system name" mandatory:"yes"`
	Entity             string                     `json:"entity" errorTxt:"entity name" mandatory:"yes"`
	KeyFields          string                     `json:"keyFields" errorTxt:"natural key field CSV" mandatory:"yes"`
	TrackedCols        string                     `json:"trackedCols" errorTxt:"tracked column CSV" mandatory:"yes"`
	EffectiveTimeField string                     `json:"effectiveTimeField" errorTxt:"effective time field" mandatory:"yes"`
	Equality           scd2.EqualityRule          `json:"equality"`
	Filters            []FilterSpec               `json:"filters"`  // optional row filters applied before the merge.
	MapSteps           []components.ComponentStep `json:"mapSteps"` // optional field mappers applied before the merge.
}

// EntityConfig converts the definition into the merge engine's config.
func (d *IngestDefinition) EntityConfig() (*scd2.EntityConfig, error) {
	return scd2.NewEntityConfig(d.SourceSystem, d.Entity, d.KeyFields, d.TrackedCols, d.EffectiveTimeField, d.Equality)
}
