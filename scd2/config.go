package scd2

import (
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"

	h "github.com/lakepipe/lakepipe/helper"
)

// EntityConfig drives the merge engine for one (source system, entity) pair.
// Nothing in the engine is hardcoded per table: the natural key definition, the
// change-tracked columns and the equality rule all arrive here.
type EntityConfig struct {
	SourceSystem string `json:"sourceSystem" errorTxt:"source system name" mandatory:"yes"`
	Entity       string `json:"entity" errorTxt:"entity name" mandatory:"yes"`
	// NaturalKeyFields is the ordered set of record fields that form the business key.
	// Key and value are both the field name; order matters because the resolved key is the
	// concatenation of the field values.
	NaturalKeyFields *om.OrderedMap `json:"-"`
	// TrackedCols maps record field name -> dimension attribute name for the change-tracked
	// column subset. Fields not listed here never trigger a new version.
	TrackedCols *om.OrderedMap `json:"-"`
	// EffectiveTimeField is the record field holding the change's effective timestamp,
	// typically the extraction or source event time.
	EffectiveTimeField string       `json:"effectiveTimeField" errorTxt:"effective time field" mandatory:"yes"`
	Equality           EqualityRule `json:"equality"`
}

// NewEntityConfig builds an EntityConfig from CSV field lists of the form used on the CLI,
// e.g. keyFields "productCode" and trackedCols "price,name".
func NewEntityConfig(source, entity, keyFieldsCsv, trackedColsCsv, effectiveTimeField string, eq EqualityRule) (*EntityConfig, error) {
	if strings.TrimSpace(keyFieldsCsv) == "" {
		return nil, fmt.Errorf("entity %v is missing its natural key field list", entity)
	}
	if strings.TrimSpace(trackedColsCsv) == "" {
		return nil, fmt.Errorf("entity %v is missing its tracked column list", entity)
	}
	cfg := &EntityConfig{
		SourceSystem:       source,
		Entity:             entity,
		NaturalKeyFields:   h.StringSliceToOrderedMap(h.CsvToStringSliceTrimSpaces(keyFieldsCsv)),
		TrackedCols:        h.StringSliceToOrderedMap(h.CsvToStringSliceTrimSpaces(trackedColsCsv)),
		EffectiveTimeField: effectiveTimeField,
		Equality:           eq,
	}
	return cfg, h.ValidateStructIsPopulated(cfg)
}

// KeyFieldNames returns the natural key field names in configured order.
func (c *EntityConfig) KeyFieldNames() []string {
	retval := make([]string, 0, c.NaturalKeyFields.Len())
	iter := c.NaturalKeyFields.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Key.(string))
	}
	return retval
}

// TrackedFieldNames returns the change-tracked record field names in configured order.
func (c *EntityConfig) TrackedFieldNames() []string {
	retval := make([]string, 0, c.TrackedCols.Len())
	iter := c.TrackedCols.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Key.(string))
	}
	return retval
}
