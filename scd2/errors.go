package scd2

import (
	"fmt"
	"strings"
	"time"

	"github.com/lakepipe/lakepipe/stream"
)

// MissingKeyError means a record lacks one or more of its configured natural key fields.
// The record is quarantined; the batch continues.
type MissingKeyError struct {
	Entity string
	Fields []string
}

func (e MissingKeyError) Error() string {
	return fmt.Sprintf("record for entity %q is missing natural key field(s) %v", e.Entity, strings.Join(e.Fields, ", "))
}

// LateArrivalError means a record's effective timestamp is at or before the active version's
// valid_from. History is never silently reordered; the record is quarantined for review.
type LateArrivalError struct {
	Entity     string
	NaturalKey string
	Effective  time.Time
	ActiveFrom time.Time
}

func (e LateArrivalError) Error() string {
	return fmt.Sprintf("late arrival for entity %q key %q: effective time %v is not after the active version's valid_from %v",
		e.Entity, e.NaturalKey, e.Effective.UTC(), e.ActiveFrom.UTC())
}

// Quarantined is a record set aside by the merge or the fact loader, reported with enough
// context for operator triage and never fatal to its batch.
type Quarantined struct {
	NaturalKey string        `json:"naturalKey"`
	Reason     string        `json:"reason"`
	BatchToken string        `json:"batchToken"`
	Err        error         `json:"-"`
	Record     stream.Record `json:"-"`
}

// Quarantine reason codes, used in reports and on the record's reason field.
const (
	ReasonMissingKey         = "MissingKey"
	ReasonLateArrival        = "LateArrival"
	ReasonInvariantViolation = "InvariantViolation"
	ReasonBadEffectiveTime   = "BadEffectiveTime"
)
