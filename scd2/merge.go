package scd2

import (
	"sort"
	"time"

	"github.com/rs/xid"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/dimension"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

// Engine computes and applies SCD2 merge operations for one entity.
// It is deliberately free of storage concerns: all reads and writes go through the
// dimension.Tx supplied per batch, so the caller controls the commit boundary and the
// per-entity mutual exclusion that the read-then-write change detection requires.
type Engine struct {
	log logger.Logger
	cfg *EntityConfig
}

func NewEngine(log logger.Logger, cfg *EntityConfig) *Engine {
	return &Engine{log: log, cfg: cfg}
}

// Result summarises one merged batch.
type Result struct {
	Inserted    int           // brand new natural keys.
	Changed     int           // expire + insert transitions.
	NoOps       int           // idempotent re-applies of already-merged records.
	Quarantined []Quarantined // record-level rejects; never fatal to the batch.
	// LastEffective is the highest effective timestamp applied, for callers that advance
	// time-typed watermarks from the merged data itself.
	LastEffective time.Time
}

type workingRec struct {
	rec        stream.Record
	naturalKey string
	effective  time.Time
	seq        int // extraction sequence number within the batch.
}

// MergeBatch applies the batch of raw records into the dimension through tx.
// The caller commits tx after a nil return and only then commits the watermark.
//
// Per natural key the engine follows the SCD2 transition rules:
// no active row -> insert; tracked attributes equal -> no-op; attributes differ -> expire the
// active row at the record's effective time and insert the replacement in the same transaction.
// Records are applied in effective-time order with the extraction sequence as a stable
// tie-break, so re-running an identical batch is deterministic and produces zero new rows.
func (e *Engine) MergeBatch(tx dimension.Tx, recs []stream.Record, token watermark.BatchToken) (Result, error) {
	res := Result{}
	work := make([]workingRec, 0, len(recs))
	for seq, rec := range recs { // resolve keys and effective times up front...
		key, err := ResolveNaturalKey(e.log, e.cfg, rec)
		if err != nil {
			res.Quarantined = append(res.Quarantined, e.quarantine(rec, "", ReasonMissingKey, token, err))
			continue
		}
		eff, err := rec.GetDataAsTime(e.cfg.EffectiveTimeField)
		if err != nil {
			res.Quarantined = append(res.Quarantined, e.quarantine(rec, key, ReasonBadEffectiveTime, token, err))
			continue
		}
		work = append(work, workingRec{rec: rec, naturalKey: key, effective: eff, seq: seq})
	}
	// Deterministic apply order: effective time ascending, extraction sequence breaks ties.
	sort.SliceStable(work, func(i, j int) bool {
		if work[i].effective.Equal(work[j].effective) {
			return work[i].seq < work[j].seq
		}
		return work[i].effective.Before(work[j].effective)
	})
	// Keys whose stored history is corrupt are skipped for the rest of the batch.
	poisoned := make(map[string]bool)
	for _, w := range work {
		if poisoned[w.naturalKey] {
			res.Quarantined = append(res.Quarantined, e.quarantine(w.rec, w.naturalKey, ReasonInvariantViolation, token,
				dimension.InvariantViolationError{Entity: e.cfg.Entity, NaturalKey: w.naturalKey, Detail: "key halted earlier in this batch"}))
			continue
		}
		active, ok, err := tx.GetActive(w.naturalKey)
		if err != nil {
			if _, isInvariant := err.(dimension.InvariantViolationError); isInvariant {
				// Halt the merge for this key only; other keys continue.
				e.log.Error(err)
				poisoned[w.naturalKey] = true
				res.Quarantined = append(res.Quarantined, e.quarantine(w.rec, w.naturalKey, ReasonInvariantViolation, token, err))
				continue
			}
			return res, err // storage failure is batch-fatal; caller rolls back.
		}
		if !ok { // no active version exists - INSERT...
			if err := tx.InsertVersion(e.newVersion(w)); err != nil {
				return res, err
			}
			w.rec.SetData(constants.MergeActionFieldName, constants.MergeActionInsert)
			res.Inserted++
			res.LastEffective = laterOf(res.LastEffective, w.effective)
			continue
		}
		if e.trackedAttributesEqual(active, w.rec) { // tracked attributes match - idempotent no-op...
			w.rec.SetData(constants.MergeActionFieldName, constants.MergeActionNone)
			res.NoOps++
			continue
		}
		if !w.effective.After(active.ValidFrom) { // late or out-of-order update - reject, never reorder history...
			err := LateArrivalError{
				Entity:     e.cfg.Entity,
				NaturalKey: w.naturalKey,
				Effective:  w.effective,
				ActiveFrom: active.ValidFrom,
			}
			res.Quarantined = append(res.Quarantined, e.quarantine(w.rec, w.naturalKey, ReasonLateArrival, token, err))
			continue
		}
		// Two-step atomic transition: expire then insert inside the same transaction.
		if err := tx.ExpireVersion(active.SurrogateKey, w.effective); err != nil {
			return res, err
		}
		if err := tx.InsertVersion(e.newVersion(w)); err != nil {
			return res, err
		}
		w.rec.SetData(constants.MergeActionFieldName, constants.MergeActionChange)
		res.Changed++
		res.LastEffective = laterOf(res.LastEffective, w.effective)
	}
	e.log.Debug("merge for ", e.cfg.SourceSystem, ".", e.cfg.Entity,
		" batch ", token.ID,
		": inserted=", res.Inserted,
		" changed=", res.Changed,
		" noops=", res.NoOps,
		" quarantined=", len(res.Quarantined))
	return res, nil
}

// newVersion builds the dimension row for a working record using the tracked column mapping.
func (e *Engine) newVersion(w workingRec) dimension.Version {
	attrs := make(map[string]interface{}, e.cfg.TrackedCols.Len())
	iter := e.cfg.TrackedCols.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // for each tracked record field -> attribute name...
		v, _ := w.rec.GetDataOk(kv.Key.(string)) // absent fields become nil attribute values.
		attrs[kv.Value.(string)] = v
	}
	return dimension.Version{
		SurrogateKey: xid.New().String(),
		NaturalKey:   w.naturalKey,
		Attributes:   attrs,
		ValidFrom:    w.effective,
		ValidTo:      dimension.MaxValidTo(),
		IsActive:     true,
	}
}

// trackedAttributesEqual compares the active version's attributes with the incoming record
// over the tracked column subset using the configured equality rule.
func (e *Engine) trackedAttributesEqual(active dimension.Version, rec stream.Record) bool {
	iter := e.cfg.TrackedCols.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		recVal, _ := rec.GetDataOk(kv.Key.(string))
		dimVal := active.Attributes[kv.Value.(string)]
		if !e.cfg.Equality.Equal(e.log, recVal, dimVal) {
			return false
		}
	}
	return true
}

func (e *Engine) quarantine(rec stream.Record, key string, reason string, token watermark.BatchToken, err error) Quarantined {
	rec.SetData(constants.MergeActionFieldName, constants.MergeActionQuarantine)
	rec.SetData(constants.QuarantineReasonFieldName, reason)
	e.log.Warn("quarantined record for ", e.cfg.SourceSystem, ".", e.cfg.Entity,
		" key=", key, " reason=", reason, " batch=", token.ID, ": ", err)
	return Quarantined{NaturalKey: key, Reason: reason, BatchToken: token.ID, Err: err, Record: rec}
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
