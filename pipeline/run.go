package pipeline

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/lakepipe/lakepipe/components"
	c "github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/dimension"
	"github.com/lakepipe/lakepipe/extract"
	"github.com/lakepipe/lakepipe/fact"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/scd2"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

// QuarantineWriter persists the quarantined records of one batch for operator triage.
type QuarantineWriter interface {
	Write(batchId string, q []scd2.Quarantined) error
}

// Runtime is the wired half of one ingest pipeline: where records come from and where
// versions, facts and watermarks go. Exactly one of the dimension merge and the fact load
// runs per batch: when Fact is set the batch is a fact load, otherwise it is a dimension merge.
type Runtime struct {
	Extractor  extract.Extractor
	Dimension  dimension.Store
	Watermarks watermark.Store
	Fact       *fact.Loader     // optional - set for fact ingest definitions.
	Quarantine QuarantineWriter // optional - quarantined records are only logged when nil.
}

// RunResult summarises one completed batch iteration.
type RunResult struct {
	BatchId              string `json:"batchId"`
	Extracted            int    `json:"extracted"`
	Inserted             int    `json:"inserted"`
	Changed              int    `json:"changed"`
	NoOps                int    `json:"noOps"`
	FactRows             int    `json:"factRows"`
	UnknownSubstitutions int    `json:"unknownSubstitutions"`
	Quarantined          int    `json:"quarantined"`
	// Position is the committed watermark position, or empty when the batch had nothing to commit.
	Position string `json:"position"`
}

// runBatch executes one extract-merge-commit cycle.
// The watermark only advances after the merge transaction is durable, so a crash in between
// causes a re-extract of the same records and the merge absorbs the replay as no-ops.
func (rt *Runtime) runBatch(ctx context.Context, log logger.Logger, d *IngestDefinition, guid string,
	s StatsManager, panicHandlerFn components.PanicHandlerFunc,
) (res RunResult, err error) {
	committer := watermark.NewCommitter(log, rt.Watermarks)
	since, _, token, err := committer.BeginBatch(d.SourceSystem, d.Entity)
	if err != nil {
		return res, errors.Wrap(err, "unable to begin batch")
	}
	res.BatchId = token.ID
	// Extract outside the entity lock - it can be slow and touches only the source.
	batch, err := rt.Extractor.Extract(ctx, d.SourceSystem, d.Entity, since)
	if err != nil {
		return res, errors.Wrapf(err, "extract failed for %v.%v", d.SourceSystem, d.Entity)
	}
	res.Extracted = len(batch.Records)
	recs := batch.Records
	if len(recs) > 0 && (len(d.Filters) > 0 || len(d.MapSteps) > 0) { // if pre-merge steps are configured...
		recs, err = rt.applyRecordSteps(log, d, recs, s, panicHandlerFn)
		if err != nil {
			return res, err
		}
	}
	if len(recs) == 0 && !positionAdvanced(since, batch.NewPosition) { // if the source had no new changes...
		log.Info("Batch ", token.ID, " for ", d.SourceSystem, ".", d.Entity, " found no new changes since ", since.String())
		return res, nil
	}
	// Serialize the merge-and-commit section per entity so concurrent definitions for the
	// same entity cannot both read the prior watermark and race each other's commit.
	lock := lockForEntity(d.SourceSystem, d.Entity)
	lock.Lock()
	defer lock.Unlock()
	var quarantined []scd2.Quarantined
	if rt.Fact != nil { // if this definition loads a fact table...
		fres, ferr := rt.Fact.LoadBatch(recs, token)
		if ferr != nil {
			return res, ferr
		}
		res.FactRows = fres.Loaded
		res.UnknownSubstitutions = fres.UnknownSubstitutions
		quarantined = fres.Quarantined
	} else { // else this definition merges a dimension...
		cfg, cerr := d.EntityConfig()
		if cerr != nil {
			return res, cerr
		}
		engine := scd2.NewEngine(log, cfg)
		tx, terr := rt.Dimension.Begin()
		if terr != nil {
			return res, errors.Wrap(terr, "unable to begin dimension transaction")
		}
		mres, merr := engine.MergeBatch(tx, recs, token)
		if merr != nil { // if the batch failed mid-merge...
			_ = tx.Rollback() // no half-merged state may become visible.
			return res, merr
		}
		if cerr = tx.Commit(); cerr != nil {
			return res, errors.Wrap(cerr, "unable to commit dimension transaction")
		}
		res.Inserted = mres.Inserted
		res.Changed = mres.Changed
		res.NoOps = mres.NoOps
		quarantined = mres.Quarantined
	}
	res.Quarantined = len(quarantined)
	if len(quarantined) > 0 { // if any records were set aside...
		rt.reportQuarantined(log, token.ID, quarantined)
	}
	if !batch.NewPosition.IsZero() { // if the extractor observed a position to commit...
		if err = committer.Commit(d.SourceSystem, d.Entity, batch.NewPosition, token); err != nil {
			return res, err
		}
		res.Position = batch.NewPosition.String()
	}
	log.Info(fmt.Sprintf("Batch %v for %v.%v complete: extracted=%v inserted=%v changed=%v noOps=%v factRows=%v quarantined=%v position=%v",
		token.ID, d.SourceSystem, d.Entity, res.Extracted, res.Inserted, res.Changed, res.NoOps, res.FactRows, res.Quarantined, res.Position))
	return res, nil
}

// applyRecordSteps pushes extracted records through the configured filter and field mapper
// components and collects the survivors.
func (rt *Runtime) applyRecordSteps(log logger.Logger, d *IngestDefinition, recs []stream.Record,
	s StatsManager, panicHandlerFn components.PanicHandlerFunc,
) ([]stream.Record, error) {
	bw := newBatchWaiter()
	inputChan := make(chan stream.Record, c.ChanSize)
	go func() {
		for _, rec := range recs {
			inputChan <- rec
		}
		close(inputChan)
	}()
	cur := inputChan
	for idx, f := range d.Filters { // for each configured filter...
		stepName := fmt.Sprintf("filterRows%v", idx+1)
		cur, _ = components.NewFilterRows(&components.FilterRowsConfig{
			Log:            log,
			Name:           stepName,
			InputChan:      cur,
			FilterType:     components.FilterType(f.Type),
			FilterMetadata: components.FilterMetadata(f.Metadata),
			StepWatcher:    s.AddStepWatcher(stepName),
			WaitCounter:    bw.newStepComponentWaiter(stepName),
			PanicHandlerFn: panicHandlerFn,
		})
	}
	if len(d.MapSteps) > 0 { // if field mappers are configured...
		stepName := "fieldMapper"
		cur, _ = components.NewFieldMapper(&components.FieldMapperConfig{
			Log:            log,
			Name:           stepName,
			InputChan:      cur,
			Steps:          d.MapSteps,
			StepWatcher:    s.AddStepWatcher(stepName),
			WaitCounter:    bw.newStepComponentWaiter(stepName),
			PanicHandlerFn: panicHandlerFn,
		})
	}
	retval := make([]stream.Record, 0, len(recs))
	for rec := range cur { // collect until the last component closes its output...
		retval = append(retval, rec)
	}
	bw.Wait()
	return retval, nil
}

// reportQuarantined hands the batch's quarantined records to the configured writer.
// A failed report is logged, not fatal: the merge already committed and quarantined
// records never abort their batch.
func (rt *Runtime) reportQuarantined(log logger.Logger, batchId string, q []scd2.Quarantined) {
	if rt.Quarantine == nil {
		for _, item := range q {
			log.Warn("Batch ", batchId, " quarantined key ", item.NaturalKey, " reason ", item.Reason)
		}
		return
	}
	if err := rt.Quarantine.Write(batchId, q); err != nil {
		log.Error("unable to write quarantine report for batch ", batchId, ": ", err)
	}
}

// positionAdvanced reports whether next has moved past since.
func positionAdvanced(since, next watermark.Position) bool {
	if next.IsZero() {
		return false
	}
	if since.IsZero() {
		return true
	}
	cmp, err := next.Compare(since)
	if err != nil { // positions of different types never compare; treat as an advance and let the store reject it.
		return true
	}
	return cmp > 0
}
