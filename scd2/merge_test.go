package scd2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/dimension"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

var testLog = logger.NewLogger("merge-test", "error", true)

func testConfig(t *testing.T) *EntityConfig {
	cfg, err := NewEntityConfig("erp", "product", "productCode", "price,name", "updatedAt", EqualityRule{TrimSpace: true})
	require.Nil(t, err)
	return cfg
}

func productRec(code string, price interface{}, name string, updatedAt time.Time) stream.Record {
	rec := stream.NewRecord()
	rec.SetData("productCode", code)
	rec.SetData("price", price)
	rec.SetData("name", name)
	rec.SetData("updatedAt", updatedAt)
	return rec
}

func mergeRecs(t *testing.T, e *Engine, store dimension.Store, recs ...stream.Record) Result {
	tx, err := store.Begin()
	require.Nil(t, err)
	res, err := e.MergeBatch(tx, recs, watermark.BatchToken{ID: "test-batch"})
	require.Nil(t, err)
	require.Nil(t, tx.Commit())
	return res
}

func TestMergeInsertThenChange(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	// First sighting of the key inserts an open-ended active version.
	r1 := productRec("P1", 10, "Widget", t1)
	res := mergeRecs(t, e, store, r1)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, constants.MergeActionInsert, r1.GetData(constants.MergeActionFieldName))
	v, ok, err := store.GetActive("P1")
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, t1, v.ValidFrom)
	assert.Equal(t, dimension.MaxValidTo(), v.ValidTo)
	assert.Equal(t, "10", cfg.Equality.Canonical(testLog, v.Attributes["price"]))
	// A later change expires the first version and opens a new one at the same instant.
	r2 := productRec("P1", 12, "Widget", t2)
	res = mergeRecs(t, e, store, r2)
	assert.Equal(t, 1, res.Changed)
	assert.Equal(t, constants.MergeActionChange, r2.GetData(constants.MergeActionFieldName))
	hist, err := store.History("P1")
	require.Nil(t, err)
	require.Equal(t, 2, len(hist))
	assert.Equal(t, hist[0].ValidTo, hist[1].ValidFrom, "expected contiguous intervals")
	assert.False(t, hist[0].IsActive)
	assert.True(t, hist[1].IsActive)
	assert.Equal(t, t2, res.LastEffective)
}

func TestMergeIdempotentReapply(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := []stream.Record{
		productRec("P1", 10, "Widget", t1),
		productRec("P2", 5, "Sprocket", t1),
	}
	res := mergeRecs(t, e, store, batch...)
	assert.Equal(t, 2, res.Inserted)
	// Re-applying the identical batch must produce zero new versions.
	batch2 := []stream.Record{
		productRec("P1", 10, "Widget", t1),
		productRec("P2", 5, "Sprocket", t1),
	}
	res = mergeRecs(t, e, store, batch2...)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, 2, res.NoOps)
	assert.Equal(t, 0, len(res.Quarantined))
	hist, err := store.History("P1")
	require.Nil(t, err)
	assert.Equal(t, 1, len(hist))
}

func TestMergeLateArrivalQuarantined(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	mergeRecs(t, e, store, productRec("P1", 10, "Widget", t1))
	mergeRecs(t, e, store, productRec("P1", 12, "Widget", t2))
	// A changed record with an effective time at or before the active version's valid_from
	// must be quarantined, never spliced into history.
	late := productRec("P1", 11, "Widget", t1)
	res := mergeRecs(t, e, store, late)
	assert.Equal(t, 0, res.Changed)
	require.Equal(t, 1, len(res.Quarantined))
	q := res.Quarantined[0]
	assert.Equal(t, ReasonLateArrival, q.Reason)
	assert.Equal(t, "P1", q.NaturalKey)
	assert.Equal(t, "test-batch", q.BatchToken)
	assert.IsType(t, LateArrivalError{}, q.Err)
	assert.Equal(t, constants.MergeActionQuarantine, late.GetData(constants.MergeActionFieldName))
	hist, err := store.History("P1")
	require.Nil(t, err)
	assert.Equal(t, 2, len(hist), "history must be unchanged by the late arrival")
}

func TestMergeMissingKeyAndBadTimeQuarantined(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	noKey := stream.NewRecord()
	noKey.SetData("price", 10)
	noKey.SetData("updatedAt", t1)
	badTime := stream.NewRecord()
	badTime.SetData("productCode", "P9")
	badTime.SetData("price", 10)
	badTime.SetData("updatedAt", "not a timestamp")
	good := productRec("P1", 10, "Widget", t1)
	res := mergeRecs(t, e, store, noKey, badTime, good)
	assert.Equal(t, 1, res.Inserted, "good record must survive record-level rejects")
	require.Equal(t, 2, len(res.Quarantined))
	reasons := map[string]bool{}
	for _, q := range res.Quarantined {
		reasons[q.Reason] = true
	}
	assert.True(t, reasons[ReasonMissingKey])
	assert.True(t, reasons[ReasonBadEffectiveTime])
}

func TestMergeMultipleChangesInOneBatchApplyInOrder(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// Supplied out of order on purpose: the engine sorts by effective time.
	res := mergeRecs(t, e, store,
		productRec("P1", 12, "Widget", t1.Add(time.Hour)),
		productRec("P1", 10, "Widget", t1),
		productRec("P1", 15, "Widget", t1.Add(2*time.Hour)),
	)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Changed)
	hist, err := store.History("P1")
	require.Nil(t, err)
	require.Equal(t, 3, len(hist))
	for idx := 0; idx < len(hist)-1; idx++ {
		assert.Equal(t, hist[idx].ValidTo, hist[idx+1].ValidFrom)
		assert.False(t, hist[idx].IsActive)
	}
	assert.True(t, hist[2].IsActive)
	assert.Equal(t, "15", cfg.Equality.Canonical(testLog, hist[2].Attributes["price"]))
}

func TestMergeEqualityRuleSuppressesCosmeticChange(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(testLog, cfg)
	store := dimension.NewMemoryStore(testLog, cfg.Entity)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mergeRecs(t, e, store, productRec("P1", 10, "Widget", t1))
	// Padded whitespace is not a change under TrimSpace, and "10" equals 10.
	padded := productRec("P1", "10", "  Widget  ", t1.Add(time.Hour))
	res := mergeRecs(t, e, store, padded)
	assert.Equal(t, 1, res.NoOps)
	assert.Equal(t, 0, res.Changed)
}
