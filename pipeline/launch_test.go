package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakepipe/lakepipe/dimension"
	"github.com/lakepipe/lakepipe/extract"
	"github.com/lakepipe/lakepipe/fact"
	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/scd2"
	"github.com/lakepipe/lakepipe/stats"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

var testLog = logger.NewLogger("pipeline-test", "error", true)

func testDefinition() *IngestDefinition {
	return &IngestDefinition{
		SourceSystem:       "erp",
		Entity:             "product",
		KeyFields:          "productCode",
		TrackedCols:        "price,name",
		EffectiveTimeField: "updatedAt",
		Equality:           scd2.EqualityRule{TrimSpace: true},
	}
}

func productRec(code string, price interface{}, name string, updatedAt time.Time) stream.Record {
	rec := stream.NewRecord()
	rec.SetData("productCode", code)
	rec.SetData("price", price)
	rec.SetData("name", name)
	rec.SetData("updatedAt", updatedAt)
	return rec
}

func testRuntime(batches ...extract.Batch) (*Runtime, *dimension.MemoryStore, *watermark.MemoryStore) {
	dim := dimension.NewMemoryStore(testLog, "product")
	wm := watermark.NewMemoryStore(testLog)
	rt := &Runtime{
		Extractor:  &extract.MockExtractor{Batches: batches},
		Dimension:  dim,
		Watermarks: wm,
	}
	return rt, dim, wm
}

func runBatchForTest(t *testing.T, rt *Runtime, d *IngestDefinition) RunResult {
	res, err := rt.runBatch(context.Background(), testLog, d, "test-guid", stats.NewMockStatsManager(), nil)
	require.Nil(t, err)
	return res
}

func TestRunBatchMergesAndAdvancesWatermark(t *testing.T) {
	d := testDefinition()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rt, dim, wm := testRuntime(extract.Batch{
		Records:     []stream.Record{productRec("P1", 10, "Widget", t1), productRec("P2", 20, "Gadget", t1)},
		NewPosition: watermark.TimePosition(t1),
	})
	res := runBatchForTest(t, rt, d)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, watermark.TimePosition(t1).String(), res.Position)
	// The dimension has one active version per key.
	_, ok, err := dim.GetActive("P1")
	require.Nil(t, err)
	assert.True(t, ok)
	// The watermark committed the batch's position.
	pos, ok, err := wm.Get("erp", "product")
	require.Nil(t, err)
	require.True(t, ok)
	cmp, err := pos.Compare(watermark.TimePosition(t1))
	require.Nil(t, err)
	assert.Equal(t, 0, cmp)
}

// A crash between merge and commit causes the same records to be extracted again.
// The replayed batch must produce no new versions and leave the watermark where it was.
func TestRunBatchIdempotentReplay(t *testing.T) {
	d := testDefinition()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	recs := func() []stream.Record {
		return []stream.Record{productRec("P1", 10, "Widget", t1)}
	}
	rt, dim, _ := testRuntime(
		extract.Batch{Records: recs(), NewPosition: watermark.TimePosition(t1)},
		extract.Batch{Records: recs(), NewPosition: watermark.TimePosition(t1)},
	)
	res1 := runBatchForTest(t, rt, d)
	assert.Equal(t, 1, res1.Inserted)
	res2 := runBatchForTest(t, rt, d)
	assert.Equal(t, 0, res2.Inserted)
	assert.Equal(t, 1, res2.NoOps)
	hist, err := dim.History("P1")
	require.Nil(t, err)
	assert.Equal(t, 1, len(hist))
}

func TestRunBatchNoNewChangesSkipsCommit(t *testing.T) {
	d := testDefinition()
	rt, _, wm := testRuntime() // the mock extractor is drained and echoes the since position.
	res := runBatchForTest(t, rt, d)
	assert.Equal(t, 0, res.Extracted)
	assert.Equal(t, "", res.Position)
	_, ok, err := wm.Get("erp", "product")
	require.Nil(t, err)
	assert.False(t, ok)
}

// racingExtractor commits the watermark for the same pair while the batch is being extracted,
// simulating a second committer winning the race.
type racingExtractor struct {
	batch extract.Batch
	wm    watermark.Store
}

func (r *racingExtractor) Extract(ctx context.Context, source, entity string, since watermark.Position) (extract.Batch, error) {
	racerToken := watermark.BatchToken{ID: "racer"}
	if !since.IsZero() {
		racerToken.Prior = since
	}
	if err := r.wm.Commit(source, entity, r.batch.NewPosition, racerToken); err != nil {
		return extract.Batch{}, err
	}
	return r.batch, nil
}

func TestRunBatchStaleWatermarkFailsBatch(t *testing.T) {
	d := testDefinition()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rt, dim, _ := testRuntime()
	rt.Extractor = &racingExtractor{
		batch: extract.Batch{
			Records:     []stream.Record{productRec("P1", 10, "Widget", t1)},
			NewPosition: watermark.TimePosition(t1),
		},
		wm: rt.Watermarks,
	}
	_, err := rt.runBatch(context.Background(), testLog, d, "test-guid", stats.NewMockStatsManager(), nil)
	require.NotNil(t, err)
	assert.IsType(t, watermark.StaleWatermarkError{}, err)
	// The merge committed before the stale commit was detected; the replayed batch will absorb it.
	_, ok, gerr := dim.GetActive("P1")
	require.Nil(t, gerr)
	assert.True(t, ok)
}

func TestRunBatchAppliesFilterSteps(t *testing.T) {
	d := testDefinition()
	d.Filters = []FilterSpec{{Type: "LastRow"}} // only the final record of the stream survives.
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rt, dim, _ := testRuntime(extract.Batch{
		Records: []stream.Record{
			productRec("P1", 10, "Widget", t1),
			productRec("P2", 20, "Gadget", t1),
			productRec("P3", 30, "Sprocket", t1),
		},
		NewPosition: watermark.TimePosition(t1),
	})
	res := runBatchForTest(t, rt, d)
	assert.Equal(t, 3, res.Extracted)
	assert.Equal(t, 1, res.Inserted)
	_, ok, err := dim.GetActive("P3")
	require.Nil(t, err)
	assert.True(t, ok)
}

// memoryQuarantineWriter captures quarantine reports for assertions.
type memoryQuarantineWriter struct {
	batchId string
	items   []scd2.Quarantined
}

func (m *memoryQuarantineWriter) Write(batchId string, q []scd2.Quarantined) error {
	m.batchId = batchId
	m.items = append(m.items, q...)
	return nil
}

func TestRunBatchReportsQuarantinedRecords(t *testing.T) {
	d := testDefinition()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	bad := stream.NewRecord() // no key fields at all.
	bad.SetData("price", 1)
	bad.SetData("updatedAt", t1)
	rt, _, _ := testRuntime(extract.Batch{
		Records:     []stream.Record{productRec("P1", 10, "Widget", t1), bad},
		NewPosition: watermark.TimePosition(t1),
	})
	qw := &memoryQuarantineWriter{}
	rt.Quarantine = qw
	res := runBatchForTest(t, rt, d)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Quarantined)
	require.Equal(t, 1, len(qw.items))
	assert.Equal(t, scd2.ReasonMissingKey, qw.items[0].Reason)
	assert.Equal(t, res.BatchId, qw.batchId)
}

func TestRunBatchFactPath(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	// Seed a product dimension with one active version.
	dim := dimension.NewMemoryStore(testLog, "product")
	tx, err := dim.Begin()
	require.Nil(t, err)
	require.Nil(t, tx.InsertVersion(dimension.Version{
		SurrogateKey: "sk-p1",
		NaturalKey:   "P1",
		Attributes:   map[string]interface{}{"name": "Widget"},
		ValidFrom:    t1,
		ValidTo:      dimension.MaxValidTo(),
		IsActive:     true,
	}))
	require.Nil(t, tx.Commit())
	sink := fact.NewMemorySink()
	loader, err := fact.NewLoader(testLog, &fact.Config{
		Entity:             "sales",
		EffectiveTimeField: "soldAt",
		Refs: []fact.Ref{{
			Store:     dim,
			KeyFields: helper.StringSliceToOrderedMap([]string{"productCode"}),
			FKField:   "productKey",
		}},
	}, sink)
	require.Nil(t, err)
	saleRec := stream.NewRecord()
	saleRec.SetData("productCode", "P1")
	saleRec.SetData("quantity", 3)
	saleRec.SetData("soldAt", t2)
	wm := watermark.NewMemoryStore(testLog)
	rt := &Runtime{
		Extractor:  &extract.MockExtractor{Batches: []extract.Batch{{Records: []stream.Record{saleRec}, NewPosition: watermark.TimePosition(t2)}}},
		Dimension:  dim,
		Watermarks: wm,
		Fact:       loader,
	}
	d := &IngestDefinition{SourceSystem: "pos", Entity: "sales", KeyFields: "productCode", TrackedCols: "quantity", EffectiveTimeField: "soldAt"}
	res, err := rt.runBatch(context.Background(), testLog, d, "test-guid", stats.NewMockStatsManager(), nil)
	require.Nil(t, err)
	assert.Equal(t, 1, res.FactRows)
	require.Equal(t, 1, len(sink.Rows()))
	assert.Equal(t, "sk-p1", sink.Rows()[0].GetData("productKey"))
	// The fact path commits the watermark too.
	_, ok, err := wm.Get("pos", "sales")
	require.Nil(t, err)
	assert.True(t, ok)
}

func TestLaunchIngestDefinitionBlocksUntilComplete(t *testing.T) {
	d := testDefinition()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rt, _, _ := testRuntime(extract.Batch{
		Records:     []stream.Record{productRec("P1", 10, "Widget", t1)},
		NewPosition: watermark.TimePosition(t1),
	})
	bi := NewSafeMapBatchInfo()
	guid, err := LaunchIngestDefinition(testLog, bi, d, rt, true, 0)
	require.Nil(t, err)
	require.NotEqual(t, "", guid)
	// The status consumer goroutine applies the final status asynchronously.
	var info BatchInfo
	var ok bool
	deadline := time.After(3 * time.Second)
	for {
		info, ok = bi.Load(guid)
		if ok && info.Status.BatchIsFinished() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the batch to finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, Status(StatusComplete), info.Status.Status)
	assert.Equal(t, "", info.Status.Error)
	assert.Equal(t, 1, info.Status.Result.Inserted)
}

func TestLaunchIngestDefinitionRejectsIncompleteDefinition(t *testing.T) {
	d := testDefinition()
	d.Entity = ""
	rt, _, _ := testRuntime()
	_, err := LaunchIngestDefinition(testLog, NewSafeMapBatchInfo(), d, rt, true, 0)
	require.NotNil(t, err)
}
