package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	"github.com/lakepipe/lakepipe/watermark"
)

var testLog = logger.NewLogger("extract-test", "error", true)

func newTestExtractor(t *testing.T, posType watermark.PositionType, maxRows int) (*SqlExtractor, chan string) {
	db, resultChan := shared.NewMockConnectionWithMockTx(testLog, constants.ConnectionTypeMock)
	e, err := NewSqlExtractor(&SqlExtractorConfig{
		Log:          testLog,
		Db:           db,
		SchemaTable:  "src.orders",
		Columns:      []string{"order_id", "status", "updated_at"},
		DeltaColumn:  "updated_at",
		PositionType: posType,
		MaxRows:      maxRows,
	})
	require.Nil(t, err)
	return e, resultChan
}

func TestSqlExtractorBuildsDeltaPredicate(t *testing.T) {
	e, resultChan := newTestExtractor(t, watermark.PositionTypeTime, 0)
	// First extraction has no watermark so no predicate.
	_, err := e.Extract(context.Background(), "erp", "orders", watermark.Position{})
	require.Nil(t, err)
	assert.Equal(t, "select order_id,status,updated_at from src.orders order by updated_at", <-resultChan)
	// A committed watermark becomes a strictly-greater-than predicate.
	since := watermark.TimePosition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	_, err = e.Extract(context.Background(), "erp", "orders", since)
	require.Nil(t, err)
	assert.Equal(t, "select order_id,status,updated_at from src.orders where updated_at > ? order by updated_at", <-resultChan)
}

func TestSqlExtractorCapsBatch(t *testing.T) {
	e, resultChan := newTestExtractor(t, watermark.PositionTypeNumber, 500)
	_, err := e.Extract(context.Background(), "erp", "orders", watermark.NumberPosition(42))
	require.Nil(t, err)
	assert.Equal(t, "select order_id,status,updated_at from src.orders where updated_at > ? order by updated_at limit 500", <-resultChan)
}

func TestSqlExtractorCapsBatchSqlServer(t *testing.T) {
	// T-SQL takes TOP after SELECT rather than a trailing LIMIT.
	db, resultChan := shared.NewMockConnectionWithMockTx(testLog, constants.ConnectionTypeMock)
	e, err := NewSqlExtractor(&SqlExtractorConfig{
		Log:          testLog,
		Db:           db,
		DbType:       constants.ConnectionTypeSqlServer,
		SchemaTable:  "src.orders",
		Columns:      []string{"order_id", "status", "updated_at"},
		DeltaColumn:  "updated_at",
		PositionType: watermark.PositionTypeNumber,
		MaxRows:      500,
	})
	require.Nil(t, err)
	_, err = e.Extract(context.Background(), "erp", "orders", watermark.NumberPosition(42))
	require.Nil(t, err)
	assert.Equal(t, "select top 500 order_id,status,updated_at from src.orders where updated_at > ? order by updated_at", <-resultChan)
}

func TestSqlExtractorEmptySourceKeepsPosition(t *testing.T) {
	e, _ := newTestExtractor(t, watermark.PositionTypeNumber, 0)
	since := watermark.NumberPosition(42)
	batch, err := e.Extract(context.Background(), "erp", "orders", since)
	require.Nil(t, err)
	assert.Equal(t, 0, len(batch.Records))
	cmp, err := batch.NewPosition.Compare(since)
	require.Nil(t, err)
	assert.Equal(t, 0, cmp, "no changes must leave the watermark where it was")
}

func TestPositionFromDelta(t *testing.T) {
	e, _ := newTestExtractor(t, watermark.PositionTypeNumber, 0)
	pos, err := e.positionFromDelta(int64(99))
	require.Nil(t, err)
	assert.Equal(t, watermark.NumberPosition(99), pos)
	pos, err = e.positionFromDelta([]byte("100"))
	require.Nil(t, err)
	assert.Equal(t, watermark.NumberPosition(100), pos)
	_, err = e.positionFromDelta("not-a-number")
	assert.NotNil(t, err)
	_, err = e.positionFromDelta(nil)
	assert.NotNil(t, err)

	te, _ := newTestExtractor(t, watermark.PositionTypeTime, 0)
	now := time.Now().UTC()
	pos, err = te.positionFromDelta(now)
	require.Nil(t, err)
	assert.Equal(t, watermark.TimePosition(now), pos)
	_, err = te.positionFromDelta(int64(5))
	assert.NotNil(t, err)
}

func TestLaterPosition(t *testing.T) {
	a := watermark.NumberPosition(10)
	b := watermark.NumberPosition(20)
	assert.Equal(t, b, laterPosition(a, b))
	assert.Equal(t, b, laterPosition(b, a))
	assert.Equal(t, b, laterPosition(watermark.Position{}, b))
}

func TestMockExtractorDrains(t *testing.T) {
	m := &MockExtractor{Batches: []Batch{{NewPosition: watermark.NumberPosition(1)}}}
	b, err := m.Extract(context.Background(), "erp", "orders", watermark.Position{})
	require.Nil(t, err)
	assert.Equal(t, watermark.NumberPosition(1), b.NewPosition)
	// Drained extractors echo the since position.
	since := watermark.NumberPosition(1)
	b, err = m.Extract(context.Background(), "erp", "orders", since)
	require.Nil(t, err)
	assert.Equal(t, since, b.NewPosition)
	assert.Equal(t, 2, len(m.Seen))
}
