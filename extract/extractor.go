package extract

import (
	"context"

	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

// Batch is one extracted chunk of changed records plus the watermark position that is
// safe to commit once the chunk has been merged durably.
type Batch struct {
	Records []stream.Record
	// NewPosition is the highest delta value observed in the batch. It equals the since
	// position when the source had no new changes.
	NewPosition watermark.Position
}

// Extractor pulls records changed after a watermark position from a source system.
// Delivery is at least once: after a crash between merge and watermark commit the same
// records are extracted again, and the merge absorbs the replay.
type Extractor interface {
	Extract(ctx context.Context, source, entity string, since watermark.Position) (Batch, error)
}

// MockExtractor returns queued batches in order, for pipeline tests.
type MockExtractor struct {
	Batches []Batch
	Err     error
	calls   int
	// Seen records the since positions passed to Extract.
	Seen []watermark.Position
}

func (m *MockExtractor) Extract(ctx context.Context, source, entity string, since watermark.Position) (Batch, error) {
	m.Seen = append(m.Seen, since)
	if m.Err != nil {
		return Batch{}, m.Err
	}
	if m.calls >= len(m.Batches) {
		return Batch{NewPosition: since}, nil // drained; no new changes.
	}
	b := m.Batches[m.calls]
	m.calls++
	return b, nil
}
