package watermark

import (
	"fmt"
	"time"
)

// Record is one row of the watermark store: the last successfully processed position
// per (source_system, entity). Rows are mutated only by Commit and never deleted.
type Record struct {
	SourceSystem string    `json:"sourceSystem"`
	Entity       string    `json:"entity"`
	Position     Position  `json:"position"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BatchToken identifies one extracted batch and carries the watermark position the batch
// was extracted from. Commit uses the prior position to detect commit races.
type BatchToken struct {
	ID    string   `json:"id"`
	Prior Position `json:"prior"` // the committed position at the time the batch was extracted; zero for a first batch.
}

// StaleWatermarkError means another committer advanced the watermark after this batch was
// extracted. The caller must not retry the commit blindly - the batch has to be re-extracted
// from the fresh watermark.
type StaleWatermarkError struct {
	SourceSystem string
	Entity       string
	Token        BatchToken
	Current      Position
}

func (e StaleWatermarkError) Error() string {
	return fmt.Sprintf("stale watermark for %v.%v: batch %v extracted at position %v but the store is now at %v",
		e.SourceSystem, e.Entity, e.Token.ID, e.Token.Prior, e.Current)
}

// Store is the durable keyed table of watermark records.
// Commit must be atomic: the position advances only if the token's prior position still
// matches the stored one, and committed positions are non-decreasing over time.
type Store interface {
	// Get returns the committed position, or ok == false when the pair has never committed.
	Get(source, entity string) (pos Position, ok bool, err error)
	// Commit durably advances the position. It fails with StaleWatermarkError on a commit
	// race and with a plain error when pos would move the watermark backwards.
	Commit(source, entity string, pos Position, token BatchToken) error
	// List returns all watermark records, for operator inspection.
	List() ([]Record, error)
}
