package dimension

import (
	"fmt"
	"time"

	"github.com/lakepipe/lakepipe/constants"
)

// Version is one historical row of a dimension.
// ValidFrom and SurrogateKey are immutable once assigned; only ValidTo and IsActive may be
// mutated, and only when the version is expired by a newer one.
type Version struct {
	SurrogateKey string                 `json:"surrogateKey"`
	NaturalKey   string                 `json:"naturalKey"`
	Attributes   map[string]interface{} `json:"attributes"`
	ValidFrom    time.Time              `json:"validFrom"`
	ValidTo      time.Time              `json:"validTo"`
	IsActive     bool                   `json:"isActive"`
}

// MaxValidTo returns the open-ended sentinel used as valid_to of the active version.
func MaxValidTo() time.Time {
	return time.Date(constants.ValidToMaxYear, 1, 1, 0, 0, 0, 0, time.UTC)
}

// Covers reports whether the version's validity interval contains the given instant.
// Intervals are half-open: valid_from <= at < valid_to.
func (v Version) Covers(at time.Time) bool {
	return !at.Before(v.ValidFrom) && at.Before(v.ValidTo)
}

// InvariantViolationError means the stored history for a natural key is corrupt, for example
// two rows whose intervals overlap. The merge for that key halts; other keys continue.
type InvariantViolationError struct {
	Entity     string
	NaturalKey string
	Detail     string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("dimension history invariant violated for entity %q key %q: %v", e.Entity, e.NaturalKey, e.Detail)
}

// Store is the versioned dimension table for one entity.
// Implementations must serialize Begin..Commit sections per entity; the merge component holds
// one transaction open for a whole batch so no two batches interleave their read of the active
// row with their write of the new one.
type Store interface {
	Entity() string
	// GetActive returns the single active version for the natural key, or ok == false when the
	// key has no history yet.
	GetActive(naturalKey string) (v Version, ok bool, err error)
	// Lookup performs a point-in-time fetch of the version whose interval contains 'at'.
	// ok == false means no version covers the instant. An InvariantViolationError is returned
	// when more than one row matches - callers must not silently pick one.
	Lookup(naturalKey string, at time.Time) (v Version, ok bool, err error)
	// History returns all versions for the natural key ordered by valid_from ascending.
	History(naturalKey string) ([]Version, error)
	// UnknownKey returns the natural key of the pre-seeded sentinel row.
	UnknownKey() string
	Begin() (Tx, error)
}

// Tx applies merge operations atomically. Expire and the matching insert for one natural key
// must land in the same transaction so no half-expired state is ever visible.
// The merge engine reads the active row through the transaction so its read-then-write per
// natural key cannot interleave with another batch.
type Tx interface {
	// GetActive behaves as Store.GetActive but observes writes made earlier in this transaction.
	GetActive(naturalKey string) (v Version, ok bool, err error)
	InsertVersion(v Version) error
	// ExpireVersion closes the identified version at validTo and clears its active flag.
	// ValidFrom and SurrogateKey are never touched.
	ExpireVersion(surrogateKey string, validTo time.Time) error
	Commit() error
	Rollback() error
}
