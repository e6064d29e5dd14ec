package dimension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
)

func mustTime(t *testing.T, day int) time.Time {
	t.Helper()
	return time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestMemoryStoreSeedsUnknownSentinel(t *testing.T) {
	log := logger.NewLogger("lakepipe", "info", true)
	s := NewMemoryStore(log, "product")
	// UnknownKey is the sentinel's natural key, usable with GetActive and Lookup.
	require.Equal(t, constants.UnknownNaturalKey, s.UnknownKey())
	active, ok, err := s.GetActive(s.UnknownKey())
	require.NoError(t, err)
	require.True(t, ok, "sentinel row must be active from creation")
	require.NotEmpty(t, active.SurrogateKey)
	v, ok, err := s.Lookup(constants.UnknownNaturalKey, mustTime(t, 1))
	require.NoError(t, err)
	require.True(t, ok, "sentinel row should cover any instant")
	assert.Equal(t, active.SurrogateKey, v.SurrogateKey)
	assert.True(t, v.IsActive)
	// The sentinel covers times long before any real history.
	_, ok, err = s.Lookup(constants.UnknownNaturalKey, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreInsertExpireAndLookup(t *testing.T) {
	log := logger.NewLogger("lakepipe", "info", true)
	s := NewMemoryStore(log, "product")

	tx, err := s.Begin()
	require.NoError(t, err)
	v1 := Version{
		SurrogateKey: "sk1",
		NaturalKey:   "P1",
		Attributes:   map[string]interface{}{"price": 10},
		ValidFrom:    mustTime(t, 1),
		ValidTo:      MaxValidTo(),
		IsActive:     true,
	}
	require.NoError(t, tx.InsertVersion(v1))
	// The insert is visible within the transaction but not outside it yet.
	got, ok, err := tx.GetActive("P1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk1", got.SurrogateKey)
	require.NoError(t, tx.Commit())

	// Expire and insert the replacement in one transaction.
	tx, err = s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.ExpireVersion("sk1", mustTime(t, 2)))
	require.NoError(t, tx.InsertVersion(Version{
		SurrogateKey: "sk2",
		NaturalKey:   "P1",
		Attributes:   map[string]interface{}{"price": 12},
		ValidFrom:    mustTime(t, 2),
		ValidTo:      MaxValidTo(),
		IsActive:     true,
	}))
	require.NoError(t, tx.Commit())

	// History contiguity: valid_to[i] == valid_from[i+1], one active, one open-ended row.
	history, err := s.History("P1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, history[0].ValidTo, history[1].ValidFrom)
	activeCount, openCount := 0, 0
	for _, v := range history {
		if v.IsActive {
			activeCount++
		}
		if v.ValidTo.Equal(MaxValidTo()) {
			openCount++
		}
	}
	assert.Equal(t, 1, activeCount)
	assert.Equal(t, 1, openCount)

	// Point-in-time lookups resolve the covering interval.
	v, ok, err := s.Lookup("P1", mustTime(t, 1).Add(12*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk1", v.SurrogateKey)
	v, ok, err = s.Lookup("P1", mustTime(t, 3))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk2", v.SurrogateKey)
	// Before all history there is no covering version.
	_, ok, err = s.Lookup("P1", time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRollbackDiscardsWrites(t *testing.T) {
	log := logger.NewLogger("lakepipe", "info", true)
	s := NewMemoryStore(log, "product")
	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.InsertVersion(Version{
		SurrogateKey: "sk1",
		NaturalKey:   "P1",
		ValidFrom:    mustTime(t, 1),
		ValidTo:      MaxValidTo(),
		IsActive:     true,
	}))
	require.NoError(t, tx.Rollback())
	_, ok, err := s.GetActive("P1")
	require.NoError(t, err)
	assert.False(t, ok, "rolled back insert must not be visible")
}

func TestMemoryStoreMultiMatchIsInvariantViolation(t *testing.T) {
	log := logger.NewLogger("lakepipe", "info", true)
	s := NewMemoryStore(log, "product")
	tx, err := s.Begin()
	require.NoError(t, err)
	// Two overlapping active rows for the same key simulate a corrupt history.
	for _, sk := range []string{"sk1", "sk2"} {
		require.NoError(t, tx.InsertVersion(Version{
			SurrogateKey: sk,
			NaturalKey:   "P1",
			ValidFrom:    mustTime(t, 1),
			ValidTo:      MaxValidTo(),
			IsActive:     true,
		}))
	}
	require.NoError(t, tx.Commit())
	_, _, err = s.Lookup("P1", mustTime(t, 2))
	require.Error(t, err)
	_, isInvariant := err.(InvariantViolationError)
	assert.True(t, isInvariant, "expected InvariantViolationError, got %T", err)
}
