package dimension

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
)

// MemoryStore is an in-process Store used by tests and the local demo pipeline.
// All mutations go through a Tx guarded by a single mutex, which also gives us the
// per-entity batch serialization that the merge component relies upon.
type MemoryStore struct {
	log      logger.Logger
	entity   string
	mu       sync.Mutex
	versions map[string][]Version // natural key -> versions ordered by valid_from.
}

// NewMemoryStore creates a store for one entity and seeds the unknown sentinel row.
// The sentinel is active from the zero time to the max sentinel and is never expired.
func NewMemoryStore(log logger.Logger, entity string) *MemoryStore {
	s := &MemoryStore{
		log:      log,
		entity:   entity,
		versions: make(map[string][]Version),
	}
	unknown := Version{
		SurrogateKey: xid.New().String(),
		NaturalKey:   constants.UnknownNaturalKey,
		Attributes:   map[string]interface{}{"name": constants.UnknownMemberName},
		ValidFrom:    time.Time{},
		ValidTo:      MaxValidTo(),
		IsActive:     true,
	}
	s.versions[constants.UnknownNaturalKey] = []Version{unknown}
	return s
}

func (s *MemoryStore) Entity() string {
	return s.entity
}

func (s *MemoryStore) UnknownKey() string {
	return constants.UnknownNaturalKey
}

func (s *MemoryStore) GetActive(naturalKey string) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getActiveLocked(naturalKey)
}

func (s *MemoryStore) getActiveLocked(naturalKey string) (Version, bool, error) {
	var found []Version
	for _, v := range s.versions[naturalKey] {
		if v.IsActive {
			found = append(found, v)
		}
	}
	switch len(found) {
	case 0:
		return Version{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Version{}, false, InvariantViolationError{
			Entity:     s.entity,
			NaturalKey: naturalKey,
			Detail:     "more than one active version",
		}
	}
}

func (s *MemoryStore) Lookup(naturalKey string, at time.Time) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []Version
	for _, v := range s.versions[naturalKey] {
		if v.Covers(at) {
			found = append(found, v)
		}
	}
	switch len(found) {
	case 0:
		return Version{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Version{}, false, InvariantViolationError{
			Entity:     s.entity,
			NaturalKey: naturalKey,
			Detail:     "multiple versions cover the same instant",
		}
	}
}

func (s *MemoryStore) History(naturalKey string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.versions[naturalKey]
	retval := make([]Version, len(src))
	copy(retval, src)
	sort.Slice(retval, func(i, j int) bool {
		return retval[i].ValidFrom.Before(retval[j].ValidFrom)
	})
	return retval, nil
}

// Begin takes the store mutex for the life of the transaction.
// Writes land on a scratch copy of the touched keys and become visible on Commit.
func (s *MemoryStore) Begin() (Tx, error) {
	s.mu.Lock()
	return &memoryTx{store: s, pending: make(map[string][]Version)}, nil
}

type memoryTx struct {
	store    *MemoryStore
	pending  map[string][]Version // scratch copies keyed by natural key.
	finished bool
}

// working returns the tx-local copy of the versions for a key, creating it on first touch.
func (t *memoryTx) working(naturalKey string) []Version {
	if _, ok := t.pending[naturalKey]; !ok {
		src := t.store.versions[naturalKey]
		cp := make([]Version, len(src))
		copy(cp, src)
		t.pending[naturalKey] = cp
	}
	return t.pending[naturalKey]
}

func (t *memoryTx) GetActive(naturalKey string) (Version, bool, error) {
	var found []Version
	for _, v := range t.working(naturalKey) {
		if v.IsActive {
			found = append(found, v)
		}
	}
	switch len(found) {
	case 0:
		return Version{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Version{}, false, InvariantViolationError{
			Entity:     t.store.entity,
			NaturalKey: naturalKey,
			Detail:     "more than one active version",
		}
	}
}

func (t *memoryTx) InsertVersion(v Version) error {
	if v.SurrogateKey == "" {
		v.SurrogateKey = xid.New().String()
	}
	t.pending[v.NaturalKey] = append(t.working(v.NaturalKey), v)
	return nil
}

func (t *memoryTx) ExpireVersion(surrogateKey string, validTo time.Time) error {
	keys := make(map[string]bool)
	for k := range t.store.versions {
		keys[k] = true
	}
	for k := range t.pending { // include keys first seen in this transaction.
		keys[k] = true
	}
	for key := range keys {
		vs := t.working(key)
		for idx := range vs {
			if vs[idx].SurrogateKey == surrogateKey {
				vs[idx].ValidTo = validTo
				vs[idx].IsActive = false
				t.pending[key] = vs
				return nil
			}
		}
	}
	return InvariantViolationError{
		Entity:     t.store.entity,
		NaturalKey: "",
		Detail:     "expire requested for unknown surrogate key " + surrogateKey,
	}
}

func (t *memoryTx) Commit() error {
	if t.finished {
		return nil
	}
	for key, vs := range t.pending {
		t.store.versions[key] = vs
	}
	t.finished = true
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.finished {
		return nil
	}
	t.pending = nil
	t.finished = true
	t.store.mu.Unlock()
	return nil
}
