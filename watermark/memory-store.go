package watermark

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lakepipe/lakepipe/logger"
)

// MemoryStore is an in-process Store used by tests and the local demo pipeline.
type MemoryStore struct {
	log logger.Logger
	mu  sync.Mutex
	m   map[string]Record
}

func NewMemoryStore(log logger.Logger) *MemoryStore {
	return &MemoryStore{log: log, m: make(map[string]Record)}
}

func key(source, entity string) string {
	return source + "\x00" + entity
}

func (s *MemoryStore) Get(source, entity string) (Position, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[key(source, entity)]
	if !ok {
		return Position{}, false, nil
	}
	return rec.Position, true, nil
}

func (s *MemoryStore) Commit(source, entity string, pos Position, token BatchToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, exists := s.m[key(source, entity)]
	if exists {
		// Detect a commit race: the batch must have been extracted from the current position.
		if token.Prior.IsZero() {
			return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token, Current: rec.Position}
		}
		cmp, err := token.Prior.Compare(rec.Position)
		if err != nil {
			return err
		}
		if cmp != 0 {
			return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token, Current: rec.Position}
		}
		// Monotonicity: never move the watermark backwards.
		cmp, err = pos.Compare(rec.Position)
		if err != nil {
			return err
		}
		if cmp < 0 {
			return fmt.Errorf("watermark for %v.%v cannot move backwards from %v to %v", source, entity, rec.Position, pos)
		}
	} else if !token.Prior.IsZero() {
		return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token}
	}
	s.m[key(source, entity)] = Record{
		SourceSystem: source,
		Entity:       entity,
		Position:     pos,
		UpdatedAt:    time.Now(),
	}
	s.log.Debug("watermark committed for ", source, ".", entity, " at ", pos.String(), " by batch ", token.ID)
	return nil
}

func (s *MemoryStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	retval := make([]Record, 0, len(s.m))
	for _, rec := range s.m {
		retval = append(retval, rec)
	}
	sort.Slice(retval, func(i, j int) bool {
		if retval[i].SourceSystem != retval[j].SourceSystem {
			return retval[i].SourceSystem < retval[j].SourceSystem
		}
		return retval[i].Entity < retval[j].Entity
	})
	return retval, nil
}
