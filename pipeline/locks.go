package pipeline

import (
	"fmt"
	"sync"
)

// entityLocks serializes merge-and-commit sections per (source system, entity) pair.
// The dimension store already serializes its own transactions, but two concurrently
// launched definitions for the same entity would otherwise interleave their watermark
// reads with their commits and both see a stale prior position.
var entityLocks = struct {
	mu       sync.Mutex
	internal map[string]*sync.Mutex
}{internal: make(map[string]*sync.Mutex)}

// lockForEntity returns the mutex for the given (source system, entity) pair, creating it on first use.
func lockForEntity(source, entity string) *sync.Mutex {
	key := fmt.Sprintf("%v.%v", source, entity)
	entityLocks.mu.Lock()
	defer entityLocks.mu.Unlock()
	l, ok := entityLocks.internal[key]
	if !ok { // if this is the first batch for the pair...
		l = &sync.Mutex{}
		entityLocks.internal[key] = l
	}
	return l
}
