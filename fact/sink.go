package fact

import (
	"sync"

	"github.com/lakepipe/lakepipe/stream"
)

// Sink receives resolved fact rows. Implementations batch internally; Flush makes all
// written rows durable and is called once per batch by the loader.
type Sink interface {
	WriteRow(rec stream.Record) error
	Flush() error
}

// MemorySink keeps resolved facts in memory, for tests and for the stdout pipe.
type MemorySink struct {
	mu   sync.Mutex
	rows []stream.Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) WriteRow(rec stream.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rec)
	return nil
}

func (s *MemorySink) Flush() error {
	return nil
}

// Rows returns a copy of the written rows in write order.
func (s *MemorySink) Rows() []stream.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	retval := make([]stream.Record, len(s.rows))
	copy(retval, s.rows)
	return retval
}
