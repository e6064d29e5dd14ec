package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status uint32

const (
	StatusMissing         = 0
	StatusStarting Status = iota + 1
	StatusRunning
	StatusComplete
	StatusCompleteWithError
	StatusShutdown
)

func (s Status) MarshalJSON() ([]byte, error) {
	var retval string
	switch s {
	case StatusMissing:
		retval = ""
	case StatusStarting:
		retval = "starting"
	case StatusRunning:
		retval = "running"
	case StatusComplete:
		retval = "complete"
	case StatusCompleteWithError:
		retval = "complete with error"
	case StatusShutdown:
		retval = "shutdown by user"
	default:
		err := fmt.Errorf("unhandled Status value %v in custom MarshalJSON() conversion", s)
		return nil, err
	}
	return json.Marshal(retval)
}

// BatchStatus is the externally visible state of one launched ingest batch.
// Result is populated once the final iteration completes.
type BatchStatus struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    Status    `json:"batchStatus"`
	Error     string    `json:"error"`
	Result    RunResult `json:"result"`
}

func (b *BatchStatus) BatchIsFinished() bool {
	if b.Status == StatusStarting || b.Status == StatusRunning { // if the batch is running...
		return false // we're not finished!
	} else { // else the batch is NOT running...
		return true
	}
}
