package pipeline

import (
	"sync"
	"time"

	"github.com/lakepipe/lakepipe/stats"
)

// BatchInfo holds the runtime state of one launched ingest batch.
type BatchInfo struct {
	Ingest   IngestDefinition
	ChanStop chan error
	Status   BatchStatus `json:"batchStatus"`
	Stats    stats.StatsFetcher
}

// SafeMapBatchInfo wraps a map[string]BatchInfo with locking, via Load() and Store() methods.
type SafeMapBatchInfo struct {
	sync.RWMutex
	Internal map[string]BatchInfo
}

func NewSafeMapBatchInfo() *SafeMapBatchInfo {
	bi := SafeMapBatchInfo{}
	bi.Internal = make(map[string]BatchInfo)
	return &bi
}

func (t *SafeMapBatchInfo) Load(key string) (bi BatchInfo, ok bool) {
	t.RLock()
	bi, ok = t.Internal[key]
	t.RUnlock()
	return
}

func (t *SafeMapBatchInfo) Store(key string, value BatchInfo) {
	t.Lock()
	t.Internal[key] = value
	t.Unlock()
}

func (t *SafeMapBatchInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// ConsumeBatchStatusChanges loops until chanStatus is closed
// and updates t.Internal[batchGuid] with any statuses received.
func (t *SafeMapBatchInfo) ConsumeBatchStatusChanges(batchGuid string, chanStatus chan BatchStatus) {
	for status := range chanStatus {
		bi, _ := t.Load(batchGuid)
		switch status.Status {
		case StatusRunning:
			bi.Status.Status = status.Status
			bi.Status.StartTime = time.Now()
		case StatusComplete:
			bi.Status.Status = status.Status
			bi.Status.EndTime = time.Now()
			bi.Status.Result = status.Result
		case StatusCompleteWithError:
			bi.Status.Status = status.Status
			bi.Status.EndTime = time.Now()
			bi.Status.Error = status.Error
		case StatusShutdown:
			bi.Status.Status = status.Status
			bi.Status.EndTime = time.Now()
		}
		t.Store(batchGuid, bi)
	}
}
