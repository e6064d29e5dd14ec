package pipeline

import (
	"sync"
)

type StepStatus uint32

const (
	StepStatusStarting StepStatus = iota + 1
	StepStatusRunning
	StepStatusDone
)

// batchWaiter is a wrapper around sync.WaitGroup.
// It can return a *stepWaiter, which implements the components.ComponentWaiter interface
// and provides access to the batchWaiter for a given step.
type batchWaiter struct {
	wg                      sync.WaitGroup
	internalMapStepStatuses map[string]StepStatus
	mu                      sync.RWMutex
}

func newBatchWaiter() *batchWaiter {
	return &batchWaiter{internalMapStepStatuses: make(map[string]StepStatus)}
}

// newStepComponentWaiter returns a *stepWaiter which provides access to the batchWaiter for a given step.
func (bw *batchWaiter) newStepComponentWaiter(stepName string) *stepWaiter {
	bw.StoreStatus(stepName, StepStatusStarting)
	return &stepWaiter{stepName: stepName, bw: bw}
}

func (bw *batchWaiter) StoreStatus(stepName string, status StepStatus) {
	bw.mu.Lock()
	bw.internalMapStepStatuses[stepName] = status
	bw.mu.Unlock()
}

func (bw *batchWaiter) LoadStatus(stepName string) (retval StepStatus, ok bool) {
	bw.mu.RLock()
	retval, ok = bw.internalMapStepStatuses[stepName]
	bw.mu.RUnlock()
	return
}

func (bw *batchWaiter) Wait() {
	bw.wg.Wait()
}

// stepWaiter provides access to the parent batchWaiter for a given step by storing the stepName.
// It updates the parent waitGroup by writing the step's status when Add() and Done() are called.
// stepWaiter implements the components.ComponentWaiter interface.
type stepWaiter struct {
	bw       *batchWaiter
	stepName string
}

func (s *stepWaiter) Add() {
	s.bw.wg.Add(1)
	s.bw.StoreStatus(s.stepName, StepStatusRunning)
}

func (s *stepWaiter) Done() {
	s.bw.wg.Done()
	s.bw.StoreStatus(s.stepName, StepStatusDone)
}
