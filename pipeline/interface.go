package pipeline

import (
	"context"

	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/stats"
)

// StatsManager is used by the launcher to dump step stats periodically and to register
// a StepWatcher per pipeline step.
type StatsManager interface {
	StartDumping()
	StopDumping()
	AddStepWatcher(stepName string) *stats.StepWatcher
}

// CleanupHandlerFunc handles CTRL-C / SIGTERM and shutdown requests for a launched batch.
type CleanupHandlerFunc func(log logger.Logger, batchGuid string, s StatsManager, cancelFunc context.CancelFunc)
