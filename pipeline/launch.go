package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/xid"

	"github.com/lakepipe/lakepipe/components"
	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/stats"
)

// LaunchIngestJson unmarshals an IngestDefinition and launches it.
func LaunchIngestJson(log logger.Logger, bi *SafeMapBatchInfo, ingestJson string, rt *Runtime, blockUntilComplete bool, statsDumpFrequencySeconds int,
) (guid string, err error) {
	d := &IngestDefinition{}
	err = json.Unmarshal([]byte(ingestJson), d)
	if err != nil {
		return
	}
	return LaunchIngestDefinition(log, bi, d, rt, blockUntilComplete, statsDumpFrequencySeconds)
}

// LaunchIngestDefinition validates the supplied IngestDefinition and launches it against the
// supplied Runtime. It stores the GUID of the new batch in bi and returns it.
// An error is returned if there is a problem validating the definition.
// If blockUntilComplete is false then the batch is launched in a goroutine.
func LaunchIngestDefinition(log logger.Logger, bi *SafeMapBatchInfo, d *IngestDefinition, rt *Runtime, blockUntilComplete bool, statsDumpFrequencySeconds int,
) (guid string, err error) {
	// Validate the definition.
	err = helper.ValidateStructIsPopulated(d)
	if err != nil { // if there was an error in validation...
		return // guid, err
	}
	// Save info about the new batch.
	s := stats.NewBatchStats(log, stats.SetStatsDumpFrequency(statsDumpFrequencySeconds))
	chanStatus := make(chan BatchStatus, 1) // channel for us to receive status messages back from the batch
	chanShutdown := make(chan error, 1)     // channel upon which we can stop the current batch
	bc := NewBatchCloser(chanStatus, chanShutdown)
	guid = xid.New().String()
	bi.Store(
		guid,
		BatchInfo{ // save details about this batch
			ChanStop: chanShutdown,
			Stats:    s,
			Ingest:   *d, // save value
			Status:   BatchStatus{Status: StatusStarting, StartTime: time.Now()},
		})
	// Launch a goroutine to consume status messages from the batch, saving them to our instance of BatchInfo.
	go bi.ConsumeBatchStatusChanges(guid, chanStatus)
	// Launch the batch.
	log.Info("Launching ingest batch ", guid, " for ", d.SourceSystem, ".", d.Entity)
	cleanupHandler := GetCleanupHandlerWithChannelsFunc(log, guid, bc) // the cleanup handler is the thing that causes exit(1) if there's a signal on chanShutdown!
	panicHandler := GetPanicHandlerWithChannelsFunc(bc)
	if blockUntilComplete {
		LaunchIngestWithControlChannels(log, d, rt, guid, s, bc, cleanupHandler, panicHandler)
	} else {
		go LaunchIngestWithControlChannels(log, d, rt, guid, s, bc, cleanupHandler, panicHandler)
	}
	return
}

// LaunchIngestWithControlChannels launches a batch that can be stopped by sending to the closer's
// shutdown channel. After the batch is complete it responds on the status channel with a
// success/failure status message.
func LaunchIngestWithControlChannels(log logger.Logger,
	d *IngestDefinition,
	rt *Runtime,
	batchGuid string,
	s StatsManager,
	bc *BatchCloser,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
) {
	defer panicHandlerFn()
	// Signal that we have started the batch.
	bc.chanStatus <- BatchStatus{Status: StatusRunning}
	// Launch the batch (this blocks) with clean-up and panic handlers.
	res := LaunchIngest(log, d, rt, batchGuid, s, cleanupHandlerFn, panicHandlerFn)
	// Signal that we have completed the batch.
	bc.CloseChannels(&BatchStatus{Status: StatusComplete, Result: res})
}

// LaunchIngest runs the batch once, or repeatedly when the definition's type is repeating.
// It blocks until the batch is complete or the context is cancelled by the cleanup handler,
// and returns the result of the last iteration.
func LaunchIngest(log logger.Logger,
	d *IngestDefinition,
	rt *Runtime,
	batchGuid string,
	s StatsManager,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
) RunResult {
	// Defer the panic handler.
	defer panicHandlerFn()
	ctx, cancelFunc := context.WithCancel(context.Background())
	go cleanupHandlerFn(log, batchGuid, s, cancelFunc) // listen for quit signals.
	var last RunResult
	runOnce := func() {
		s.StartDumping() // output stats for all pipeline steps.
		res, err := rt.runBatch(ctx, log, d, batchGuid, s, panicHandlerFn)
		s.StopDumping()
		if err != nil { // if the batch failed...
			log.Panic(err.Error()) // recovered by the panic handler, which reports the failure on chanStatus.
		}
		last = res
	}
	if d.Type == IngestRepeating { // else we should run this repeatedly...
		idx := 0
		quit := false
		var lastStartTime time.Time
		for { // loop forever or until quit is set...
			idx++ // increment counter before log
			log.Info("Repeat launching ingest batch ", batchGuid)
			lastStartTime = time.Now() // capture the approx. time that we started this iteration.
			runOnce()
			log.Info("Repeating ingest batch ", batchGuid, " completed ", idx, " iteration(s)")
			select {
			case <-ctx.Done():
				quit = true
			case <-time.After(getSleepDuration(log, lastStartTime, d.RepeatMeta.SleepSeconds)): // pause until next timeout.
			}
			if quit {
				break
			}
		}
	} else { // else the default method is to run once...
		runOnce()
	}
	return last
}

// getSleepDuration returns the remainder of the repeat interval measured from lastStartTime.
func getSleepDuration(log logger.Logger, lastStartTime time.Time, sleepSeconds int) time.Duration {
	curTime := time.Now()
	nextStartTime := lastStartTime.Add(time.Second * time.Duration(sleepSeconds))
	var timeout time.Duration
	if curTime.Before(nextStartTime) { // if the current time is before the lastStartTime+interval...
		// Set the timeout for the remainder of the interval.
		timeout = nextStartTime.Sub(curTime)
		timeout = timeout.Truncate(time.Second)
		log.Info("Sleep interval set to ", sleepSeconds, " seconds. ", timeout, " seconds remaining.")
	} else { // else we are overdue...
		diff := curTime.Sub(nextStartTime)
		diff = diff.Truncate(time.Second)
		timeout = 0
		log.Info("Sleep interval set to ", sleepSeconds, " seconds. Next interval overdue by ", diff)
	}
	return timeout
}
